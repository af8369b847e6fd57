package param

import "github.com/m-lab/paramtree/wire"

// FileReader returns up to maxlen bytes starting at offset; returning
// fewer than maxlen (including zero) signals EOF (§4.3). FileWriter stores
// data starting at offset.
type FileReader func(offset uint32, maxlen uint16) ([]byte, wire.ErrCode)
type FileWriter func(offset uint32, data []byte) wire.ErrCode

// File is a random-access byte stream parameter (§4.3). Its Type is always
// wire.File; the verbs carry bytes directly rather than a tagged value.
type File struct {
	base
	read  FileReader
	write FileWriter
}

// NewFile constructs a File parameter. read or write may be nil.
func NewFile(meta Meta, read FileReader, write FileWriter) *File {
	meta.Shape = FileShape
	meta.Type = wire.File
	return &File{base: base{meta: meta}, read: read, write: write}
}

func (f *File) Read(offset uint32, maxlen uint16) ([]byte, wire.ErrCode) {
	if f.read == nil {
		return nil, wire.ErrAccess
	}
	return f.read(offset, maxlen)
}

func (f *File) Write(offset uint32, data []byte) wire.ErrCode {
	if f.write == nil {
		return wire.ErrAccess
	}
	return f.write(offset, data)
}
