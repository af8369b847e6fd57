package param

import (
	"testing"

	"github.com/m-lab/paramtree/wire"
)

func TestFileReadWrite(t *testing.T) {
	data := []byte("hello world")
	f := NewFile(
		Meta{Name: "f", Access: Readable | Writable},
		func(offset uint32, maxlen uint16) ([]byte, wire.ErrCode) {
			if int(offset) >= len(data) {
				return nil, wire.ErrNone
			}
			end := int(offset) + int(maxlen)
			if end > len(data) {
				end = len(data)
			}
			return data[offset:end], wire.ErrNone
		},
		func(offset uint32, b []byte) wire.ErrCode {
			data = append(data[:offset], b...)
			return wire.ErrNone
		},
	)

	got, err := f.Read(0, 5)
	if err != wire.ErrNone || string(got) != "hello" {
		t.Fatalf("read: got %q, err %v", got, err)
	}
	// A short read (fewer bytes than maxlen) signals EOF.
	got, err = f.Read(6, 100)
	if err != wire.ErrNone || string(got) != "world" {
		t.Fatalf("short read at EOF: got %q, err %v", got, err)
	}
}

func TestFileUnboundAccess(t *testing.T) {
	f := NewFile(Meta{Name: "f"}, nil, nil)
	if _, err := f.Read(0, 1); err != wire.ErrAccess {
		t.Errorf("read on unbound file: got %v, want ErrAccess", err)
	}
	if err := f.Write(0, []byte("x")); err != wire.ErrAccess {
		t.Errorf("write on unbound file: got %v, want ErrAccess", err)
	}
}
