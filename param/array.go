package param

import (
	"reflect"

	"github.com/m-lab/paramtree/wire"
)

// ArrayGetter and ArraySetter carry the whole slice value (the Go type
// Default(meta.Type) would produce for one of the *Array wire types).
type ArrayGetter func() interface{}
type ArraySetter func(interface{}) wire.ErrCode

// Array is a length-prefixed, variable-length run of elements (§4.3). If
// Meta.Size is nonzero it caps the element count a Set may install;
// exceeding it is ERR_OVERFLOW, matching the wire's "array too long" code.
type Array struct {
	base
	get ArrayGetter
	set ArraySetter
}

// NewArray constructs an Array parameter. maxLen of 0 means unbounded
// (still implicitly capped at 65535 elements by the wire length prefix).
func NewArray(meta Meta, maxLen uint32, get ArrayGetter, set ArraySetter) *Array {
	meta.Shape = ArrayShape
	meta.Size = maxLen
	return &Array{base: base{meta: meta}, get: get, set: set}
}

func (a *Array) Get() (wire.Type, interface{}, wire.ErrCode) {
	if a.get == nil {
		return a.meta.Type, wire.Default(a.meta.Type), wire.ErrAccess
	}
	return a.meta.Type, a.get(), wire.ErrNone
}

func (a *Array) Set(t wire.Type, v interface{}) wire.ErrCode {
	if t != a.meta.Type {
		return wire.ErrType
	}
	if a.meta.Size > 0 && uint32(reflect.ValueOf(v).Len()) > a.meta.Size {
		return wire.ErrOverflow
	}
	if a.set == nil {
		return wire.ErrAccess
	}
	return a.set(v)
}
