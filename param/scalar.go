package param

import "github.com/m-lab/paramtree/wire"

// ScalarGetter and ScalarSetter are the user bindings for a scalar
// parameter. A nil setter makes the parameter read-only; a nil getter
// makes it write-only (§4.3: "one of which may be absent").
type ScalarGetter func() interface{}
type ScalarSetter func(interface{}) wire.ErrCode

// Scalar is a single type-matched value, read and written whole (§4.3).
type Scalar struct {
	base
	get ScalarGetter
	set ScalarSetter
}

// NewScalar constructs a Scalar parameter. get or set may be nil.
func NewScalar(meta Meta, get ScalarGetter, set ScalarSetter) *Scalar {
	meta.Shape = ScalarShape
	return &Scalar{base: base{meta: meta}, get: get, set: set}
}

func (s *Scalar) Get() (wire.Type, interface{}, wire.ErrCode) {
	if s.get == nil {
		return s.meta.Type, wire.Default(s.meta.Type), wire.ErrAccess
	}
	return s.meta.Type, s.get(), wire.ErrNone
}

// Set applies v if t matches the parameter's native type. A mismatched t
// is ERR_TYPE and never invokes the binding (invariant 5, scenario S2).
func (s *Scalar) Set(t wire.Type, v interface{}) wire.ErrCode {
	if t != s.meta.Type {
		return wire.ErrType
	}
	if s.set == nil {
		return wire.ErrAccess
	}
	return s.set(v)
}
