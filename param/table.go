package param

import "github.com/m-lab/paramtree/wire"

// TableGetter and TableSetter are the user bindings for a table parameter's
// element at eid; the binding itself assumes eid is already in range -- the
// Table wrapper enforces bounds before ever calling them (invariant 7).
type TableGetter func(eid wire.EID) interface{}
type TableSetter func(eid wire.EID, v interface{}) wire.ErrCode

// Table is a fixed-size (N elements), EID-indexed parameter (§4.3).
type Table struct {
	base
	get TableGetter
	set TableSetter
}

// NewTable constructs a Table of the given size. get or set may be nil.
func NewTable(meta Meta, size uint32, get TableGetter, set TableSetter) *Table {
	meta.Shape = TableShape
	meta.Size = size
	return &Table{base: base{meta: meta}, get: get, set: set}
}

func (t *Table) IGet(eid wire.EID) (wire.Type, interface{}, wire.ErrCode) {
	if uint32(eid) >= t.meta.Size {
		return t.meta.Type, wire.Default(t.meta.Type), wire.ErrEID
	}
	if t.get == nil {
		return t.meta.Type, wire.Default(t.meta.Type), wire.ErrAccess
	}
	return t.meta.Type, t.get(eid), wire.ErrNone
}

func (t *Table) ISet(eid wire.EID, typ wire.Type, v interface{}) wire.ErrCode {
	if uint32(eid) >= t.meta.Size {
		return wire.ErrEID
	}
	if typ != t.meta.Type {
		return wire.ErrType
	}
	if t.set == nil {
		return wire.ErrAccess
	}
	return t.set(eid, v)
}
