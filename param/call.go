package param

import "github.com/m-lab/paramtree/wire"

// CallFunc and ICallFunc carry no value; only the invocation matters.
type CallFunc func() wire.ErrCode
type ICallFunc func(eid wire.EID) wire.ErrCode

// Call is a verb-only parameter invoked without an index (§4.3).
type Call struct {
	base
	call CallFunc
}

// NewCall constructs a Call parameter.
func NewCall(meta Meta, call CallFunc) *Call {
	meta.Shape = CallShape
	meta.Type = wire.Call
	return &Call{base: base{meta: meta}, call: call}
}

func (c *Call) Call() wire.ErrCode {
	if c.call == nil {
		return wire.ErrAccess
	}
	return c.call()
}

// CallTable is a verb-only parameter invoked against one of N indices.
type CallTable struct {
	base
	icall ICallFunc
}

// NewCallTable constructs a CallTable parameter of the given size.
func NewCallTable(meta Meta, size uint32, icall ICallFunc) *CallTable {
	meta.Shape = CallTableShape
	meta.Type = wire.Call
	meta.Size = size
	return &CallTable{base: base{meta: meta}, icall: icall}
}

func (c *CallTable) ICall(eid wire.EID) wire.ErrCode {
	if uint32(eid) >= c.meta.Size {
		return wire.ErrEID
	}
	if c.icall == nil {
		return wire.ErrAccess
	}
	return c.icall(eid)
}
