package param

import (
	"testing"

	"github.com/m-lab/paramtree/wire"
)

func TestCallInvokesBinding(t *testing.T) {
	calls := 0
	c := NewCall(Meta{Name: "reset"}, func() wire.ErrCode { calls++; return wire.ErrNone })
	if err := c.Call(); err != wire.ErrNone {
		t.Fatalf("call: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestCallTableBounds(t *testing.T) {
	var lastEID wire.EID
	ct := NewCallTable(Meta{Name: "reset"}, 3, func(eid wire.EID) wire.ErrCode { lastEID = eid; return wire.ErrNone })
	if err := ct.ICall(2); err != wire.ErrNone || lastEID != 2 {
		t.Fatalf("icall in range: err=%v eid=%v", err, lastEID)
	}
	if err := ct.ICall(3); err != wire.ErrEID {
		t.Fatalf("icall out of range: got %v, want ErrEID", err)
	}
}
