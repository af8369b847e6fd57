package param

import (
	"testing"

	"github.com/m-lab/paramtree/wire"
)

// TestListS4 exercises scenario S4: an int16 list with max size 2.
func TestListS4(t *testing.T) {
	l := NewList(Meta{Name: "l", Type: wire.Int16, Access: Readable | Writable}, 2, nil, nil)

	if err := l.Add(wire.Int16, int16(5)); err != wire.ErrNone {
		t.Fatalf("add 5: %v", err)
	}
	if err := l.Add(wire.Int16, int16(5)); err != wire.ErrUnspec {
		t.Fatalf("add 5 again: got %v, want ErrUnspec", err)
	}
	if err := l.Add(wire.Int16, int16(6)); err != wire.ErrNone {
		t.Fatalf("add 6: %v", err)
	}
	if err := l.Add(wire.Int16, int16(7)); err != wire.ErrUnspec {
		t.Fatalf("add 7 (full): got %v, want ErrUnspec", err)
	}
	if err := l.Sub(wire.Int16, int16(99)); err != wire.ErrNotFound {
		t.Fatalf("sub 99 (absent): got %v, want ErrNotFound", err)
	}
	if err := l.Sub(wire.Int16, int16(5)); err != wire.ErrNone {
		t.Fatalf("sub 5: %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("len after sub: got %d, want 1", l.Len())
	}
}

func TestListIGetEnumeration(t *testing.T) {
	l := NewList(Meta{Name: "l", Type: wire.Uint32, Access: Readable | Writable}, 4, nil, nil)
	l.Add(wire.Uint32, uint32(10))
	l.Add(wire.Uint32, uint32(20))

	_, v, err := l.IGet(0)
	if err != wire.ErrNone || v.(uint32) != 10 {
		t.Fatalf("iget 0: v=%v err=%v", v, err)
	}
	_, v, err = l.IGet(1)
	if err != wire.ErrNone || v.(uint32) != 20 {
		t.Fatalf("iget 1: v=%v err=%v", v, err)
	}
	if _, _, err := l.IGet(2); err != wire.ErrEID {
		t.Fatalf("iget past end: got %v, want ErrEID (client treats as end of list)", err)
	}
}

func TestListOnAddOnSubHooks(t *testing.T) {
	var added, removed []interface{}
	l := NewList(Meta{Name: "l", Type: wire.Uint8, Access: Readable | Writable}, 4,
		func(v interface{}) { added = append(added, v) },
		func(v interface{}) { removed = append(removed, v) },
	)
	l.Add(wire.Uint8, uint8(1))
	l.Sub(wire.Uint8, uint8(1))
	if len(added) != 1 || added[0].(uint8) != 1 {
		t.Errorf("onAdd not called correctly: %v", added)
	}
	if len(removed) != 1 || removed[0].(uint8) != 1 {
		t.Errorf("onSub not called correctly: %v", removed)
	}
}
