package param

import (
	"testing"

	"github.com/m-lab/paramtree/wire"
)

func TestRegistryAssignsSequentialPIDs(t *testing.T) {
	r := NewRegistry()
	p1 := NewScalar(Meta{Name: "a", Type: wire.Uint8}, nil, nil)
	p2 := NewScalar(Meta{Name: "b", Type: wire.Uint8}, nil, nil)

	pid1, err := r.Register(r.Root(), p1)
	if err != nil || pid1 != 0 {
		t.Fatalf("pid1=%v err=%v", pid1, err)
	}
	pid2, err := r.Register(r.Root(), p2)
	if err != nil || pid2 != 1 {
		t.Fatalf("pid2=%v err=%v", pid2, err)
	}
	if p1.Meta().PID != 0 || p2.Meta().PID != 1 {
		t.Fatalf("parameter metadata PID not updated: %v, %v", p1.Meta().PID, p2.Meta().PID)
	}
	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}
}

func TestRegistryFreezeAfterStart(t *testing.T) {
	r := NewRegistry()
	r.Start()
	_, err := r.Register(r.Root(), NewScalar(Meta{Name: "x", Type: wire.Uint8}, nil, nil))
	if err != ErrAlreadyStarted {
		t.Fatalf("got %v, want ErrAlreadyStarted", err)
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	p := NewScalar(Meta{Name: "a", Type: wire.Uint8}, nil, nil)
	pid, _ := r.Register(r.Root(), p)

	got, ok := r.Lookup(pid)
	if !ok || got != Parameter(p) {
		t.Fatalf("Lookup: got %v, ok %v", got, ok)
	}
	if _, ok := r.Lookup(pid + 1); ok {
		t.Fatal("Lookup succeeded for unregistered PID")
	}
}
