package param

import (
	"testing"

	"github.com/m-lab/paramtree/wire"
)

func TestContainerFindAndPath(t *testing.T) {
	root := NewRoot()
	sys := root.Child("sys")
	p := NewScalar(Meta{Name: "version", Type: wire.Str, Access: Readable}, func() interface{} { return "1.0" }, nil)
	sys.Add(p)

	if got := sys.Path(); got != "/sys" {
		t.Errorf("Path() = %q, want /sys", got)
	}
	found, ok := root.Find("/sys/version")
	if !ok || found.Meta().Name != "version" {
		t.Fatalf("Find: ok=%v found=%v", ok, found)
	}
	if _, ok := root.Find("/sys/missing"); ok {
		t.Fatal("Find found a parameter that doesn't exist")
	}
}

func TestContainerDuplicateChildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate child container")
		}
	}()
	root := NewRoot()
	root.Child("sys")
	root.Child("sys")
}

func TestContainerDuplicateParameterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate parameter name")
		}
	}()
	root := NewRoot()
	root.Add(NewScalar(Meta{Name: "x", Type: wire.Uint8}, nil, nil))
	root.Add(NewScalar(Meta{Name: "x", Type: wire.Uint8}, nil, nil))
}

func TestWalkVisitsInRegistrationOrder(t *testing.T) {
	root := NewRoot()
	root.Add(NewScalar(Meta{Name: "a", Type: wire.Uint8}, nil, nil))
	sub := root.Child("sub")
	sub.Add(NewScalar(Meta{Name: "b", Type: wire.Uint8}, nil, nil))
	root.Add(NewScalar(Meta{Name: "c", Type: wire.Uint8}, nil, nil))

	var order []string
	root.Walk(func(path string, p Parameter) { order = append(order, path+"/"+p.Meta().Name) })
	want := []string{"/a", "/c", "/sub/b"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
