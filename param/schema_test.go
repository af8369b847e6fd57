package param

import (
	"strings"
	"testing"

	"github.com/m-lab/paramtree/wire"
)

// TestSchemaS5 reproduces the shape of scenario S5: a single read-only
// string parameter named "version" under container "sys". It is the only
// parameter registered, so it gets PID 0, and the output wraps it in the
// unnamed root container.
func TestSchemaS5(t *testing.T) {
	var b strings.Builder
	reg2 := NewRegistry()
	sys2 := reg2.Root().Child("sys")
	p2 := NewScalar(Meta{Name: "version", Type: wire.Str, Access: Readable}, func() interface{} { return "1.0" }, nil)
	reg2.Register(sys2, p2)

	if err := WriteSchema(&b, reg2); err != nil {
		t.Fatalf("WriteSchema: %v", err)
	}
	want := "<cont><name></name><cont><name>sys</name>" +
		"<str><pid>0</pid><name>version</name><acc>R</acc><sav>No</sav></str>" +
		"</cont></cont>"
	if b.String() != want {
		t.Fatalf("schema =\n%s\nwant\n%s", b.String(), want)
	}
}

func TestSchemaRoundTripThroughParse(t *testing.T) {
	reg := NewRegistry()
	root := reg.Root()
	sys := root.Child("sys")
	reg.Register(sys, NewScalar(Meta{Name: "version", Type: wire.Str, Access: Readable, Savable: false}, func() interface{} { return "x" }, nil))
	reg.Register(sys, NewTable(Meta{Name: "tbl", Type: wire.Uint8, Access: Readable | Writable, Savable: true}, 4, func(wire.EID) interface{} { return uint8(0) }, func(wire.EID, interface{}) wire.ErrCode { return wire.ErrNone }))
	reg.Register(sys, NewList(Meta{Name: "lst", Type: wire.Int16, Access: Readable | Writable}, 8, nil, nil))
	reg.Register(root, NewFile(Meta{Name: "blob", Access: Readable | Writable}, nil, nil))
	reg.Register(root, NewCall(Meta{Name: "reset", Access: Writable}, nil))

	var b strings.Builder
	if err := WriteSchema(&b, reg); err != nil {
		t.Fatalf("WriteSchema: %v", err)
	}

	parsed, err := ParseSchema(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("ParseSchema: %v", err)
	}
	if len(parsed.Parameters) != 2 {
		t.Fatalf("root parameters = %d, want 2", len(parsed.Parameters))
	}
	if len(parsed.Containers) != 1 || parsed.Containers[0].Name != "sys" {
		t.Fatalf("containers = %+v", parsed.Containers)
	}
	sysParsed := parsed.Containers[0]
	if len(sysParsed.Parameters) != 3 {
		t.Fatalf("sys parameters = %d, want 3", len(sysParsed.Parameters))
	}

	byName := map[string]SchemaParam{}
	for _, p := range sysParsed.Parameters {
		byName[p.Name] = p
	}
	if byName["version"].Type != wire.Str || byName["version"].Shape != ScalarShape {
		t.Errorf("version: %+v", byName["version"])
	}
	if byName["tbl"].Shape != TableShape || byName["tbl"].Size != 4 || !byName["tbl"].Savable {
		t.Errorf("tbl: %+v", byName["tbl"])
	}
	if byName["lst"].Shape != ListShape || byName["lst"].MaxSize != 8 {
		t.Errorf("lst: %+v", byName["lst"])
	}

	byNameRoot := map[string]SchemaParam{}
	for _, p := range parsed.Parameters {
		byNameRoot[p.Name] = p
	}
	if byNameRoot["blob"].Shape != FileShape {
		t.Errorf("blob: %+v", byNameRoot["blob"])
	}
	if byNameRoot["reset"].Shape != CallShape {
		t.Errorf("reset: %+v", byNameRoot["reset"])
	}
}

func TestSchemaEnumRoundTrip(t *testing.T) {
	reg := NewRegistry()
	meta := Meta{
		Name: "mode", Type: wire.Uint32, Access: Readable | Writable,
		ValueEnum: map[int64]string{0: "off", 1: "on"},
	}
	reg.Register(reg.Root(), NewScalar(meta, func() interface{} { return uint32(0) }, func(interface{}) wire.ErrCode { return wire.ErrNone }))

	var b strings.Builder
	if err := WriteSchema(&b, reg); err != nil {
		t.Fatalf("WriteSchema: %v", err)
	}
	parsed, err := ParseSchema(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("ParseSchema: %v", err)
	}
	got := parsed.Parameters[0].ValueEnum
	if got[0] != "off" || got[1] != "on" {
		t.Fatalf("value enum round trip: %v", got)
	}
}
