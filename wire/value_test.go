package wire

import (
	"reflect"
	"testing"

	"github.com/go-test/deep"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		val  interface{}
	}{
		{"bool-true", Bool, true},
		{"bool-false", Bool, false},
		{"str-empty", Str, ""},
		{"str", Str, "hello world"},
		{"int8-neg", Int8, int8(-5)},
		{"uint8", Uint8, uint8(200)},
		{"int16-neg", Int16, int16(-1000)},
		{"uint16", Uint16, uint16(65000)},
		{"int32-neg", Int32, int32(-70000)},
		{"uint32", Uint32, uint32(4000000000)},
		{"int64-neg", Int64, int64(-1) << 40},
		{"uint64", Uint64, uint64(1) << 63},
		{"float32", Float32, float32(3.5)},
		{"float64", Float64, float64(-2.25)},
		{"int8-array-empty", Int8Array, []int8{}},
		{"int8-array", Int8Array, []int8{1, -2, 3}},
		{"uint8-array", Uint8Array, []uint8{1, 2, 3, 255}},
		{"int16-array", Int16Array, []int16{-1, 2, -3}},
		{"uint16-array", Uint16Array, []uint16{1, 2, 3}},
		{"int32-array", Int32Array, []int32{-1, 2, -3}},
		{"uint32-array", Uint32Array, []uint32{1, 2, 3}},
		{"int64-array", Int64Array, []int64{-1, 2, -3}},
		{"uint64-array", Uint64Array, []uint64{1, 2, 3}},
		{"vec2f32", Vec2F32, [2]float32{1.5, -2.5}},
		{"vec2f64", Vec2F64, [2]float64{1.5, -2.5}},
		{"vec3f32", Vec3F32, [3]float32{1, 2, 3}},
		{"vec3f64", Vec3F64, [3]float64{1, 2, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf, err := Encode(nil, tc.typ, tc.val)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, rest, err := Decode(buf, tc.typ)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(rest) != 0 {
				t.Fatalf("leftover bytes: %v", rest)
			}
			if diff := deep.Equal(got, tc.val); diff != nil {
				t.Errorf("round trip mismatch: %v", diff)
			}
		})
	}
}

func TestEncodeWrongGoType(t *testing.T) {
	if _, err := Encode(nil, Uint32, "not a uint32"); err == nil {
		t.Fatal("expected error for mismatched Go type")
	}
}

func TestDecodeStrUnterminated(t *testing.T) {
	_, _, err := Decode([]byte("no terminator"), Str)
	if err != ErrUnterminated {
		t.Fatalf("got %v, want ErrUnterminated", err)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	_, _, err := Decode([]byte{0x01}, Uint32)
	if err != ErrShortBuffer {
		t.Fatalf("got %v, want ErrShortBuffer", err)
	}
}

func TestArrayTypeCodesMirrorScalarOffset(t *testing.T) {
	// Int*Array sits at the same +8 offset from Uint*Array as the scalar
	// Int* block sits from Uint*.
	if Uint8Array-Int8Array != Uint8-Int8 {
		t.Fatalf("array offset %d != scalar offset %d", Uint8Array-Int8Array, Uint8-Int8)
	}
}

func TestDefaultMatchesDecodeGoType(t *testing.T) {
	for _, typ := range []Type{Bool, Str, Int8, Uint8, Int16, Uint16, Int32, Uint32,
		Int64, Uint64, Float32, Float64, Int8Array, Uint8Array, Int16Array,
		Uint16Array, Int32Array, Uint32Array, Int64Array, Uint64Array,
		Vec2F32, Vec2F64, Vec3F32, Vec3F64} {
		def := Default(typ)
		buf, err := Encode(nil, typ, def)
		if err != nil {
			t.Fatalf("%s: Encode(Default): %v", typ, err)
		}
		got, _, err := Decode(buf, typ)
		if err != nil {
			t.Fatalf("%s: Decode: %v", typ, err)
		}
		if !reflect.DeepEqual(got, def) {
			t.Errorf("%s: Default/Decode mismatch: %v != %v", typ, got, def)
		}
	}
}

func TestCellMarshalReadRoundTrip(t *testing.T) {
	c := Cell{Opcode: GetSts, Payload: []byte{0, 1, 2, 3}}
	buf, err := c.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	got, rest, err := ReadCell(buf)
	if err != nil {
		t.Fatalf("ReadCell: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("leftover: %v", rest)
	}
	if got.Opcode != c.Opcode || !reflect.DeepEqual(got.Payload, c.Payload) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, c)
	}
}

func TestCellPayloadTooBig(t *testing.T) {
	c := Cell{Opcode: GetSts, Payload: make([]byte, MaxCellPayload+1)}
	if _, err := c.MarshalBinary(); err != ErrPayloadTooBig {
		t.Fatalf("got %v, want ErrPayloadTooBig", err)
	}
}

func TestReadCellShortHeader(t *testing.T) {
	_, _, err := ReadCell([]byte{0x01})
	if err != ErrShortBuffer {
		t.Fatalf("got %v, want ErrShortBuffer", err)
	}
}

func TestReadCellMultipleInSequence(t *testing.T) {
	c1 := Cell{Opcode: GetCmd, Payload: []byte{0, 1}}
	c2 := Cell{Opcode: SetCmd, Payload: []byte{2, 3, 4}}
	b1, _ := c1.MarshalBinary()
	b2, _ := c2.MarshalBinary()
	buf := append(b1, b2...)

	got1, rest, err := ReadCell(buf)
	if err != nil {
		t.Fatalf("ReadCell 1: %v", err)
	}
	got2, rest, err := ReadCell(rest)
	if err != nil {
		t.Fatalf("ReadCell 2: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("leftover: %v", rest)
	}
	if got1.Opcode != c1.Opcode || got2.Opcode != c2.Opcode {
		t.Fatalf("opcode order not preserved: %v, %v", got1.Opcode, got2.Opcode)
	}
}
