// Package wire implements the cell codec: serialization of primitive
// parameter values and the opcode-tagged cells that carry them.
package wire

// Type is the single-byte tag that identifies a value's wire encoding.
type Type uint8

// Value type codes, as specified by the wire format.
const (
	Call Type = 0x00
	Bool Type = 0x01
	Str  Type = 0x02
	File Type = 0x03

	Int8  Type = 0x08
	Int16 Type = 0x09
	Int32 Type = 0x0A
	Int64 Type = 0x0B

	Uint8  Type = 0x10
	Uint16 Type = 0x11
	Uint32 Type = 0x12
	Uint64 Type = 0x13

	Float32 Type = 0x1A
	Float64 Type = 0x1B

	// Array types mirror the scalar int/uint split at +8, the same offset
	// used between the Int* and Uint* scalar blocks.
	Int8Array  Type = 0x20
	Int16Array Type = 0x21
	Int32Array Type = 0x22
	Int64Array Type = 0x23

	Uint8Array  Type = 0x28
	Uint16Array Type = 0x29
	Uint32Array Type = 0x2A
	Uint64Array Type = 0x2B

	Vec2F32 Type = 0x32
	Vec2F64 Type = 0x33
	Vec3F32 Type = 0x3A
	Vec3F64 Type = 0x3B
)

var typeNames = map[Type]string{
	Call: "call", Bool: "bool", Str: "str", File: "file",
	Int8: "i8", Int16: "i16", Int32: "i32", Int64: "i64",
	Uint8: "u8", Uint16: "u16", Uint32: "u32", Uint64: "u64",
	Float32: "f32", Float64: "f64",
	Int8Array: "i8a", Int16Array: "i16a", Int32Array: "i32a", Int64Array: "i64a",
	Uint8Array: "u8a", Uint16Array: "u16a", Uint32Array: "u32a", Uint64Array: "u64a",
	Vec2F32: "v2f32", Vec2F64: "v2f64", Vec3F32: "v3f32", Vec3F64: "v3f64",
}

// String renders the type code using the same short tokens the schema uses
// for element names (e.g. "u32", "i8a", "v3f32").
func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "unknown"
}

// IsArray reports whether t is one of the length-prefixed array types.
func (t Type) IsArray() bool {
	switch t {
	case Int8Array, Int16Array, Int32Array, Int64Array,
		Uint8Array, Uint16Array, Uint32Array, Uint64Array:
		return true
	}
	return false
}

// Valid reports whether t is a recognized wire type code.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}
