package wire

import "errors"

// Errors returned by Encode/Decode. These are local framing/codec failures,
// distinct from the protocol's wire-level ErrCode carried in status cells.
var (
	ErrShortBuffer   = errors.New("wire: buffer too short")
	ErrUnterminated  = errors.New("wire: string missing terminator")
	ErrUnknownType   = errors.New("wire: unknown type code")
	ErrWrongGoType   = errors.New("wire: value has wrong Go type for wire type")
	ErrArrayTooLong  = errors.New("wire: array exceeds uint16 length")
	ErrPayloadTooBig = errors.New("wire: payload exceeds maximum cell size")
)
