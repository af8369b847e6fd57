package wire

// Opcode is the single-byte verb+direction tag that heads every cell.
type Opcode uint8

// The ten CMD/STS opcode pairs (§4.1).
const (
	CallCmd  Opcode = 0x00
	CallSts  Opcode = 0x01
	GetCmd   Opcode = 0x02
	GetSts   Opcode = 0x03
	SetCmd   Opcode = 0x04
	SetSts   Opcode = 0x05
	ICallCmd Opcode = 0x06
	ICallSts Opcode = 0x07
	IGetCmd  Opcode = 0x08
	IGetSts  Opcode = 0x09
	ISetCmd  Opcode = 0x0A
	ISetSts  Opcode = 0x0B
	AddCmd   Opcode = 0x0C
	AddSts   Opcode = 0x0D
	SubCmd   Opcode = 0x0E
	SubSts   Opcode = 0x0F
	ReadCmd  Opcode = 0x10
	ReadSts  Opcode = 0x11
	WriteCmd Opcode = 0x12
	WriteSts Opcode = 0x13
)

// IsStatus reports whether op is a status (reply) opcode rather than a
// command opcode. Every CMD opcode is even, every paired STS opcode is the
// next odd value.
func (op Opcode) IsStatus() bool { return op&1 == 1 }

// Status returns the STS opcode paired with op (a no-op if op is already STS).
func (op Opcode) Status() Opcode { return op | 1 }

// Command returns the CMD opcode paired with op (a no-op if op is already CMD).
func (op Opcode) Command() Opcode { return op &^ 1 }

var opcodeNames = map[Opcode]string{
	CallCmd: "call", CallSts: "call!",
	GetCmd: "get", GetSts: "get!",
	SetCmd: "set", SetSts: "set!",
	ICallCmd: "icall", ICallSts: "icall!",
	IGetCmd: "iget", IGetSts: "iget!",
	ISetCmd: "iset", ISetSts: "iset!",
	AddCmd: "add", AddSts: "add!",
	SubCmd: "sub", SubSts: "sub!",
	ReadCmd: "read", ReadSts: "read!",
	WriteCmd: "write", WriteSts: "write!",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "unknown"
}

// Valid reports whether op is one of the twenty recognized opcodes.
func (op Opcode) Valid() bool {
	_, ok := opcodeNames[op]
	return ok
}

// Cell is one opcode-tagged command or status unit: the payload bytes are
// opaque here, interpreted according to Opcode by the verb-specific
// encode/decode helpers in this package.
type Cell struct {
	Opcode  Opcode
	Payload []byte
}

// MarshalBinary renders c as opcode(1) | payload_len(2, BE) | payload.
func (c Cell) MarshalBinary() ([]byte, error) {
	if len(c.Payload) > MaxCellPayload {
		return nil, ErrPayloadTooBig
	}
	buf := make([]byte, 0, 3+len(c.Payload))
	buf = append(buf, byte(c.Opcode))
	buf = putU16(buf, uint16(len(c.Payload)))
	buf = append(buf, c.Payload...)
	return buf, nil
}

// ReadCell consumes one cell from the front of buf, returning the cell and
// the unconsumed remainder. A short header or a payload_len that overruns
// buf is ErrShortBuffer.
func ReadCell(buf []byte) (Cell, []byte, error) {
	if len(buf) < 3 {
		return Cell{}, buf, ErrShortBuffer
	}
	op := Opcode(buf[0])
	n, rest, err := getU16(buf[1:])
	if err != nil {
		return Cell{}, buf, err
	}
	if len(rest) < int(n) {
		return Cell{}, buf, ErrShortBuffer
	}
	return Cell{Opcode: op, Payload: rest[:n:n]}, rest[n:], nil
}
