package wire

// Verb names one of the ten CMD/STS opcode pairs independent of direction.
type Verb uint8

const (
	VerbCall Verb = iota
	VerbGet
	VerbSet
	VerbICall
	VerbIGet
	VerbISet
	VerbAdd
	VerbSub
	VerbRead
	VerbWrite
)

var verbCmd = [...]Opcode{
	VerbCall: CallCmd, VerbGet: GetCmd, VerbSet: SetCmd, VerbICall: ICallCmd,
	VerbIGet: IGetCmd, VerbISet: ISetCmd, VerbAdd: AddCmd, VerbSub: SubCmd,
	VerbRead: ReadCmd, VerbWrite: WriteCmd,
}

// Cmd returns the command opcode for v.
func (v Verb) Cmd() Opcode { return verbCmd[v] }

// Sts returns the status opcode for v.
func (v Verb) Sts() Opcode { return verbCmd[v].Status() }

// VerbOf returns the Verb that op belongs to, regardless of direction.
func VerbOf(op Opcode) (Verb, bool) {
	cmd := op.Command()
	for v, c := range verbCmd {
		if c == cmd {
			return Verb(v), true
		}
	}
	return 0, false
}

// This file implements the payload layouts of §4.1 for each of the ten
// verbs. Every XxxCmd/XxxSts pair is a plain struct with Encode/Decode
// pairs; the cell's payload_len already bounds how much of the buffer
// belongs to the cell; nothing here needs its own length prefix at the top
// level.

// CallCmd is the payload of a `call` command cell: just a PID.
type CallCmd struct{ PID PID }

func (c CallCmd) Encode() []byte { return putPID(nil, c.PID) }

func DecodeCallCmd(buf []byte) (CallCmd, error) {
	pid, _, err := getPID(buf)
	return CallCmd{pid}, err
}

// CallSts is the reply to a `call` command.
type CallSts struct {
	PID PID
	Err ErrCode
}

func (c CallSts) Encode() []byte {
	buf := putPID(nil, c.PID)
	return putErrByte(buf, c.Err)
}

func DecodeCallSts(buf []byte) (CallSts, error) {
	pid, rest, err := getPID(buf)
	if err != nil {
		return CallSts{}, err
	}
	e, _, err := getErrByte(rest)
	return CallSts{pid, e}, err
}

// ICallCmd is `icall`: a call addressed at one element of a CallTable.
type ICallCmd struct {
	PID PID
	EID EID
}

func (c ICallCmd) Encode() []byte {
	buf := putPID(nil, c.PID)
	return putEID(buf, c.EID)
}

func DecodeICallCmd(buf []byte) (ICallCmd, error) {
	pid, rest, err := getPID(buf)
	if err != nil {
		return ICallCmd{}, err
	}
	eid, _, err := getEID(rest)
	return ICallCmd{pid, eid}, err
}

// ICallSts is the reply to `icall`.
type ICallSts struct {
	PID PID
	EID EID
	Err ErrCode
}

func (c ICallSts) Encode() []byte {
	buf := putPID(nil, c.PID)
	buf = putEID(buf, c.EID)
	return putErrByte(buf, c.Err)
}

func DecodeICallSts(buf []byte) (ICallSts, error) {
	pid, rest, err := getPID(buf)
	if err != nil {
		return ICallSts{}, err
	}
	eid, rest, err := getEID(rest)
	if err != nil {
		return ICallSts{}, err
	}
	e, _, err := getErrByte(rest)
	return ICallSts{pid, eid, e}, err
}

// GetCmd is `get`: just a PID.
type GetCmd struct{ PID PID }

func (c GetCmd) Encode() []byte { return putPID(nil, c.PID) }

func DecodeGetCmd(buf []byte) (GetCmd, error) {
	pid, _, err := getPID(buf)
	return GetCmd{pid}, err
}

// GetSts is the reply to `get`: the parameter's native type and value, and
// an error code. Type+value are always present (even on error, in which
// case Value is Default(Type)) so framing stays uniform (§4.4a).
type GetSts struct {
	PID   PID
	Type  Type
	Value interface{}
	Err   ErrCode
}

func (c GetSts) Encode() ([]byte, error) {
	buf := putPID(nil, c.PID)
	buf = append(buf, byte(c.Type))
	buf, err := Encode(buf, c.Type, c.Value)
	if err != nil {
		return nil, err
	}
	return putErrByte(buf, c.Err), nil
}

func DecodeGetSts(buf []byte) (GetSts, error) {
	pid, rest, err := getPID(buf)
	if err != nil {
		return GetSts{}, err
	}
	if len(rest) < 1 {
		return GetSts{}, ErrShortBuffer
	}
	t := Type(rest[0])
	v, rest, err := Decode(rest[1:], t)
	if err != nil {
		return GetSts{}, err
	}
	e, _, err := getErrByte(rest)
	return GetSts{pid, t, v, e}, err
}

// IGetCmd is `iget`: a get addressed at one element of a table or list.
type IGetCmd struct {
	PID PID
	EID EID
}

func (c IGetCmd) Encode() []byte {
	buf := putPID(nil, c.PID)
	return putEID(buf, c.EID)
}

func DecodeIGetCmd(buf []byte) (IGetCmd, error) {
	pid, rest, err := getPID(buf)
	if err != nil {
		return IGetCmd{}, err
	}
	eid, _, err := getEID(rest)
	return IGetCmd{pid, eid}, err
}

// IGetSts is the reply to `iget`.
type IGetSts struct {
	PID   PID
	EID   EID
	Type  Type
	Value interface{}
	Err   ErrCode
}

func (c IGetSts) Encode() ([]byte, error) {
	buf := putPID(nil, c.PID)
	buf = putEID(buf, c.EID)
	buf = append(buf, byte(c.Type))
	buf, err := Encode(buf, c.Type, c.Value)
	if err != nil {
		return nil, err
	}
	return putErrByte(buf, c.Err), nil
}

func DecodeIGetSts(buf []byte) (IGetSts, error) {
	pid, rest, err := getPID(buf)
	if err != nil {
		return IGetSts{}, err
	}
	eid, rest, err := getEID(rest)
	if err != nil {
		return IGetSts{}, err
	}
	if len(rest) < 1 {
		return IGetSts{}, ErrShortBuffer
	}
	t := Type(rest[0])
	v, rest, err := Decode(rest[1:], t)
	if err != nil {
		return IGetSts{}, err
	}
	e, _, err := getErrByte(rest)
	return IGetSts{pid, eid, t, v, e}, err
}

// SetCmd is `set`: the inbound type is whatever the caller sent, which may
// not match the parameter's native type -- the dispatcher decides that.
type SetCmd struct {
	PID   PID
	Type  Type
	Value interface{}
}

func (c SetCmd) Encode() ([]byte, error) {
	buf := putPID(nil, c.PID)
	buf = append(buf, byte(c.Type))
	return Encode(buf, c.Type, c.Value)
}

// DecodeSetCmdHeader decodes only the PID and the inbound type, returning
// the still-encoded value bytes as rest for the caller to pass to Decode.
func DecodeSetCmdHeader(buf []byte) (pid PID, t Type, rest []byte, err error) {
	pid, rest, err = getPID(buf)
	if err != nil {
		return 0, 0, buf, err
	}
	if len(rest) < 1 {
		return 0, 0, buf, ErrShortBuffer
	}
	t = Type(rest[0])
	return pid, t, rest[1:], nil
}

// DecodeSetCmd fully decodes a set command, including its value.
func DecodeSetCmd(buf []byte) (SetCmd, error) {
	pid, t, rest, err := DecodeSetCmdHeader(buf)
	if err != nil {
		return SetCmd{}, err
	}
	v, _, err := Decode(rest, t)
	if err != nil {
		return SetCmd{}, err
	}
	return SetCmd{pid, t, v}, nil
}

// SetSts is the reply to `set` (and, with identical shape, to `add`/`sub`).
// Applied is false when the inbound type did not match the parameter's
// native type: in that case Type/Value are not transmitted at all (only
// PID and Err), matching "value-or-skip depending on type mismatch".
type SetSts struct {
	PID     PID
	Applied bool
	Type    Type
	Value   interface{}
	Err     ErrCode
}

func (c SetSts) Encode() ([]byte, error) {
	buf := putPID(nil, c.PID)
	return encodeTypedOrSkip(buf, c.Applied, c.Type, c.Value, c.Err)
}

func DecodeSetSts(buf []byte) (SetSts, error) {
	pid, rest, err := getPID(buf)
	if err != nil {
		return SetSts{}, err
	}
	t, v, applied, e, err := decodeTypedOrSkip(rest)
	if err != nil {
		return SetSts{}, err
	}
	return SetSts{pid, applied, t, v, e}, nil
}

// ISetCmd is `iset`: set addressed at one element of a table or list.
type ISetCmd struct {
	PID   PID
	EID   EID
	Type  Type
	Value interface{}
}

func (c ISetCmd) Encode() ([]byte, error) {
	buf := putPID(nil, c.PID)
	buf = putEID(buf, c.EID)
	buf = append(buf, byte(c.Type))
	return Encode(buf, c.Type, c.Value)
}

func DecodeISetCmdHeader(buf []byte) (pid PID, eid EID, t Type, rest []byte, err error) {
	pid, rest, err = getPID(buf)
	if err != nil {
		return 0, 0, 0, buf, err
	}
	eid, rest, err = getEID(rest)
	if err != nil {
		return 0, 0, 0, buf, err
	}
	if len(rest) < 1 {
		return 0, 0, 0, buf, ErrShortBuffer
	}
	t = Type(rest[0])
	return pid, eid, t, rest[1:], nil
}

func DecodeISetCmd(buf []byte) (ISetCmd, error) {
	pid, eid, t, rest, err := DecodeISetCmdHeader(buf)
	if err != nil {
		return ISetCmd{}, err
	}
	v, _, err := Decode(rest, t)
	if err != nil {
		return ISetCmd{}, err
	}
	return ISetCmd{pid, eid, t, v}, nil
}

// ISetSts is the reply to `iset` (and, with identical shape, indexed
// add/sub were the protocol to ever need them -- it doesn't; add/sub are
// list-only and unindexed).
type ISetSts struct {
	PID     PID
	EID     EID
	Applied bool
	Type    Type
	Value   interface{}
	Err     ErrCode
}

func (c ISetSts) Encode() ([]byte, error) {
	buf := putPID(nil, c.PID)
	buf = putEID(buf, c.EID)
	return encodeTypedOrSkip(buf, c.Applied, c.Type, c.Value, c.Err)
}

func DecodeISetSts(buf []byte) (ISetSts, error) {
	pid, rest, err := getPID(buf)
	if err != nil {
		return ISetSts{}, err
	}
	eid, rest, err := getEID(rest)
	if err != nil {
		return ISetSts{}, err
	}
	t, v, applied, e, err := decodeTypedOrSkip(rest)
	if err != nil {
		return ISetSts{}, err
	}
	return ISetSts{pid, eid, applied, t, v, e}, nil
}

// AddCmd/AddSts and SubCmd/SubSts share SetCmd/SetSts's wire shape ("like
// set, but add-to-list"/"remove-from-list" semantics); they are distinct Go
// types only so callers can't mix up which verb they're building.
type AddCmd SetCmd
type AddSts SetSts
type SubCmd SetCmd
type SubSts SetSts

func (c AddCmd) Encode() ([]byte, error) { return SetCmd(c).Encode() }
func (c AddSts) Encode() ([]byte, error) { return SetSts(c).Encode() }
func (c SubCmd) Encode() ([]byte, error) { return SetCmd(c).Encode() }
func (c SubSts) Encode() ([]byte, error) { return SetSts(c).Encode() }

func DecodeAddCmd(buf []byte) (AddCmd, error) { c, err := DecodeSetCmd(buf); return AddCmd(c), err }
func DecodeAddSts(buf []byte) (AddSts, error) { c, err := DecodeSetSts(buf); return AddSts(c), err }
func DecodeSubCmd(buf []byte) (SubCmd, error) { c, err := DecodeSetCmd(buf); return SubCmd(c), err }
func DecodeSubSts(buf []byte) (SubSts, error) { c, err := DecodeSetSts(buf); return SubSts(c), err }

// ReadCmd is `read`: a byte-range request against a file parameter.
type ReadCmd struct {
	PID    PID
	Offset uint32
	MaxLen uint16
}

func (c ReadCmd) Encode() []byte {
	buf := putPID(nil, c.PID)
	buf = putU32(buf, c.Offset)
	return putU16(buf, c.MaxLen)
}

func DecodeReadCmd(buf []byte) (ReadCmd, error) {
	pid, rest, err := getPID(buf)
	if err != nil {
		return ReadCmd{}, err
	}
	off, rest, err := getU32(rest)
	if err != nil {
		return ReadCmd{}, err
	}
	maxlen, _, err := getU16(rest)
	return ReadCmd{pid, off, maxlen}, err
}

// ReadSts is the reply to `read`: the bytes actually read (which may be
// fewer than MaxLen to signal EOF) plus an error code.
type ReadSts struct {
	PID    PID
	Offset uint32
	Data   []byte
	Err    ErrCode
}

func (c ReadSts) Encode() ([]byte, error) {
	if len(c.Data) > 0xFFFF {
		return nil, ErrArrayTooLong
	}
	buf := putPID(nil, c.PID)
	buf = putU32(buf, c.Offset)
	buf = putU16(buf, uint16(len(c.Data)))
	buf = append(buf, c.Data...)
	return putErrByte(buf, c.Err), nil
}

func DecodeReadSts(buf []byte) (ReadSts, error) {
	pid, rest, err := getPID(buf)
	if err != nil {
		return ReadSts{}, err
	}
	off, rest, err := getU32(rest)
	if err != nil {
		return ReadSts{}, err
	}
	n, rest, err := getU16(rest)
	if err != nil {
		return ReadSts{}, err
	}
	if len(rest) < int(n) {
		return ReadSts{}, ErrShortBuffer
	}
	data := append([]byte(nil), rest[:n]...)
	rest = rest[n:]
	e, _, err := getErrByte(rest)
	return ReadSts{pid, off, data, e}, err
}

// WriteCmd is `write`: bytes to store starting at Offset.
type WriteCmd struct {
	PID    PID
	Offset uint32
	Data   []byte
}

func (c WriteCmd) Encode() ([]byte, error) {
	if len(c.Data) > 0xFFFF {
		return nil, ErrArrayTooLong
	}
	buf := putPID(nil, c.PID)
	buf = putU32(buf, c.Offset)
	buf = putU16(buf, uint16(len(c.Data)))
	return append(buf, c.Data...), nil
}

func DecodeWriteCmd(buf []byte) (WriteCmd, error) {
	pid, rest, err := getPID(buf)
	if err != nil {
		return WriteCmd{}, err
	}
	off, rest, err := getU32(rest)
	if err != nil {
		return WriteCmd{}, err
	}
	n, rest, err := getU16(rest)
	if err != nil {
		return WriteCmd{}, err
	}
	if len(rest) < int(n) {
		return WriteCmd{}, ErrShortBuffer
	}
	data := append([]byte(nil), rest[:n]...)
	return WriteCmd{pid, off, data}, nil
}

// WriteSts is the reply to `write`: no value is echoed, just where the
// write landed and whether it succeeded.
type WriteSts struct {
	PID    PID
	Offset uint32
	Err    ErrCode
}

func (c WriteSts) Encode() []byte {
	buf := putPID(nil, c.PID)
	buf = putU32(buf, c.Offset)
	return putErrByte(buf, c.Err)
}

func DecodeWriteSts(buf []byte) (WriteSts, error) {
	pid, rest, err := getPID(buf)
	if err != nil {
		return WriteSts{}, err
	}
	off, rest, err := getU32(rest)
	if err != nil {
		return WriteSts{}, err
	}
	e, _, err := getErrByte(rest)
	return WriteSts{pid, off, e}, err
}

// encodeTypedOrSkip and decodeTypedOrSkip implement the set/iset/add/sub
// status shape: either "type, value" or nothing precedes the trailing err
// byte, and the two are distinguished purely by length since a real
// type+value encoding is never zero bytes.
func encodeTypedOrSkip(buf []byte, applied bool, t Type, v interface{}, e ErrCode) ([]byte, error) {
	if !applied {
		return putErrByte(buf, e), nil
	}
	buf = append(buf, byte(t))
	buf, err := Encode(buf, t, v)
	if err != nil {
		return nil, err
	}
	return putErrByte(buf, e), nil
}

func decodeTypedOrSkip(buf []byte) (t Type, v interface{}, applied bool, e ErrCode, err error) {
	if len(buf) == 1 {
		e, _, err = getErrByte(buf)
		return 0, nil, false, e, err
	}
	if len(buf) < 2 {
		return 0, nil, false, ErrNone, ErrShortBuffer
	}
	t = Type(buf[0])
	v, rest, err := Decode(buf[1:], t)
	if err != nil {
		return 0, nil, false, ErrNone, err
	}
	e, _, err = getErrByte(rest)
	return t, v, true, e, err
}
