package wire

// PID is the 16-bit parameter identifier, the wire-level key for every cell.
type PID uint16

// EID is the 32-bit element identifier selecting a row within a table or
// list parameter.
type EID uint32

// ReservedName, ReservedVersion, ReservedInfoCRC and ReservedInfoFile are the
// four PIDs the server synthesizes itself (§3).
const (
	ReservedName     PID = 0
	ReservedVersion  PID = 1
	ReservedInfoCRC  PID = 2
	ReservedInfoFile PID = 3
)

func putPID(buf []byte, pid PID) []byte { return putU16(buf, uint16(pid)) }

func getPID(buf []byte) (PID, []byte, error) {
	n, rest, err := getU16(buf)
	return PID(n), rest, err
}

func putEID(buf []byte, eid EID) []byte { return putU32(buf, uint32(eid)) }

func getEID(buf []byte) (EID, []byte, error) {
	n, rest, err := getU32(buf)
	return EID(n), rest, err
}

func putErrByte(buf []byte, e ErrCode) []byte { return append(buf, byte(e)) }

func getErrByte(buf []byte) (ErrCode, []byte, error) {
	if len(buf) < 1 {
		return ErrNone, buf, ErrShortBuffer
	}
	return ErrCode(int8(buf[0])), buf[1:], nil
}
