package wire

// ErrCode is the single-byte error code carried in every status cell. It is
// part of the wire protocol, distinct from the Go errors this package
// itself returns for local codec/framing failures.
type ErrCode int8

// The wire-level error taxonomy shared by server and client (§6).
const (
	ErrNone ErrCode = iota
	ErrAccess
	ErrType
	ErrPID
	ErrEID
	ErrRange
	ErrNotFound
	ErrOverflow
	ErrUnspec
	ErrTimeout
	ErrTransport
)

var errCodeNames = [...]string{
	ErrNone:      "NONE",
	ErrAccess:    "ACCESS",
	ErrType:      "TYPE",
	ErrPID:       "PID",
	ErrEID:       "EID",
	ErrRange:     "RANGE",
	ErrNotFound:  "NOTFOUND",
	ErrOverflow:  "OVERFLOW",
	ErrUnspec:    "UNSPEC",
	ErrTimeout:   "TIMEOUT",
	ErrTransport: "TRANSPORT",
}

func (e ErrCode) String() string {
	if int(e) >= 0 && int(e) < len(errCodeNames) {
		return errCodeNames[e]
	}
	return "UNKNOWN"
}

// Error implements the error interface so an ErrCode can be returned
// directly from client-facing APIs that want Go-idiomatic error handling.
func (e ErrCode) Error() string {
	return "paramtree: " + e.String()
}
