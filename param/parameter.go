package param

import "github.com/m-lab/paramtree/wire"

// Parameter is the thin interface every shape answers (§9's "deep virtual
// hierarchy -> tagged variants" note): a concrete shape overrides only the
// verbs it permits; base returns ErrType for the rest, matching "shape-
// specific verbs return ERR_TYPE on wrong-shape parameters".
type Parameter interface {
	Meta() Meta

	Get() (wire.Type, interface{}, wire.ErrCode)
	Set(t wire.Type, v interface{}) wire.ErrCode

	IGet(eid wire.EID) (wire.Type, interface{}, wire.ErrCode)
	ISet(eid wire.EID, t wire.Type, v interface{}) wire.ErrCode

	Add(t wire.Type, v interface{}) wire.ErrCode
	Sub(t wire.Type, v interface{}) wire.ErrCode

	Call() wire.ErrCode
	ICall(eid wire.EID) wire.ErrCode

	Read(offset uint32, maxlen uint16) ([]byte, wire.ErrCode)
	Write(offset uint32, data []byte) wire.ErrCode
}

// base implements Parameter with every verb failing ERR_TYPE; concrete
// shapes embed base and override only what their shape supports.
type base struct {
	meta Meta
}

func (b *base) Meta() Meta { return b.meta }

// setPID is invoked by Registry.Register at registration time; it is
// unexported because a parameter's PID must never change once assigned.
func (b *base) setPID(pid wire.PID) { b.meta.PID = pid }

func (b *base) Get() (wire.Type, interface{}, wire.ErrCode) {
	return b.meta.Type, wire.Default(b.meta.Type), wire.ErrType
}
func (b *base) Set(wire.Type, interface{}) wire.ErrCode { return wire.ErrType }

func (b *base) IGet(wire.EID) (wire.Type, interface{}, wire.ErrCode) {
	return b.meta.Type, wire.Default(b.meta.Type), wire.ErrType
}
func (b *base) ISet(wire.EID, wire.Type, interface{}) wire.ErrCode { return wire.ErrType }

func (b *base) Add(wire.Type, interface{}) wire.ErrCode { return wire.ErrType }
func (b *base) Sub(wire.Type, interface{}) wire.ErrCode { return wire.ErrType }

func (b *base) Call() wire.ErrCode          { return wire.ErrType }
func (b *base) ICall(wire.EID) wire.ErrCode { return wire.ErrType }

func (b *base) Read(uint32, uint16) ([]byte, wire.ErrCode) { return nil, wire.ErrType }
func (b *base) Write(uint32, []byte) wire.ErrCode          { return wire.ErrType }

// CheckValueEnum reports whether v is permitted by meta's value
// enumeration. An empty (nil) enumeration permits any value; this is not a
// wire error, just a display-layer convenience, so it never itself
// produces ERR_RANGE -- callers that want to enforce it do so explicitly.
func CheckValueEnum(meta Meta, v int64) bool {
	if len(meta.ValueEnum) == 0 {
		return true
	}
	_, ok := meta.ValueEnum[v]
	return ok
}
