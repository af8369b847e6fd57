package client

import (
	"github.com/m-lab/paramtree/param"
	"github.com/m-lab/paramtree/wire"
)

// Stub is the client-side Parameter for one PID: every verb call is a
// blocking round trip through the owning Client rather than a local
// binding. It implements param.Parameter so the same Container/Walk/Find
// machinery the server uses for its parameter tree also drives the
// client's mirror tree (§4.3's model is shared by both sides; only the
// binding differs).
type Stub struct {
	c    *Client
	meta param.Meta
}

func newStub(c *Client, meta param.Meta) *Stub { return &Stub{c: c, meta: meta} }

func (s *Stub) Meta() param.Meta { return s.meta }

func (s *Stub) Get() (wire.Type, interface{}, wire.ErrCode) {
	return s.c.Get(s.meta.PID, s.meta.Type)
}

func (s *Stub) Set(t wire.Type, v interface{}) wire.ErrCode {
	return s.c.Set(s.meta.PID, t, v)
}

func (s *Stub) IGet(eid wire.EID) (wire.Type, interface{}, wire.ErrCode) {
	return s.c.IGet(s.meta.PID, eid, s.meta.Type)
}

func (s *Stub) ISet(eid wire.EID, t wire.Type, v interface{}) wire.ErrCode {
	return s.c.ISet(s.meta.PID, eid, t, v)
}

func (s *Stub) Add(t wire.Type, v interface{}) wire.ErrCode {
	return s.c.Add(s.meta.PID, t, v)
}

func (s *Stub) Sub(t wire.Type, v interface{}) wire.ErrCode {
	return s.c.Sub(s.meta.PID, t, v)
}

func (s *Stub) Call() wire.ErrCode {
	return s.c.Call(s.meta.PID)
}

func (s *Stub) ICall(eid wire.EID) wire.ErrCode {
	return s.c.ICall(s.meta.PID, eid)
}

func (s *Stub) Read(offset uint32, maxlen uint16) ([]byte, wire.ErrCode) {
	return s.c.Read(s.meta.PID, offset, maxlen)
}

func (s *Stub) Write(offset uint32, data []byte) wire.ErrCode {
	return s.c.Write(s.meta.PID, offset, data)
}

// buildTree mirrors a parsed schema into a Container tree of Stubs rooted
// at root, attached to c for every verb call.
func buildTree(c *Client, root *param.Container, sc *param.SchemaContainer) {
	for _, sp := range sc.Parameters {
		meta := param.Meta{
			PID:       sp.PID,
			Name:      sp.Name,
			Type:      sp.Type,
			Shape:     sp.Shape,
			Access:    sp.Access,
			Savable:   sp.Savable,
			Size:      sp.Size,
			MaxSize:   sp.MaxSize,
			ValueEnum: sp.ValueEnum,
			IndexEnum: sp.IndexEnum,
		}
		root.Add(newStub(c, meta))
	}
	for _, sub := range sc.Containers {
		buildTree(c, root.Child(sub.Name), sub)
	}
}
