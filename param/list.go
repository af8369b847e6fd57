package param

import "github.com/m-lab/paramtree/wire"

// List is a duplicate-free, bounded (max M) collection, indexed for
// enumeration via IGet and mutated via Add/Sub (§4.3). Unlike Scalar/Table,
// the framework owns the backing storage itself -- duplicate/full/missing
// detection are core invariants (§3), not policy a user binding can get
// wrong -- and notifies the bound object only after a mutation succeeds.
type List struct {
	base
	values []interface{}
	onAdd  func(v interface{})
	onSub  func(v interface{})
}

// NewList constructs an empty List with the given capacity. onAdd/onSub
// are optional notification hooks invoked after a successful mutation;
// either may be nil.
func NewList(meta Meta, maxSize uint32, onAdd, onSub func(v interface{})) *List {
	meta.Shape = ListShape
	meta.MaxSize = maxSize
	return &List{base: base{meta: meta}, onAdd: onAdd, onSub: onSub}
}

// Len reports the current element count.
func (l *List) Len() int { return len(l.values) }

func (l *List) IGet(eid wire.EID) (wire.Type, interface{}, wire.ErrCode) {
	if l.meta.Access&Readable == 0 {
		return l.meta.Type, wire.Default(l.meta.Type), wire.ErrAccess
	}
	if uint32(eid) >= uint32(len(l.values)) {
		return l.meta.Type, wire.Default(l.meta.Type), wire.ErrEID
	}
	return l.meta.Type, l.values[eid], wire.ErrNone
}

// Add appends v, rejecting a duplicate or a list already at capacity
// (scenario S4).
func (l *List) Add(t wire.Type, v interface{}) wire.ErrCode {
	if l.meta.Access&Writable == 0 {
		return wire.ErrAccess
	}
	if t != l.meta.Type {
		return wire.ErrType
	}
	for _, existing := range l.values {
		if existing == v {
			return wire.ErrUnspec
		}
	}
	if uint32(len(l.values)) >= l.meta.MaxSize {
		return wire.ErrUnspec
	}
	l.values = append(l.values, v)
	if l.onAdd != nil {
		l.onAdd(v)
	}
	return wire.ErrNone
}

// Sub removes the first occurrence of v, or ERR_NOTFOUND if absent.
func (l *List) Sub(t wire.Type, v interface{}) wire.ErrCode {
	if l.meta.Access&Writable == 0 {
		return wire.ErrAccess
	}
	if t != l.meta.Type {
		return wire.ErrType
	}
	for i, existing := range l.values {
		if existing == v {
			l.values = append(l.values[:i], l.values[i+1:]...)
			if l.onSub != nil {
				l.onSub(v)
			}
			return wire.ErrNone
		}
	}
	return wire.ErrNotFound
}
