package client

import (
	"sync/atomic"

	"github.com/m-lab/paramtree/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Counters is the client engine's monotonic counter taxonomy (§4.4b,
// invariant 10): the same send/recv/deserialization/internal/good-
// transaction set the server keeps, plus the client-only categories of
// §4.4b -- a timeout, a reader-task transaction/opcode correlation
// mismatch, and a post-signal header re-validation mismatch (pid/eid/
// offset/type).
type Counters struct {
	Send            uint64
	Recv            uint64
	Deserialization uint64
	Internal        uint64
	GoodTransaction uint64

	Timeout             uint64
	TransactionMismatch uint64
	OpcodeMismatch      uint64
	PIDMismatch         uint64
	EIDMismatch         uint64
	OffsetMismatch      uint64
	TypeMismatch        uint64
}

// Snapshot is a point-in-time, non-transactional read of every counter.
func (c *Counters) Snapshot() Counters {
	return Counters{
		Send:                atomic.LoadUint64(&c.Send),
		Recv:                atomic.LoadUint64(&c.Recv),
		Deserialization:     atomic.LoadUint64(&c.Deserialization),
		Internal:            atomic.LoadUint64(&c.Internal),
		GoodTransaction:     atomic.LoadUint64(&c.GoodTransaction),
		Timeout:             atomic.LoadUint64(&c.Timeout),
		TransactionMismatch: atomic.LoadUint64(&c.TransactionMismatch),
		OpcodeMismatch:      atomic.LoadUint64(&c.OpcodeMismatch),
		PIDMismatch:         atomic.LoadUint64(&c.PIDMismatch),
		EIDMismatch:         atomic.LoadUint64(&c.EIDMismatch),
		OffsetMismatch:      atomic.LoadUint64(&c.OffsetMismatch),
		TypeMismatch:        atomic.LoadUint64(&c.TypeMismatch),
	}
}

func (c *Counters) inc(counter string, field *uint64) {
	atomic.AddUint64(field, 1)
	metrics.ClientCounters.With(prometheus.Labels{"counter": counter}).Inc()
}

func (c *Counters) incSend()                { c.inc("send", &c.Send) }
func (c *Counters) incRecv()                { c.inc("recv", &c.Recv) }
func (c *Counters) incDeserialization()     { c.inc("deserialization", &c.Deserialization) }
func (c *Counters) incInternal()            { c.inc("internal", &c.Internal) }
func (c *Counters) incGoodTransaction()     { c.inc("good_transaction", &c.GoodTransaction) }
func (c *Counters) incTimeout()             { c.inc("timeout", &c.Timeout) }
func (c *Counters) incTransactionMismatch() { c.inc("transaction_mismatch", &c.TransactionMismatch) }
func (c *Counters) incOpcodeMismatch()      { c.inc("opcode_mismatch", &c.OpcodeMismatch) }
func (c *Counters) incPIDMismatch()         { c.inc("pid_mismatch", &c.PIDMismatch) }
func (c *Counters) incEIDMismatch()         { c.inc("eid_mismatch", &c.EIDMismatch) }
func (c *Counters) incOffsetMismatch()      { c.inc("offset_mismatch", &c.OffsetMismatch) }
func (c *Counters) incTypeMismatch()        { c.inc("type_mismatch", &c.TypeMismatch) }
