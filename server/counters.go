package server

import (
	"sync/atomic"

	"github.com/m-lab/paramtree/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Counters is the server engine's monotonic counter taxonomy (§4.4a,
// §5, invariant 10). Fields are updated with atomic adds by the goroutines
// that read and dispatch messages (Serve's single loop, or a QueuedServer's
// reader and workers); Snapshot reads them with atomic loads, which are
// individually atomic but not jointly transactional.
type Counters struct {
	Send            uint64
	Recv            uint64
	Deserialization uint64
	Cell            uint64
	Opcode          uint64
	PID             uint64
	Internal        uint64
	GoodTransaction uint64
}

// Snapshot is a point-in-time, non-transactional read of every counter.
func (c *Counters) Snapshot() Counters {
	return Counters{
		Send:            atomic.LoadUint64(&c.Send),
		Recv:            atomic.LoadUint64(&c.Recv),
		Deserialization: atomic.LoadUint64(&c.Deserialization),
		Cell:            atomic.LoadUint64(&c.Cell),
		Opcode:          atomic.LoadUint64(&c.Opcode),
		PID:             atomic.LoadUint64(&c.PID),
		Internal:        atomic.LoadUint64(&c.Internal),
		GoodTransaction: atomic.LoadUint64(&c.GoodTransaction),
	}
}

func (c *Counters) incSend()            { atomic.AddUint64(&c.Send, 1); metrics.ServerCounters.With(prometheus.Labels{"counter": "send"}).Inc() }
func (c *Counters) incRecv()            { atomic.AddUint64(&c.Recv, 1); metrics.ServerCounters.With(prometheus.Labels{"counter": "recv"}).Inc() }
func (c *Counters) incDeserialization() {
	atomic.AddUint64(&c.Deserialization, 1)
	metrics.ServerCounters.With(prometheus.Labels{"counter": "deserialization"}).Inc()
}
func (c *Counters) incCell()   { atomic.AddUint64(&c.Cell, 1); metrics.ServerCounters.With(prometheus.Labels{"counter": "cell"}).Inc() }
func (c *Counters) incOpcode() { atomic.AddUint64(&c.Opcode, 1); metrics.ServerCounters.With(prometheus.Labels{"counter": "opcode"}).Inc() }
func (c *Counters) incPID()    { atomic.AddUint64(&c.PID, 1); metrics.ServerCounters.With(prometheus.Labels{"counter": "pid"}).Inc() }
func (c *Counters) incInternal() {
	atomic.AddUint64(&c.Internal, 1)
	metrics.ServerCounters.With(prometheus.Labels{"counter": "internal"}).Inc()
}
func (c *Counters) incGoodTransaction() {
	atomic.AddUint64(&c.GoodTransaction, 1)
	metrics.ServerCounters.With(prometheus.Labels{"counter": "good_transaction"}).Inc()
}
