// Package client implements the client engine (C4b, §4.4b): a mutual-
// exclusion request/reply driver with a dedicated reader task, transaction+
// opcode correlation, per-request timeouts, and post-signal header
// re-validation.
package client

import (
	"errors"
	"sync"
	"time"

	"github.com/m-lab/go/logx"
	"github.com/m-lab/paramtree/message"
	"github.com/m-lab/paramtree/metrics"
	"github.com/m-lab/paramtree/wire"
)

// ErrMalformedReply is returned when a reply message does not carry exactly
// one cell, which should never happen for a well-behaved server (the
// client only ever sends one command cell per message).
var ErrMalformedReply = errors.New("client: reply message did not carry exactly one cell")

var logEvery20 = logx.NewLogEvery(nil, 20*time.Second)

// Client drives one Device with strictly serialized requests: at most one
// request is outstanding at any moment (§5's "transactions are strictly
// serialized by the mutex"), so replies are correlated by transaction+
// opcode with no multiplexing.
type Client struct {
	device message.Device

	mu          sync.Mutex // serializes the request/reply cycle
	transaction byte

	Timeout time.Duration

	replies chan message.Message
	done    chan struct{}
	wg      sync.WaitGroup

	Counters Counters
}

// New constructs a Client bound to device with the given default per-
// request timeout, and starts its dedicated reader task. Call Close to
// stop the reader.
func New(device message.Device, timeout time.Duration) *Client {
	c := &Client{
		device:  device,
		Timeout: timeout,
		replies: make(chan message.Message),
		done:    make(chan struct{}),
	}
	c.wg.Add(1)
	go c.readLoop()
	return c
}

// Close stops the reader task. The underlying Device is not closed.
func (c *Client) Close() {
	close(c.done)
	c.wg.Wait()
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	buf := make([]byte, message.MaxMessagePayload)
	for {
		select {
		case <-c.done:
			return
		default:
		}
		n, err := c.device.Read(buf)
		if err != nil {
			c.Counters.incRecv()
			continue
		}
		if n == 0 {
			continue
		}
		in, err := message.Unmarshal(buf[:n])
		if err != nil {
			c.Counters.incDeserialization()
			continue
		}
		select {
		case c.replies <- in:
		case <-c.done:
			return
		}
	}
}

// call sends cmd as a fresh transaction and blocks for the matching status
// cell, applying the timeout currently configured on c. A reply whose
// transaction doesn't match the one just sent is a late reply from a prior
// timed-out call (§5's "late replies arriving afterward are discarded");
// it is counted and ignored without affecting the current wait budget.
func (c *Client) call(cmd wire.Cell) (wire.Cell, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	txn := c.transaction
	c.transaction = message.NextTransaction(c.transaction)
	wantSts := cmd.Opcode.Status()

	start := time.Now()
	out := message.Message{Transaction: txn, Cells: []wire.Cell{cmd}}
	buf, err := out.MarshalBinary()
	if err != nil {
		c.Counters.incInternal()
		return wire.Cell{}, err
	}
	if err := message.WriteMessage(c.device, buf); err != nil {
		c.Counters.incSend()
		return wire.Cell{}, err
	}

	timer := time.NewTimer(c.Timeout)
	defer timer.Stop()
	for {
		select {
		case in := <-c.replies:
			if in.Transaction != txn {
				c.Counters.incTransactionMismatch()
				continue
			}
			if len(in.Cells) != 1 {
				c.Counters.incInternal()
				return wire.Cell{}, ErrMalformedReply
			}
			if in.Cells[0].Opcode != wantSts {
				c.Counters.incOpcodeMismatch()
				logEvery20.Println("client: opcode mismatch: want", wantSts, "got", in.Cells[0].Opcode)
				continue
			}
			c.Counters.incGoodTransaction()
			metrics.RequestLatency.Observe(time.Since(start).Seconds())
			return in.Cells[0], nil
		case <-timer.C:
			c.Counters.incTimeout()
			return wire.Cell{}, wire.ErrTimeout
		}
	}
}

// --- low-level per-verb calls, PID-addressed. Each re-validates the reply
// header fields it cares about before trusting the payload (§4.4b's
// "caller's thread re-reads the reply cell's header... and compares to
// its expected values, incrementing the appropriate mismatch counter on
// deviation").

func (c *Client) Call(pid wire.PID) wire.ErrCode {
	sts, err := c.call(wire.Cell{Opcode: wire.CallCmd, Payload: wire.CallCmd{PID: pid}.Encode()})
	if err != nil {
		return toErrCode(err)
	}
	reply, err := wire.DecodeCallSts(sts.Payload)
	if err != nil {
		c.Counters.incInternal()
		return wire.ErrTransport
	}
	if reply.PID != pid {
		c.Counters.incPIDMismatch()
		return wire.ErrTransport
	}
	return reply.Err
}

func (c *Client) ICall(pid wire.PID, eid wire.EID) wire.ErrCode {
	sts, err := c.call(wire.Cell{Opcode: wire.ICallCmd, Payload: wire.ICallCmd{PID: pid, EID: eid}.Encode()})
	if err != nil {
		return toErrCode(err)
	}
	reply, err := wire.DecodeICallSts(sts.Payload)
	if err != nil {
		c.Counters.incInternal()
		return wire.ErrTransport
	}
	if reply.PID != pid {
		c.Counters.incPIDMismatch()
		return wire.ErrTransport
	}
	if reply.EID != eid {
		c.Counters.incEIDMismatch()
		return wire.ErrTransport
	}
	return reply.Err
}

// Get returns the parameter's current type and value, checked against
// want. Invariant 6: an unknown PID yields ERR_PID with Type echoed as the
// request carried none (the server synthesizes wire.Call), so callers must
// not assume Type is meaningful when Err != ErrNone for an unregistered
// PID -- the type check below is skipped in that case for the same reason
// Set/ISet only compare Type when Applied is true (§4.4b).
func (c *Client) Get(pid wire.PID, want wire.Type) (wire.Type, interface{}, wire.ErrCode) {
	sts, err := c.call(wire.Cell{Opcode: wire.GetCmd, Payload: wire.GetCmd{PID: pid}.Encode()})
	if err != nil {
		return 0, nil, toErrCode(err)
	}
	reply, err := wire.DecodeGetSts(sts.Payload)
	if err != nil {
		c.Counters.incInternal()
		return 0, nil, wire.ErrTransport
	}
	if reply.PID != pid {
		c.Counters.incPIDMismatch()
		return 0, nil, wire.ErrTransport
	}
	if reply.Err == wire.ErrNone && reply.Type != want {
		c.Counters.incTypeMismatch()
		return reply.Type, wire.Default(want), wire.ErrType
	}
	return reply.Type, reply.Value, reply.Err
}

func (c *Client) IGet(pid wire.PID, eid wire.EID, want wire.Type) (wire.Type, interface{}, wire.ErrCode) {
	sts, err := c.call(wire.Cell{Opcode: wire.IGetCmd, Payload: wire.IGetCmd{PID: pid, EID: eid}.Encode()})
	if err != nil {
		return 0, nil, toErrCode(err)
	}
	reply, err := wire.DecodeIGetSts(sts.Payload)
	if err != nil {
		c.Counters.incInternal()
		return 0, nil, wire.ErrTransport
	}
	if reply.PID != pid {
		c.Counters.incPIDMismatch()
		return 0, nil, wire.ErrTransport
	}
	if reply.EID != eid {
		c.Counters.incEIDMismatch()
		return 0, nil, wire.ErrTransport
	}
	if reply.Err == wire.ErrNone && reply.Type != want {
		c.Counters.incTypeMismatch()
		return reply.Type, wire.Default(want), wire.ErrType
	}
	return reply.Type, reply.Value, reply.Err
}

// Set sends t/v for pid. The type byte of the reply, when the set was
// applied, is compared against t before trusting the echoed value
// (§4.4b: "mismatch yields ERR_TYPE to the caller").
func (c *Client) Set(pid wire.PID, t wire.Type, v interface{}) wire.ErrCode {
	payload, err := wire.SetCmd{PID: pid, Type: t, Value: v}.Encode()
	if err != nil {
		c.Counters.incInternal()
		return wire.ErrTransport
	}
	sts, err := c.call(wire.Cell{Opcode: wire.SetCmd, Payload: payload})
	if err != nil {
		return toErrCode(err)
	}
	reply, err := wire.DecodeSetSts(sts.Payload)
	if err != nil {
		c.Counters.incInternal()
		return wire.ErrTransport
	}
	if reply.PID != pid {
		c.Counters.incPIDMismatch()
		return wire.ErrTransport
	}
	if reply.Applied && reply.Type != t {
		c.Counters.incTypeMismatch()
		return wire.ErrType
	}
	return reply.Err
}

func (c *Client) ISet(pid wire.PID, eid wire.EID, t wire.Type, v interface{}) wire.ErrCode {
	payload, err := wire.ISetCmd{PID: pid, EID: eid, Type: t, Value: v}.Encode()
	if err != nil {
		c.Counters.incInternal()
		return wire.ErrTransport
	}
	sts, err := c.call(wire.Cell{Opcode: wire.ISetCmd, Payload: payload})
	if err != nil {
		return toErrCode(err)
	}
	reply, err := wire.DecodeISetSts(sts.Payload)
	if err != nil {
		c.Counters.incInternal()
		return wire.ErrTransport
	}
	if reply.PID != pid {
		c.Counters.incPIDMismatch()
		return wire.ErrTransport
	}
	if reply.EID != eid {
		c.Counters.incEIDMismatch()
		return wire.ErrTransport
	}
	if reply.Applied && reply.Type != t {
		c.Counters.incTypeMismatch()
		return wire.ErrType
	}
	return reply.Err
}

func (c *Client) Add(pid wire.PID, t wire.Type, v interface{}) wire.ErrCode {
	payload, err := wire.AddCmd{PID: pid, Type: t, Value: v}.Encode()
	if err != nil {
		c.Counters.incInternal()
		return wire.ErrTransport
	}
	sts, err := c.call(wire.Cell{Opcode: wire.AddCmd, Payload: payload})
	if err != nil {
		return toErrCode(err)
	}
	reply, err := wire.DecodeAddSts(sts.Payload)
	if err != nil {
		c.Counters.incInternal()
		return wire.ErrTransport
	}
	if reply.PID != pid {
		c.Counters.incPIDMismatch()
		return wire.ErrTransport
	}
	return reply.Err
}

func (c *Client) Sub(pid wire.PID, t wire.Type, v interface{}) wire.ErrCode {
	payload, err := wire.SubCmd{PID: pid, Type: t, Value: v}.Encode()
	if err != nil {
		c.Counters.incInternal()
		return wire.ErrTransport
	}
	sts, err := c.call(wire.Cell{Opcode: wire.SubCmd, Payload: payload})
	if err != nil {
		return toErrCode(err)
	}
	reply, err := wire.DecodeSubSts(sts.Payload)
	if err != nil {
		c.Counters.incInternal()
		return wire.ErrTransport
	}
	if reply.PID != pid {
		c.Counters.incPIDMismatch()
		return wire.ErrTransport
	}
	return reply.Err
}

// Read issues one `read` against a file parameter's byte range.
func (c *Client) Read(pid wire.PID, offset uint32, maxlen uint16) ([]byte, wire.ErrCode) {
	sts, err := c.call(wire.Cell{Opcode: wire.ReadCmd, Payload: wire.ReadCmd{PID: pid, Offset: offset, MaxLen: maxlen}.Encode()})
	if err != nil {
		return nil, toErrCode(err)
	}
	reply, err := wire.DecodeReadSts(sts.Payload)
	if err != nil {
		c.Counters.incInternal()
		return nil, wire.ErrTransport
	}
	if reply.PID != pid {
		c.Counters.incPIDMismatch()
		return nil, wire.ErrTransport
	}
	if reply.Offset != offset {
		c.Counters.incOffsetMismatch()
		return nil, wire.ErrTransport
	}
	return reply.Data, reply.Err
}

func (c *Client) Write(pid wire.PID, offset uint32, data []byte) wire.ErrCode {
	payload, err := wire.WriteCmd{PID: pid, Offset: offset, Data: data}.Encode()
	if err != nil {
		c.Counters.incInternal()
		return wire.ErrTransport
	}
	sts, err := c.call(wire.Cell{Opcode: wire.WriteCmd, Payload: payload})
	if err != nil {
		return toErrCode(err)
	}
	reply, err := wire.DecodeWriteSts(sts.Payload)
	if err != nil {
		c.Counters.incInternal()
		return wire.ErrTransport
	}
	if reply.PID != pid {
		c.Counters.incPIDMismatch()
		return wire.ErrTransport
	}
	if reply.Offset != offset {
		c.Counters.incOffsetMismatch()
		return wire.ErrTransport
	}
	return reply.Err
}

// toErrCode maps a local call() failure (timeout, framing) onto the wire
// error taxonomy so every client-facing method returns a single ErrCode,
// per §6 ("Client callers receive a single integer error per call").
func toErrCode(err error) wire.ErrCode {
	if errors.Is(err, wire.ErrTimeout) {
		return wire.ErrTimeout
	}
	return wire.ErrTransport
}
