package client

import (
	"sync"
	"testing"
	"time"

	"github.com/m-lab/paramtree/message"
	"github.com/m-lab/paramtree/wire"
)

// fakeDevice is an in-memory Device. reply, when set, computes the status
// cell for an inbound message; when nil, Read blocks forever (simulating a
// server that never replies, for the timeout scenario).
type fakeDevice struct {
	mu    sync.Mutex
	sent  chan []byte
	recv  chan []byte
	reply func(message.Message) message.Message
}

func newFakeDevice(reply func(message.Message) message.Message) *fakeDevice {
	return &fakeDevice{sent: make(chan []byte, 4), recv: make(chan []byte, 4), reply: reply}
}

func (f *fakeDevice) Write(buf []byte) (int, error) {
	cp := append([]byte(nil), buf...)
	go func() {
		msg, err := message.Unmarshal(cp)
		if err != nil {
			return
		}
		f.mu.Lock()
		reply := f.reply
		f.mu.Unlock()
		if reply == nil {
			return // never reply: simulates S6
		}
		out := reply(msg)
		encoded, err := out.MarshalBinary()
		if err != nil {
			return
		}
		f.recv <- encoded
	}()
	return len(buf), nil
}

func (f *fakeDevice) Read(buf []byte) (int, error) {
	data := <-f.recv
	return copy(buf, data), nil
}

// TestClientS1 round-trips a get/set/get through Client against a scripted
// uint32 scalar server.
func TestClientS1(t *testing.T) {
	var cell uint32
	dev := newFakeDevice(func(in message.Message) message.Message {
		out := message.Message{Transaction: in.Transaction}
		switch in.Cells[0].Opcode {
		case wire.GetCmd:
			payload, _ := wire.GetSts{PID: 10, Type: wire.Uint32, Value: cell, Err: wire.ErrNone}.Encode()
			out.Cells = []wire.Cell{{Opcode: wire.GetSts, Payload: payload}}
		case wire.SetCmd:
			cmd, _ := wire.DecodeSetCmd(in.Cells[0].Payload)
			cell = cmd.Value.(uint32)
			payload, _ := wire.SetSts{PID: 10, Applied: true, Type: wire.Uint32, Value: cell, Err: wire.ErrNone}.Encode()
			out.Cells = []wire.Cell{{Opcode: wire.SetSts, Payload: payload}}
		}
		return out
	})
	c := New(dev, time.Second)
	defer c.Close()

	_, v, errCode := c.Get(10, wire.Uint32)
	if errCode != wire.ErrNone || v.(uint32) != 0 {
		t.Fatalf("initial get: %v %v", v, errCode)
	}
	if errCode := c.Set(10, wire.Uint32, uint32(42)); errCode != wire.ErrNone {
		t.Fatalf("set: %v", errCode)
	}
	_, v, errCode = c.Get(10, wire.Uint32)
	if errCode != wire.ErrNone || v.(uint32) != 42 {
		t.Fatalf("get after set: %v %v", v, errCode)
	}
}

// TestClientS6 reproduces scenario S6: a server that never replies causes
// Get to return ERR_TIMEOUT after >=100ms, incrementing Timeout by
// exactly one, and a subsequent successful request still works once the
// server starts responding.
func TestClientS6(t *testing.T) {
	dev := newFakeDevice(nil)
	c := New(dev, 100*time.Millisecond)
	defer c.Close()

	start := time.Now()
	_, _, errCode := c.Get(5, wire.Str)
	elapsed := time.Since(start)
	if errCode != wire.ErrTimeout {
		t.Fatalf("got %v, want ErrTimeout", errCode)
	}
	if elapsed < 100*time.Millisecond {
		t.Fatalf("returned after %v, want >= 100ms", elapsed)
	}
	if got := c.Counters.Snapshot().Timeout; got != 1 {
		t.Fatalf("Timeout counter = %d, want 1", got)
	}

	// Server "comes back": install a reply function and retry.
	dev.mu.Lock()
	dev.reply = func(in message.Message) message.Message {
		payload, _ := wire.GetSts{PID: 5, Type: wire.Str, Value: "ok", Err: wire.ErrNone}.Encode()
		return message.Message{Transaction: in.Transaction, Cells: []wire.Cell{{Opcode: wire.GetSts, Payload: payload}}}
	}
	dev.mu.Unlock()

	_, v, errCode := c.Get(5, wire.Str)
	if errCode != wire.ErrNone || v.(string) != "ok" {
		t.Fatalf("get after recovery: %v %v", v, errCode)
	}
}

// TestClientGetTypeMismatch reproduces §4.4b's type re-validation: a reply
// whose Type doesn't match what the caller asked for yields ERR_TYPE and a
// default-initialized value, even though the server's own Err was ErrNone.
func TestClientGetTypeMismatch(t *testing.T) {
	dev := newFakeDevice(func(in message.Message) message.Message {
		payload, _ := wire.GetSts{PID: 10, Type: wire.Str, Value: "surprise", Err: wire.ErrNone}.Encode()
		return message.Message{Transaction: in.Transaction, Cells: []wire.Cell{{Opcode: wire.GetSts, Payload: payload}}}
	})
	c := New(dev, time.Second)
	defer c.Close()

	_, v, errCode := c.Get(10, wire.Uint32)
	if errCode != wire.ErrType {
		t.Fatalf("got %v, want ErrType", errCode)
	}
	if v.(uint32) != 0 {
		t.Fatalf("got value %v, want the zero value for Uint32", v)
	}
	if got := c.Counters.Snapshot().TypeMismatch; got != 1 {
		t.Fatalf("TypeMismatch counter = %d, want 1", got)
	}
}

// TestClientConcurrentCallsSerialize reproduces invariant 9: concurrent
// calls from two goroutines on the same client observe serialized,
// correctly matched replies.
func TestClientConcurrentCallsSerialize(t *testing.T) {
	dev := newFakeDevice(func(in message.Message) message.Message {
		cmd, _ := wire.DecodeGetCmd(in.Cells[0].Payload)
		payload, _ := wire.GetSts{PID: cmd.PID, Type: wire.Uint32, Value: uint32(cmd.PID), Err: wire.ErrNone}.Encode()
		return message.Message{Transaction: in.Transaction, Cells: []wire.Cell{{Opcode: wire.GetSts, Payload: payload}}}
	})
	c := New(dev, time.Second)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(pid wire.PID) {
			defer wg.Done()
			_, v, errCode := c.Get(pid, wire.Uint32)
			if errCode != wire.ErrNone {
				t.Errorf("pid %d: %v", pid, errCode)
				return
			}
			if v.(uint32) != uint32(pid) {
				t.Errorf("pid %d got cross-talk value %v", pid, v)
			}
		}(wire.PID(i))
	}
	wg.Wait()
}
