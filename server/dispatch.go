package server

import (
	"context"
	"time"

	"github.com/m-lab/paramtree/message"
	"github.com/m-lab/paramtree/metrics"
	"github.com/m-lab/paramtree/param"
	"github.com/m-lab/paramtree/wire"
)

// Serve runs the server's single dispatch loop until ctx is canceled,
// which is checked before each Device.Read (§4.4a, §5: "the server owns
// one dedicated processing thread"). A Device.Read error is counted under
// Recv and the loop reads again.
func (s *Server) Serve(ctx context.Context) error {
	retry := s.ReadRetryDelay
	if retry == nil {
		retry = func() { time.Sleep(10 * time.Millisecond) }
	}
	buf := make([]byte, message.MaxMessagePayload)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := s.device.Read(buf)
		if err != nil {
			s.Counters.incRecv()
			continue
		}
		if n == 0 {
			// Device contract: 0 signals a transient failure; sleep-and-retry
			// (§6; see also §9's open question about ThreadSleep).
			retry()
			continue
		}

		in, err := message.Unmarshal(buf[:n])
		if err != nil {
			s.Counters.incDeserialization()
			continue
		}

		s.respond(in)
	}
}

// respond processes one decoded inbound message to completion and writes
// its reply, accounting every step in Counters. It is the single-message
// unit of work both Serve's inline loop and QueuedServer's worker pool
// perform -- the two engines differ only in how a message reaches this
// point, not in how it is handled once it does.
func (s *Server) respond(in message.Message) {
	start := time.Now()
	defer func() { metrics.DispatchLatency.Observe(time.Since(start).Seconds()) }()
	out := message.Message{Transaction: in.Transaction}
	for _, cell := range in.Cells {
		stsCell, emit, stop := s.dispatch(cell)
		if emit {
			out.Cells = append(out.Cells, stsCell)
		}
		if stop {
			break
		}
	}

	encoded, err := out.MarshalBinary()
	if err != nil {
		s.Counters.incInternal()
		return
	}
	s.writeMu.Lock()
	err = message.WriteMessage(s.device, encoded)
	s.writeMu.Unlock()
	if err != nil {
		s.Counters.incSend()
		return
	}
	s.Counters.incGoodTransaction()
}

// dispatch handles one inbound cell, returning the status cell to emit
// (if any), whether to emit it, and whether to stop processing the rest of
// the message (true only for an unrecognized opcode, per §7: "Opcode
// recognition failure increments the opcode counter and stops processing
// of that message").
func (s *Server) dispatch(cell wire.Cell) (wire.Cell, bool, bool) {
	verb, ok := wire.VerbOf(cell.Opcode)
	if !ok {
		s.Counters.incOpcode()
		return wire.Cell{}, false, true
	}

	var sts wire.Opcode
	var payload []byte
	var err error

	switch verb {
	case wire.VerbCall:
		payload, err = s.handleCall(cell.Payload)
		sts = wire.CallSts
	case wire.VerbICall:
		payload, err = s.handleICall(cell.Payload)
		sts = wire.ICallSts
	case wire.VerbGet:
		payload, err = s.handleGet(cell.Payload)
		sts = wire.GetSts
	case wire.VerbIGet:
		payload, err = s.handleIGet(cell.Payload)
		sts = wire.IGetSts
	case wire.VerbSet:
		payload, err = s.handleSet(cell.Payload)
		sts = wire.SetSts
	case wire.VerbISet:
		payload, err = s.handleISet(cell.Payload)
		sts = wire.ISetSts
	case wire.VerbAdd:
		payload, err = s.handleAdd(cell.Payload)
		sts = wire.AddSts
	case wire.VerbSub:
		payload, err = s.handleSub(cell.Payload)
		sts = wire.SubSts
	case wire.VerbRead:
		payload, err = s.handleRead(cell.Payload)
		sts = wire.ReadSts
	case wire.VerbWrite:
		payload, err = s.handleWrite(cell.Payload)
		sts = wire.WriteSts
	}

	if err != nil {
		// A malformed cell payload for an otherwise recognized opcode:
		// abort this cell only, per §7 ("the offending cell is abandoned;
		// the rest of the message continues to be processed").
		s.Counters.incCell()
		return wire.Cell{}, false, false
	}
	return wire.Cell{Opcode: sts, Payload: payload}, true, false
}

func (s *Server) lookup(pid wire.PID) (param.Parameter, bool) {
	p, ok := s.reg.Lookup(pid)
	if !ok {
		s.Counters.incPID()
	}
	return p, ok
}

func (s *Server) handleCall(buf []byte) ([]byte, error) {
	cmd, err := wire.DecodeCallCmd(buf)
	if err != nil {
		return nil, err
	}
	p, ok := s.lookup(cmd.PID)
	errCode := wire.ErrPID
	if ok {
		errCode = p.Call()
	}
	return wire.CallSts{PID: cmd.PID, Err: errCode}.Encode(), nil
}

func (s *Server) handleICall(buf []byte) ([]byte, error) {
	cmd, err := wire.DecodeICallCmd(buf)
	if err != nil {
		return nil, err
	}
	p, ok := s.lookup(cmd.PID)
	errCode := wire.ErrPID
	if ok {
		errCode = p.ICall(cmd.EID)
	}
	return wire.ICallSts{PID: cmd.PID, EID: cmd.EID, Err: errCode}.Encode(), nil
}

func (s *Server) handleGet(buf []byte) ([]byte, error) {
	cmd, err := wire.DecodeGetCmd(buf)
	if err != nil {
		return nil, err
	}
	p, ok := s.lookup(cmd.PID)
	if !ok {
		return wire.GetSts{PID: cmd.PID, Type: wire.Call, Value: nil, Err: wire.ErrPID}.Encode()
	}
	typ, v, errCode := p.Get()
	return wire.GetSts{PID: cmd.PID, Type: typ, Value: v, Err: errCode}.Encode()
}

func (s *Server) handleIGet(buf []byte) ([]byte, error) {
	cmd, err := wire.DecodeIGetCmd(buf)
	if err != nil {
		return nil, err
	}
	p, ok := s.lookup(cmd.PID)
	if !ok {
		return wire.IGetSts{PID: cmd.PID, EID: cmd.EID, Type: wire.Call, Value: nil, Err: wire.ErrPID}.Encode()
	}
	typ, v, errCode := p.IGet(cmd.EID)
	return wire.IGetSts{PID: cmd.PID, EID: cmd.EID, Type: typ, Value: v, Err: errCode}.Encode()
}

func (s *Server) handleSet(buf []byte) ([]byte, error) {
	pid, typ, rest, err := wire.DecodeSetCmdHeader(buf)
	if err != nil {
		return nil, err
	}
	v, _, err := wire.Decode(rest, typ)
	if err != nil {
		return nil, err
	}
	p, ok := s.lookup(pid)
	if !ok {
		return wire.SetSts{PID: pid, Applied: false, Err: wire.ErrPID}.Encode()
	}
	errCode := p.Set(typ, v)
	return wire.SetSts{PID: pid, Applied: errCode != wire.ErrType, Type: typ, Value: v, Err: errCode}.Encode()
}

func (s *Server) handleISet(buf []byte) ([]byte, error) {
	pid, eid, typ, rest, err := wire.DecodeISetCmdHeader(buf)
	if err != nil {
		return nil, err
	}
	v, _, err := wire.Decode(rest, typ)
	if err != nil {
		return nil, err
	}
	p, ok := s.lookup(pid)
	if !ok {
		return wire.ISetSts{PID: pid, EID: eid, Applied: false, Err: wire.ErrPID}.Encode()
	}
	errCode := p.ISet(eid, typ, v)
	return wire.ISetSts{PID: pid, EID: eid, Applied: errCode != wire.ErrType, Type: typ, Value: v, Err: errCode}.Encode()
}

func (s *Server) handleAdd(buf []byte) ([]byte, error) {
	pid, typ, rest, err := wire.DecodeSetCmdHeader(buf)
	if err != nil {
		return nil, err
	}
	v, _, err := wire.Decode(rest, typ)
	if err != nil {
		return nil, err
	}
	p, ok := s.lookup(pid)
	if !ok {
		return wire.SetSts{PID: pid, Applied: false, Err: wire.ErrPID}.Encode()
	}
	errCode := p.Add(typ, v)
	return wire.SetSts{PID: pid, Applied: errCode != wire.ErrType, Type: typ, Value: v, Err: errCode}.Encode()
}

func (s *Server) handleSub(buf []byte) ([]byte, error) {
	pid, typ, rest, err := wire.DecodeSetCmdHeader(buf)
	if err != nil {
		return nil, err
	}
	v, _, err := wire.Decode(rest, typ)
	if err != nil {
		return nil, err
	}
	p, ok := s.lookup(pid)
	if !ok {
		return wire.SetSts{PID: pid, Applied: false, Err: wire.ErrPID}.Encode()
	}
	errCode := p.Sub(typ, v)
	return wire.SetSts{PID: pid, Applied: errCode != wire.ErrType, Type: typ, Value: v, Err: errCode}.Encode()
}

func (s *Server) handleRead(buf []byte) ([]byte, error) {
	cmd, err := wire.DecodeReadCmd(buf)
	if err != nil {
		return nil, err
	}
	p, ok := s.lookup(cmd.PID)
	if !ok {
		return wire.ReadSts{PID: cmd.PID, Offset: cmd.Offset, Err: wire.ErrPID}.Encode()
	}
	data, errCode := p.Read(cmd.Offset, cmd.MaxLen)
	return wire.ReadSts{PID: cmd.PID, Offset: cmd.Offset, Data: data, Err: errCode}.Encode()
}

func (s *Server) handleWrite(buf []byte) ([]byte, error) {
	cmd, err := wire.DecodeWriteCmd(buf)
	if err != nil {
		return nil, err
	}
	p, ok := s.lookup(cmd.PID)
	if !ok {
		return wire.WriteSts{PID: cmd.PID, Offset: cmd.Offset, Err: wire.ErrPID}.Encode(), nil
	}
	errCode := p.Write(cmd.Offset, cmd.Data)
	return wire.WriteSts{PID: cmd.PID, Offset: cmd.Offset, Err: errCode}.Encode(), nil
}
