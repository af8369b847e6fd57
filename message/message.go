package message

import (
	"errors"

	"github.com/m-lab/paramtree/wire"
)

// ErrTooManyCells and ErrEmptyMessage guard against malformed input that
// Unmarshal would otherwise spin on.
var (
	ErrTooManyCells = errors.New("message: payload exceeds MaxMessagePayload")
	ErrEmptyMessage = errors.New("message: missing transaction byte")
)

// Message is one transaction's worth of cells: the single leading byte that
// correlates a reply with its request, followed by an ordered sequence of
// cells (§4.2). Order is significant -- a client matches replies to
// requests positionally within the cell sequence it sent.
type Message struct {
	Transaction byte
	Cells       []wire.Cell
}

// MarshalBinary renders m as transaction(1) | cell | cell | ...
func (m Message) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, MaxMessagePayload)
	buf = append(buf, m.Transaction)
	for _, c := range m.Cells {
		enc, err := c.MarshalBinary()
		if err != nil {
			return nil, err
		}
		buf = append(buf, enc...)
	}
	if len(buf) > MaxMessagePayload {
		return nil, ErrTooManyCells
	}
	return buf, nil
}

// Unmarshal parses a full message out of buf, which must contain exactly
// one message (the shape Device.Read delivers). Cells are returned in wire
// order.
func Unmarshal(buf []byte) (Message, error) {
	if len(buf) < 1 {
		return Message{}, ErrEmptyMessage
	}
	if len(buf) > MaxMessagePayload {
		return Message{}, ErrTooManyCells
	}
	m := Message{Transaction: buf[0]}
	rest := buf[1:]
	for len(rest) > 0 {
		var c wire.Cell
		var err error
		c, rest, err = wire.ReadCell(rest)
		if err != nil {
			return Message{}, err
		}
		m.Cells = append(m.Cells, c)
	}
	return m, nil
}

// NextTransaction advances a client's monotonic transaction counter,
// wrapping modulo 256 (§4.2's "1-byte transaction counter").
func NextTransaction(prev byte) byte { return prev + 1 }
