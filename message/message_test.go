package message

import (
	"reflect"
	"testing"

	"github.com/m-lab/paramtree/wire"
)

func TestMessageRoundTrip(t *testing.T) {
	m := Message{
		Transaction: 0x07,
		Cells: []wire.Cell{
			{Opcode: wire.GetCmd, Payload: []byte{0, 1}},
			{Opcode: wire.SetCmd, Payload: []byte{0, 2, byte(wire.Uint8), 9}},
		},
	}
	buf, err := m.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	got, err := Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Transaction != m.Transaction {
		t.Errorf("transaction: got %d, want %d", got.Transaction, m.Transaction)
	}
	if !reflect.DeepEqual(got.Cells, m.Cells) {
		t.Errorf("cells: got %+v, want %+v", got.Cells, m.Cells)
	}
}

func TestMessagePreservesCellOrder(t *testing.T) {
	m := Message{
		Transaction: 1,
		Cells: []wire.Cell{
			{Opcode: wire.GetCmd, Payload: []byte{0, 1}},
			{Opcode: wire.GetCmd, Payload: []byte{0, 2}},
			{Opcode: wire.GetCmd, Payload: []byte{0, 3}},
		},
	}
	buf, _ := m.MarshalBinary()
	got, err := Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for i, c := range got.Cells {
		if c.Payload[1] != byte(i+1) {
			t.Fatalf("cell order not preserved at index %d: %+v", i, got.Cells)
		}
	}
}

func TestUnmarshalEmpty(t *testing.T) {
	if _, err := Unmarshal(nil); err != ErrEmptyMessage {
		t.Fatalf("got %v, want ErrEmptyMessage", err)
	}
}

func TestUnmarshalTooLarge(t *testing.T) {
	if _, err := Unmarshal(make([]byte, MaxMessagePayload+1)); err != ErrTooManyCells {
		t.Fatalf("got %v, want ErrTooManyCells", err)
	}
}

func TestNextTransactionWraps(t *testing.T) {
	if got := NextTransaction(255); got != 0 {
		t.Errorf("NextTransaction(255) = %d, want 0 (mod-256 wraparound)", got)
	}
}

// fakeDevice is an in-memory Device for exercising WriteMessage's
// short-write detection without a real transport.
type fakeDevice struct {
	written  [][]byte
	writeN   int
	writeErr error
}

func (f *fakeDevice) Read(buf []byte) (int, error) { return 0, nil }

func (f *fakeDevice) Write(buf []byte) (int, error) {
	f.written = append(f.written, buf)
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	if f.writeN != 0 {
		return f.writeN, nil
	}
	return len(buf), nil
}

func TestWriteMessageShortWrite(t *testing.T) {
	d := &fakeDevice{writeN: 2}
	if err := WriteMessage(d, []byte{1, 2, 3}); err != ErrPartialWrite {
		t.Fatalf("got %v, want ErrPartialWrite", err)
	}
}

func TestWriteMessageFull(t *testing.T) {
	d := &fakeDevice{}
	if err := WriteMessage(d, []byte{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
