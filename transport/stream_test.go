package transport

import (
	"bytes"
	"io"
	"testing"
)

// pipeRW joins a Stream's Write output back into its own Read input, so a
// single Stream round-trips frames without a real socket or line.
type pipeRW struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func newLoopback() *Stream {
	pr, pw := io.Pipe()
	return NewStream(&pipeRW{r: pr, w: pw})
}

func (p *pipeRW) Read(buf []byte) (int, error)  { return p.r.Read(buf) }
func (p *pipeRW) Write(buf []byte) (int, error) { return p.w.Write(buf) }

func TestStreamRoundTrip(t *testing.T) {
	s := newLoopback()
	msgs := [][]byte{
		[]byte("hello"),
		{0xC0, 0xDB, 0x01, 0xC0}, // contains both special bytes
		{0x00},
		bytes.Repeat([]byte{0xDB}, 16),
	}

	done := make(chan error, 1)
	go func() {
		for _, m := range msgs {
			if _, err := s.Write(m); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for i, want := range msgs {
		buf := make([]byte, 64)
		n, err := s.Read(buf)
		if err != nil {
			t.Fatalf("msg %d: Read: %v", i, err)
		}
		if !bytes.Equal(buf[:n], want) {
			t.Fatalf("msg %d: got %v, want %v", i, buf[:n], want)
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestStreamFrameTooLarge(t *testing.T) {
	s := newLoopback()
	go s.Write(bytes.Repeat([]byte{0x42}, 10))

	buf := make([]byte, 4)
	if _, err := s.Read(buf); err != ErrFrameTooLarge {
		t.Fatalf("got %v, want ErrFrameTooLarge", err)
	}
}

// TestStreamMalformedEscapeResyncs writes a frame with an invalid escape
// sequence directly onto the wire (bypassing Write, which never produces
// one), followed by a well-formed frame, and checks Read recovers the
// second frame intact. Without draining the rest of the malformed frame to
// its terminating END byte, the leftover bytes ("\x99\xC0" below) would be
// misread as the start of the next frame instead.
func TestStreamMalformedEscapeResyncs(t *testing.T) {
	s := newLoopback()
	underlying := s.rw.(*pipeRW)

	done := make(chan error, 1)
	go func() {
		if _, err := underlying.Write([]byte{0xDB, 0x41, 0x99, slipEnd}); err != nil {
			done <- err
			return
		}
		_, err := s.Write([]byte("ok"))
		done <- err
	}()

	buf := make([]byte, 64)
	n, err := s.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(buf[:n], []byte("ok")) {
		t.Fatalf("got %q, want %q (malformed frame should have been drained, not leaked into this one)", buf[:n], "ok")
	}
	if err := <-done; err != nil {
		t.Fatalf("Write: %v", err)
	}
}
