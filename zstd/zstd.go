// Package zstd pipes data through the external zstd command for the
// schema-archive retention the archive package implements: each retained
// copy of a downloaded client schema is written and read back compressed,
// rather than kept as raw XML on disk.
package zstd

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
)

// Variables to allow whitebox mocking for testing error conditions.
var (
	osPipe      = os.Pipe
	zstdCommand = "zstd"
)

type waitingReadCloser struct {
	io.ReadCloser
	wg *sync.WaitGroup
}

func (r waitingReadCloser) Close() error {
	err := r.ReadCloser.Close()
	r.wg.Wait()
	return err
}

// NewReader opens filename and returns a ReadCloser streaming its
// decompressed contents through an external zstd process. Closing the
// returned reader waits for that process to exit.
func NewReader(filename string) (io.ReadCloser, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errNotFound(filename, err)
	}
	f.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	pipeR, pipeW, err := osPipe()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(zstdCommand, "-d", "-c", filename)
	cmd.Stdout = pipeW

	go func() {
		if err := cmd.Run(); err != nil {
			log.Println("zstd decompress error", filename, err)
		}
		pipeW.Close()
		wg.Done()
	}()

	return waitingReadCloser{pipeR, &wg}, nil
}

type waitingWriteCloser struct {
	io.WriteCloser
	wg *sync.WaitGroup
}

func (w waitingWriteCloser) Close() error {
	err := w.WriteCloser.Close()
	if err != nil {
		return err
	}
	w.wg.Wait()
	return nil
}

// NewWriter creates a writer piped to an external zstd process writing to
// filename. It returns a WriteCloser that pipes all writes through a zstd
// compression process. Upon Close(), the returned WriteCloser will wait for the
// zstd process to finish writing to disk.
func NewWriter(filename string) (io.WriteCloser, error) {
	var wg sync.WaitGroup
	wg.Add(1)
	pipeR, pipeW, err := osPipe()
	if err != nil {
		return nil, err
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(zstdCommand)
	cmd.Stdin = pipeR
	cmd.Stdout = f

	go func() {
		err := cmd.Run()
		if err != nil {
			log.Println("zstd compress error", filename, err)
		}
		pipeR.Close()
		wg.Done()
	}()

	return waitingWriteCloser{pipeW, &wg}, nil
}

// errNotFound wraps a missing input file with the filename for context.
func errNotFound(filename string, err error) error {
	return fmt.Errorf("zstd: %s: %w", filename, err)
}
