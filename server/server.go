// Package server implements the server engine (C4a, §4.4a): dispatching
// inbound command cells to registered parameters by PID, emitting status
// cells, maintaining the counter taxonomy, and publishing the schema file.
package server

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"os"
	"sync"

	"github.com/m-lab/paramtree/message"
	"github.com/m-lab/paramtree/param"
	"github.com/m-lab/paramtree/wire"
)

// Server owns a Device, a parameter registry, and the reserved PIDs every
// paramtree server exposes (§3: name, version, infofilecrc, infofile).
type Server struct {
	device  message.Device
	reg     *param.Registry
	name    string
	version string

	// writeMu serializes Device.Write across goroutines. Serve's own loop
	// never needs it (one goroutine, one Write at a time), but
	// QueuedServer's worker pool calls respond from several goroutines at
	// once and most Device implementations assume a single writer.
	writeMu sync.Mutex

	schemaBytes []byte
	schemaCRC   uint32

	Counters Counters

	// ReadRetryDelay is how long Serve sleeps after Device.Read returns
	// (0, nil) -- the transient-failure signal (§6). Defaults to 10ms.
	ReadRetryDelay func()
}

// New constructs a Server bound to device and reg, and registers the four
// reserved parameters (PIDs 0-3) as the first entries in reg's PID table.
// Callers must register their own parameters into reg after New returns
// and before calling Start.
func New(device message.Device, reg *param.Registry, name, version string) *Server {
	s := &Server{device: device, reg: reg, name: name, version: version}
	s.registerReserved()
	return s
}

func (s *Server) registerReserved() {
	root := s.reg.Root()
	s.reg.Register(root, param.NewScalar(
		param.Meta{Name: "name", Type: wire.Str, Access: param.Readable},
		func() interface{} { return s.name }, nil,
	))
	s.reg.Register(root, param.NewScalar(
		param.Meta{Name: "version", Type: wire.Str, Access: param.Readable},
		func() interface{} { return s.version }, nil,
	))
	s.reg.Register(root, param.NewScalar(
		param.Meta{Name: "infofilecrc", Type: wire.Uint32, Access: param.Readable},
		func() interface{} { return s.schemaCRC }, nil,
	))
	s.reg.Register(root, param.NewFile(
		param.Meta{Name: "infofile", Access: param.Readable},
		s.readSchemaFile, nil,
	))
}

func (s *Server) readSchemaFile(offset uint32, maxlen uint16) ([]byte, wire.ErrCode) {
	if int(offset) > len(s.schemaBytes) {
		return nil, wire.ErrRange
	}
	end := int(offset) + int(maxlen)
	if end > len(s.schemaBytes) {
		end = len(s.schemaBytes)
	}
	return s.schemaBytes[offset:end], wire.ErrNone
}

// DefaultSchemaPath returns the reserved schema file path for a server
// named name: "./.server-<name>.xml" (§6).
func DefaultSchemaPath(name string) string {
	return fmt.Sprintf("./.server-%s.xml", name)
}

// Start renders the schema from reg's current tree, computes its CRC-32,
// optionally writes it to schemaPath (pass "" to skip the file write), and
// freezes the registry. No parameter may be registered afterward (§3).
func (s *Server) Start(schemaPath string) error {
	var buf bytes.Buffer
	if err := param.WriteSchema(&buf, s.reg); err != nil {
		return err
	}
	s.schemaBytes = buf.Bytes()
	s.schemaCRC = crc32.ChecksumIEEE(s.schemaBytes)
	if schemaPath != "" {
		if err := os.WriteFile(schemaPath, s.schemaBytes, 0o644); err != nil {
			return err
		}
	}
	s.reg.Start()
	return nil
}

// SchemaCRC returns the schema's CRC-32, valid only after Start.
func (s *Server) SchemaCRC() uint32 { return s.schemaCRC }
