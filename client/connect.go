package client

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"os"
	"time"

	"github.com/m-lab/paramtree/message"
	"github.com/m-lab/paramtree/param"
	"github.com/m-lab/paramtree/wire"
)

// schemaChunk is the number of file bytes requested per `read` during
// schema download: the cell payload budget minus the read-status header
// overhead (pid(2) + offset(4) + len(2) + err(1) = 9 bytes), per §4.4b.
const schemaChunk = wire.MaxCellPayload - 9

// schemaRetries is the number of additional attempts a single schema-
// download chunk gets on timeout before the download gives up (§4.4b:
// "two additional tries on timeout before surfacing the error").
const schemaRetries = 2

// Session is a bootstrapped client connection: the low-level Client, the
// server's identity, and a mirror Container tree of typed stubs built from
// its downloaded schema.
type Session struct {
	*Client
	Name       string
	Version    string
	SchemaCRC  uint32
	SchemaXML  []byte
	Root       *param.Container
}

// DefaultSchemaPath returns the reserved client-side cache path for a
// server named name: "./.client-<name>.xml" (§6).
func DefaultSchemaPath(name string) string {
	return fmt.Sprintf("./.client-%s.xml", name)
}

// Bootstrap performs the connection bootstrap of §4.4b: it reads the
// server's name/version/schema-CRC, compares against the schema file at
// cachedSchemaPath (DefaultSchemaPath(name) when cachedSchemaPath is ""),
// downloads the schema and rewrites that file only when it is missing or
// its CRC differs, and builds the mirror Container tree.
func Bootstrap(device message.Device, timeout time.Duration, cachedSchemaPath string) (*Session, error) {
	c := New(device, timeout)

	_, nameVal, errCode := c.Get(wire.ReservedName, wire.Str)
	if errCode != wire.ErrNone {
		c.Close()
		return nil, fmt.Errorf("client: get name: %s", errCode)
	}
	name, _ := nameVal.(string)

	_, versionVal, errCode := c.Get(wire.ReservedVersion, wire.Str)
	if errCode != wire.ErrNone {
		c.Close()
		return nil, fmt.Errorf("client: get version: %s", errCode)
	}
	version, _ := versionVal.(string)

	_, crcVal, errCode := c.Get(wire.ReservedInfoCRC, wire.Uint32)
	if errCode != wire.ErrNone {
		c.Close()
		return nil, fmt.Errorf("client: get infofilecrc: %s", errCode)
	}
	serverCRC, _ := crcVal.(uint32)

	path := cachedSchemaPath
	if path == "" {
		path = DefaultSchemaPath(name)
	}
	var schemaXML []byte
	if cached, err := os.ReadFile(path); err == nil && crc32.ChecksumIEEE(cached) == serverCRC {
		schemaXML = cached
	}
	if schemaXML == nil {
		downloaded, err := downloadSchema(c)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("client: schema download: %w", err)
		}
		schemaXML = downloaded
		_ = os.WriteFile(path, schemaXML, 0o644)
	}

	parsed, err := param.ParseSchema(bytes.NewReader(schemaXML))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("client: parse schema: %w", err)
	}

	root := param.NewRoot()
	buildTree(c, root, parsed)

	return &Session{
		Client:    c,
		Name:      name,
		Version:   version,
		SchemaCRC: serverCRC,
		SchemaXML: schemaXML,
		Root:      root,
	}, nil
}

// downloadSchema streams PID 3 (infofile) in schemaChunk-byte reads until a
// short read signals EOF, retrying each chunk up to schemaRetries extra
// times on ERR_TIMEOUT.
func downloadSchema(c *Client) ([]byte, error) {
	var buf bytes.Buffer
	var offset uint32
	for {
		var data []byte
		var errCode wire.ErrCode
		for attempt := 0; attempt <= schemaRetries; attempt++ {
			data, errCode = c.Read(wire.ReservedInfoFile, offset, schemaChunk)
			if errCode != wire.ErrTimeout {
				break
			}
		}
		if errCode != wire.ErrNone {
			return nil, fmt.Errorf("read infofile at offset %d: %s", offset, errCode)
		}
		buf.Write(data)
		offset += uint32(len(data))
		if len(data) < schemaChunk {
			break
		}
	}
	return buf.Bytes(), nil
}

// Connect wraps Bootstrap with the reconnect-with-backoff retry loop
// recovered from hcclient.cc: the original retries the initial bootstrap
// with a capped backoff when the transport isn't ready yet. maxRetries=0
// reproduces the spec's plain single-shot bootstrap.
func Connect(device message.Device, timeout time.Duration, cachedSchemaPath string, maxRetries int, backoff time.Duration) (*Session, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			if backoff < time.Minute {
				backoff *= 2
			}
		}
		sess, err := Bootstrap(device, timeout, cachedSchemaPath)
		if err == nil {
			return sess, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
