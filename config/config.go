// Package config implements the textual savable-parameter walker and
// importer of spec §6: a dedicated form for persisting the subset of a
// parameter tree marked savable, independent of how (or whether) a caller
// actually persists it to disk.
package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/m-lab/paramtree/param"
	"github.com/m-lab/paramtree/wire"
)

// Export walks root and writes one line per savable parameter:
//
//	container-path/name = value            (scalar, array)
//	container-path/name[eid] = value       (table; eid is its index-enum
//	                                         name when one is registered,
//	                                         else its numeric index)
//	container-path/name < value            (one line per list entry)
func Export(w io.Writer, root *param.Container) error {
	bw := bufio.NewWriter(w)
	var err error
	root.Walk(func(path string, p param.Parameter) {
		if err != nil {
			return
		}
		meta := p.Meta()
		if !meta.Savable {
			return
		}
		full := meta.Name
		if path != "" {
			full = path + "/" + meta.Name
		}
		switch meta.Shape {
		case param.ScalarShape, param.ArrayShape:
			_, v, errCode := p.Get()
			if errCode != wire.ErrNone {
				return
			}
			_, err = fmt.Fprintf(bw, "%s = %s\n", full, formatValue(v))
		case param.TableShape:
			for eid := uint32(0); eid < meta.Size && err == nil; eid++ {
				_, v, errCode := p.IGet(wire.EID(eid))
				if errCode != wire.ErrNone {
					continue
				}
				_, err = fmt.Fprintf(bw, "%s[%s] = %s\n", full, eidLabel(meta, eid), formatValue(v))
			}
		case param.ListShape:
			for eid := uint32(0); err == nil; eid++ {
				_, v, errCode := p.IGet(wire.EID(eid))
				if errCode != wire.ErrNone {
					break
				}
				_, err = fmt.Fprintf(bw, "%s < %s\n", full, formatValue(v))
			}
		}
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

func formatValue(v interface{}) string {
	return fmt.Sprintf("%v", v)
}

func eidLabel(meta param.Meta, eid uint32) string {
	if name, ok := meta.IndexEnum[eid]; ok {
		return name
	}
	return strconv.FormatUint(uint64(eid), 10)
}

func eidFromLabel(meta param.Meta, label string) (uint32, error) {
	for eid, name := range meta.IndexEnum {
		if name == label {
			return eid, nil
		}
	}
	n, err := strconv.ParseUint(label, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("config: invalid element index %q", label)
	}
	return uint32(n), nil
}

// Import parses the textual form Export produces, applying each line
// against root via Set/ISet/Add. Lines starting with '#' and blank lines
// are skipped. A line naming a path Find cannot resolve, or a malformed
// line, is reported via the returned error but does not stop the import
// of subsequent lines -- config files are hand-edited and the importer
// favors applying what it can. Array and vector values, which Export
// writes in Go's %v form, are not parsed: their lines are reported as
// errors.
func Import(r io.Reader, root *param.Container) error {
	scanner := bufio.NewScanner(r)
	var errs []string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := importLine(root, line); err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %v", lineNo, err))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %d error(s):\n%s", len(errs), strings.Join(errs, "\n"))
	}
	return nil
}

func importLine(root *param.Container, line string) error {
	switch {
	case strings.Contains(line, "<"):
		parts := strings.SplitN(line, "<", 2)
		path := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		p, ok := root.Find(path)
		if !ok {
			return fmt.Errorf("unknown parameter %q", path)
		}
		meta := p.Meta()
		v, err := ParseValue(meta, val)
		if err != nil {
			return err
		}
		if errCode := p.Add(meta.Type, v); errCode != wire.ErrNone {
			return fmt.Errorf("add %s: %s", path, errCode)
		}
		return nil

	case strings.Contains(line, "="):
		parts := strings.SplitN(line, "=", 2)
		lhs := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if idx := strings.IndexByte(lhs, '['); idx >= 0 && strings.HasSuffix(lhs, "]") {
			path := lhs[:idx]
			label := lhs[idx+1 : len(lhs)-1]
			p, ok := root.Find(path)
			if !ok {
				return fmt.Errorf("unknown parameter %q", path)
			}
			meta := p.Meta()
			eid, err := eidFromLabel(meta, label)
			if err != nil {
				return err
			}
			v, err := ParseValue(meta, val)
			if err != nil {
				return err
			}
			if errCode := p.ISet(wire.EID(eid), meta.Type, v); errCode != wire.ErrNone {
				return fmt.Errorf("iset %s[%d]: %s", path, eid, errCode)
			}
			return nil
		}
		p, ok := root.Find(lhs)
		if !ok {
			return fmt.Errorf("unknown parameter %q", lhs)
		}
		meta := p.Meta()
		v, err := ParseValue(meta, val)
		if err != nil {
			return err
		}
		if errCode := p.Set(meta.Type, v); errCode != wire.ErrNone {
			return fmt.Errorf("set %s: %s", lhs, errCode)
		}
		return nil
	}
	return fmt.Errorf("unrecognized line %q", line)
}

// ParseValue converts str into the Go representation wire.Encode expects
// for meta.Type (the same shapes wire.Default(meta.Type) returns). When
// meta carries a value enumeration (§3's literal-string input for
// value-enumerations, e.g. "on"/"off"), str is first checked against the
// enumeration's display names; a match resolves directly to the
// corresponding integer literal without going through strconv. A str that
// doesn't match any label falls through to the plain scalar parse below,
// which is then itself checked against the enumeration via
// param.CheckValueEnum, so a bare (but unlisted) numeric literal is
// rejected the same as an unrecognized label.
func ParseValue(meta param.Meta, str string) (interface{}, error) {
	if len(meta.ValueEnum) > 0 {
		for n, name := range meta.ValueEnum {
			if name == str {
				return valueEnumLiteral(meta.Type, n)
			}
		}
	}

	v, err := parseScalar(meta.Type, str)
	if err != nil {
		return nil, err
	}
	if len(meta.ValueEnum) > 0 {
		n, ok := int64Value(v)
		if !ok || !param.CheckValueEnum(meta, n) {
			return nil, fmt.Errorf("config: %q is not a value permitted by the value enumeration", str)
		}
	}
	return v, nil
}

// parseScalar converts str into the Go representation wire.Encode expects
// for t (the same shapes wire.Default(t) returns).
func parseScalar(t wire.Type, str string) (interface{}, error) {
	switch t {
	case wire.Bool:
		return strconv.ParseBool(str)
	case wire.Str:
		return str, nil
	case wire.Int8:
		n, err := strconv.ParseInt(str, 10, 8)
		return int8(n), err
	case wire.Int16:
		n, err := strconv.ParseInt(str, 10, 16)
		return int16(n), err
	case wire.Int32:
		n, err := strconv.ParseInt(str, 10, 32)
		return int32(n), err
	case wire.Int64:
		return strconv.ParseInt(str, 10, 64)
	case wire.Uint8:
		n, err := strconv.ParseUint(str, 10, 8)
		return uint8(n), err
	case wire.Uint16:
		n, err := strconv.ParseUint(str, 10, 16)
		return uint16(n), err
	case wire.Uint32:
		n, err := strconv.ParseUint(str, 10, 32)
		return uint32(n), err
	case wire.Uint64:
		return strconv.ParseUint(str, 10, 64)
	case wire.Float32:
		n, err := strconv.ParseFloat(str, 32)
		return float32(n), err
	case wire.Float64:
		return strconv.ParseFloat(str, 64)
	}
	return nil, fmt.Errorf("config: type %s has no textual form", t)
}

// valueEnumLiteral converts a value enumeration's int64 key into the Go
// representation wire.Encode expects for t. Value enumerations only make
// sense for integer-typed parameters.
func valueEnumLiteral(t wire.Type, n int64) (interface{}, error) {
	switch t {
	case wire.Int8:
		return int8(n), nil
	case wire.Int16:
		return int16(n), nil
	case wire.Int32:
		return int32(n), nil
	case wire.Int64:
		return n, nil
	case wire.Uint8:
		return uint8(n), nil
	case wire.Uint16:
		return uint16(n), nil
	case wire.Uint32:
		return uint32(n), nil
	case wire.Uint64:
		return uint64(n), nil
	}
	return nil, fmt.Errorf("config: type %s cannot carry a value enumeration", t)
}

// int64Value widens a parsed scalar back to int64 for an enumeration
// lookup; ok is false for any non-integer type.
func int64Value(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}
