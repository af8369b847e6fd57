package param

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/m-lab/paramtree/wire"
)

// WriteSchema emits the server's parameter tree as the textual schema
// format described in §4.5: a tree of <cont> elements holding typed
// parameter elements, in registration order. The format is well-formed
// XML but with parameter-specific element names (e.g. <u32>, <strt>), so
// it is built by hand rather than via a struct-tagged Marshal call.
func WriteSchema(w io.Writer, reg *Registry) error {
	bw := bufio.NewWriter(w)
	writeContainer(bw, reg.Root())
	return bw.Flush()
}

func writeContainer(w *bufio.Writer, c *Container) {
	fmt.Fprintf(w, "<cont><name>%s</name>", escape(c.Name()))
	for _, p := range c.Parameters() {
		writeParameter(w, p)
	}
	for _, ch := range c.Containers() {
		writeContainer(w, ch)
	}
	fmt.Fprint(w, "</cont>")
}

func writeParameter(w *bufio.Writer, p Parameter) {
	m := p.Meta()
	tag := elementTag(m)
	fmt.Fprintf(w, "<%s><pid>%d</pid><name>%s</name><acc>%s</acc><sav>%s</sav>",
		tag, m.PID, escape(m.Name), m.Access, savStr(m.Savable))
	switch m.Shape {
	case TableShape:
		fmt.Fprintf(w, "<size>%d</size>", m.Size)
	case ListShape:
		fmt.Fprintf(w, "<maxsize>%d</maxsize>", m.MaxSize)
	case ArrayShape:
		if m.Size > 0 {
			fmt.Fprintf(w, "<maxsize>%d</maxsize>", m.Size)
		}
	case CallTableShape:
		fmt.Fprintf(w, "<size>%d</size>", m.Size)
	}
	writeIndexEnums(w, m.IndexEnum)
	writeValueEnums(w, m.ValueEnum)
	fmt.Fprintf(w, "</%s>", tag)
}

func writeIndexEnums(w *bufio.Writer, m map[uint32]string) {
	if len(m) == 0 {
		return
	}
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	fmt.Fprint(w, "<eidenums>")
	for _, k := range keys {
		fmt.Fprintf(w, "<eq>%d,%s</eq>", k, escape(m[k]))
	}
	fmt.Fprint(w, "</eidenums>")
}

func writeValueEnums(w *bufio.Writer, m map[int64]string) {
	if len(m) == 0 {
		return
	}
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	fmt.Fprint(w, "<valenums>")
	for _, k := range keys {
		fmt.Fprintf(w, "<eq>%d,%s</eq>", k, escape(m[k]))
	}
	fmt.Fprint(w, "</valenums>")
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func savStr(savable bool) string {
	if savable {
		return "Yes"
	}
	return "No"
}

// elementTag derives the schema element name for m: the type token (§3's
// short names, e.g. "u32", "str") with a shape suffix -- "t" for Table, "l"
// for List, none for Scalar/Array/vector -- except File and Call/CallTable,
// whose element is always <file>/<call> regardless of type.
func elementTag(m Meta) string {
	switch m.Shape {
	case FileShape:
		return "file"
	case CallShape, CallTableShape:
		return "call"
	case TableShape:
		return m.Type.String() + "t"
	case ListShape:
		return m.Type.String() + "l"
	default:
		return m.Type.String()
	}
}

// SchemaParam is one parameter entry as parsed from a downloaded schema --
// metadata only, with no binding, used to build the client's typed stub.
type SchemaParam struct {
	PID     wire.PID
	Name    string
	Type    wire.Type
	Shape   Shape
	Access  Access
	Savable bool
	Size    uint32
	MaxSize uint32

	IndexEnum map[uint32]string
	ValueEnum map[int64]string
}

// SchemaContainer mirrors Container but holds SchemaParam entries instead
// of live bindings.
type SchemaContainer struct {
	Name       string
	Parameters []SchemaParam
	Containers []*SchemaContainer
}

// ParseSchema reads the textual format WriteSchema produces. Tag names are
// data (they encode a parameter's type and shape), so this walks
// xml.Decoder's token stream directly rather than unmarshaling into a
// fixed struct.
func ParseSchema(r io.Reader) (*SchemaContainer, error) {
	dec := xml.NewDecoder(r)
	var root *SchemaContainer
	stack := []*SchemaContainer{}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "cont" {
				c := &SchemaContainer{}
				if len(stack) > 0 {
					parent := stack[len(stack)-1]
					parent.Containers = append(parent.Containers, c)
				} else {
					root = c
				}
				name, err := readChildText(dec, "name")
				if err != nil {
					return nil, err
				}
				c.Name = name
				stack = append(stack, c)
				continue
			}
			p, err := parseParamElement(dec, t.Name.Local)
			if err != nil {
				return nil, err
			}
			if len(stack) == 0 {
				return nil, fmt.Errorf("param: parameter %q outside any container", p.Name)
			}
			cur := stack[len(stack)-1]
			cur.Parameters = append(cur.Parameters, p)
		case xml.EndElement:
			if t.Name.Local == "cont" {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return root, nil
}

// readChildText reads one <name>text</name>-shaped leaf element. The next
// token must be the leaf's own StartElement, named want.
func readChildText(dec *xml.Decoder, want string) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	start, ok := tok.(xml.StartElement)
	if !ok || start.Name.Local != want {
		return "", fmt.Errorf("param: expected <%s>, got %v", want, tok)
	}
	return readCharData(dec)
}

func readCharData(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			return b.String(), nil
		}
	}
}

// parseParamElement parses one typed parameter element, given its already-
// consumed start tag name (e.g. "u32", "strt", "file").
func parseParamElement(dec *xml.Decoder, tag string) (SchemaParam, error) {
	shape, typeTok := tagShape(tag)
	typ, _ := typeFromToken(typeTok)
	p := SchemaParam{Shape: shape, Type: typ}
	for {
		tok, err := dec.Token()
		if err != nil {
			return p, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pid":
				s, err := readCharData(dec)
				if err != nil {
					return p, err
				}
				n, _ := strconv.ParseUint(s, 10, 16)
				p.PID = wire.PID(n)
			case "name":
				s, err := readCharData(dec)
				if err != nil {
					return p, err
				}
				p.Name = s
			case "acc":
				s, err := readCharData(dec)
				if err != nil {
					return p, err
				}
				p.Access = parseAccess(s)
			case "sav":
				s, err := readCharData(dec)
				if err != nil {
					return p, err
				}
				p.Savable = s == "Yes"
			case "size":
				s, err := readCharData(dec)
				if err != nil {
					return p, err
				}
				n, _ := strconv.ParseUint(s, 10, 32)
				p.Size = uint32(n)
				if shape == CallShape {
					p.Shape = CallTableShape
				}
			case "maxsize":
				s, err := readCharData(dec)
				if err != nil {
					return p, err
				}
				n, _ := strconv.ParseUint(s, 10, 32)
				if shape == ArrayShape {
					p.Size = uint32(n)
				} else {
					p.MaxSize = uint32(n)
				}
			case "eidenums":
				m, err := parseEnums(dec, "eidenums")
				if err != nil {
					return p, err
				}
				p.IndexEnum = map[uint32]string{}
				for k, v := range m {
					n, _ := strconv.ParseUint(k, 10, 32)
					p.IndexEnum[uint32(n)] = v
				}
			case "valenums":
				m, err := parseEnums(dec, "valenums")
				if err != nil {
					return p, err
				}
				p.ValueEnum = map[int64]string{}
				for k, v := range m {
					n, _ := strconv.ParseInt(k, 10, 64)
					p.ValueEnum[n] = v
				}
			default:
				// Unknown child: skip its text so the decoder stays aligned.
				readCharData(dec)
			}
		case xml.EndElement:
			if t.Name.Local == tag {
				return p, nil
			}
		}
	}
}

func parseEnums(dec *xml.Decoder, closeTag string) (map[string]string, error) {
	out := map[string]string{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "eq" {
				s, err := readCharData(dec)
				if err != nil {
					return nil, err
				}
				parts := strings.SplitN(s, ",", 2)
				if len(parts) == 2 {
					out[parts[0]] = parts[1]
				}
			}
		case xml.EndElement:
			if t.Name.Local == closeTag {
				return out, nil
			}
		}
	}
}

func parseAccess(s string) Access {
	switch s {
	case "R":
		return Readable
	case "W":
		return Writable
	case "RW":
		return Readable | Writable
	default:
		return 0
	}
}

// tagShape splits an element tag into its shape and underlying type token.
func tagShape(tag string) (Shape, string) {
	switch tag {
	case "file":
		return FileShape, "file"
	case "call":
		return CallShape, "call"
	}
	if typ, ok := typeFromToken(tag); ok {
		if typ.IsArray() {
			return ArrayShape, tag
		}
		return ScalarShape, tag
	}
	if strings.HasSuffix(tag, "t") {
		return TableShape, strings.TrimSuffix(tag, "t")
	}
	if strings.HasSuffix(tag, "l") {
		return ListShape, strings.TrimSuffix(tag, "l")
	}
	return ScalarShape, tag
}

var tokenToType map[string]wire.Type

func init() {
	tokenToType = map[string]wire.Type{
		"call": wire.Call, "bool": wire.Bool, "str": wire.Str, "file": wire.File,
		"i8": wire.Int8, "i16": wire.Int16, "i32": wire.Int32, "i64": wire.Int64,
		"u8": wire.Uint8, "u16": wire.Uint16, "u32": wire.Uint32, "u64": wire.Uint64,
		"f32": wire.Float32, "f64": wire.Float64,
		"i8a": wire.Int8Array, "i16a": wire.Int16Array, "i32a": wire.Int32Array, "i64a": wire.Int64Array,
		"u8a": wire.Uint8Array, "u16a": wire.Uint16Array, "u32a": wire.Uint32Array, "u64a": wire.Uint64Array,
		"v2f32": wire.Vec2F32, "v2f64": wire.Vec2F64, "v3f32": wire.Vec3F32, "v3f64": wire.Vec3F64,
	}
}

func typeFromToken(tok string) (wire.Type, bool) {
	t, ok := tokenToType[tok]
	return t, ok
}
