// Package param implements the typed parameter/container model (§4.3): the
// tree of named containers holding parameters, each exposing only the wire
// verbs its shape permits.
package param

import "github.com/m-lab/paramtree/wire"

// Shape is the closed set of parameter kinds the model supports (§3, §4.3).
type Shape uint8

const (
	ScalarShape Shape = iota
	TableShape
	ListShape
	ArrayShape
	FileShape
	CallShape
	CallTableShape
)

var shapeNames = [...]string{
	ScalarShape:    "scalar",
	TableShape:     "table",
	ListShape:      "list",
	ArrayShape:     "array",
	FileShape:      "file",
	CallShape:      "call",
	CallTableShape: "calltable",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "unknown"
}

// Access is a bitmask of whether a parameter's value may be read and/or
// written, independent of whether a handler is actually bound -- an
// unbound getter/setter is a separate, binding-time condition (ERR_ACCESS
// at call time), not a schema-time one.
type Access uint8

const (
	Readable Access = 1 << iota
	Writable
)

func (a Access) String() string {
	switch a {
	case Readable:
		return "R"
	case Writable:
		return "W"
	case Readable | Writable:
		return "RW"
	default:
		return ""
	}
}

// Meta holds the fields every parameter shares, regardless of shape.
type Meta struct {
	PID     wire.PID
	Name    string
	Type    wire.Type
	Shape   Shape
	Access  Access
	Savable bool

	// Size is the fixed element count of a TableShape parameter.
	Size uint32
	// MaxSize is the capacity of a ListShape parameter.
	MaxSize uint32

	// ValueEnum maps a scalar/table/list element's integer value to a
	// display name; IndexEnum does the same for a table/list EID.
	ValueEnum map[int64]string
	IndexEnum map[uint32]string
}
