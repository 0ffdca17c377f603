// Package telem implements the telemetry variable schema and the two-phase
// frame binding mechanism: a FrameSpec declares how a struct's fields map onto
// named simulator variables, Validate resolves that declaration against a live
// schema exactly once per connection, and the resulting FieldTable decodes raw
// tick buffers with pure offset arithmetic (no name lookups per frame).
package telem

import (
	"fmt"
	"sort"
)

// VarType identifies the element type of a telemetry variable as declared by
// the simulator.
type VarType int

const (
	VarChar VarType = iota
	VarBool
	VarInt
	VarBitField
	VarFloat
	VarDouble
)

// Size returns the element size in bytes.
func (t VarType) Size() int {
	switch t {
	case VarChar, VarBool:
		return 1
	case VarInt, VarBitField, VarFloat:
		return 4
	case VarDouble:
		return 8
	}
	return 0
}

func (t VarType) String() string {
	switch t {
	case VarChar:
		return "char"
	case VarBool:
		return "bool"
	case VarInt:
		return "int"
	case VarBitField:
		return "bitfield"
	case VarFloat:
		return "float"
	case VarDouble:
		return "double"
	}
	return fmt.Sprintf("vartype(%d)", int(t))
}

// Variable describes one named signal in the simulator's tick buffer.
type Variable struct {
	Name        string
	Type        VarType
	Offset      int // byte offset into the tick buffer
	Count       int // element count (arrays); bindings read element 0
	Unit        string
	Description string
}

func (v Variable) end() int {
	count := v.Count
	if count < 1 {
		count = 1
	}
	return v.Offset + v.Type.Size()*count
}

// VariableSchema is the set of variables a data source currently exposes.
// It is immutable after construction and safe for concurrent reads.
type VariableSchema struct {
	vars    map[string]Variable
	bufSize int
}

// NewVariableSchema builds a schema from explicit variable declarations.
// Duplicate names are rejected; the buffer size is derived from the highest
// variable extent.
func NewVariableSchema(vars []Variable) (*VariableSchema, error) {
	m := make(map[string]Variable, len(vars))
	size := 0
	for _, v := range vars {
		if v.Name == "" {
			return nil, fmt.Errorf("telem: variable with empty name at offset %d", v.Offset)
		}
		if _, dup := m[v.Name]; dup {
			return nil, fmt.Errorf("telem: duplicate variable %q", v.Name)
		}
		if v.Type.Size() == 0 {
			return nil, fmt.Errorf("telem: variable %q has unknown type", v.Name)
		}
		m[v.Name] = v
		if end := v.end(); end > size {
			size = end
		}
	}
	return &VariableSchema{vars: m, bufSize: size}, nil
}

// Lookup returns the variable with the given name, if present.
func (s *VariableSchema) Lookup(name string) (Variable, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Len returns the number of variables in the schema.
func (s *VariableSchema) Len() int { return len(s.vars) }

// BufferSize returns the expected tick buffer length in bytes.
func (s *VariableSchema) BufferSize() int { return s.bufSize }

// Names returns the variable names in lexical order.
func (s *VariableSchema) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SchemaBuilder lays out a synthetic schema with sequential offsets. It is
// used by the replay source and by tests; live sources declare offsets as
// published by the simulator.
type SchemaBuilder struct {
	vars []Variable
	next int
}

func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{}
}

// Add appends a scalar variable at the next free offset.
func (b *SchemaBuilder) Add(name string, typ VarType) *SchemaBuilder {
	b.vars = append(b.vars, Variable{Name: name, Type: typ, Offset: b.next, Count: 1})
	b.next += typ.Size()
	return b
}

// Build finalises the layout.
func (b *SchemaBuilder) Build() (*VariableSchema, error) {
	return NewVariableSchema(b.vars)
}
