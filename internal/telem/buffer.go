package telem

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TickBuffer is a writable raw variable buffer laid out per a schema. The
// replay source and tests use it to synthesise the per-tick blob a live
// simulator would refresh; the decode path only ever sees its Bytes.
type TickBuffer struct {
	schema *VariableSchema
	buf    []byte
}

// NewTickBuffer allocates a zeroed buffer sized for the schema.
func NewTickBuffer(schema *VariableSchema) *TickBuffer {
	return &TickBuffer{schema: schema, buf: make([]byte, schema.BufferSize())}
}

// SetFloat writes a numeric value, encoding per the variable's declared type.
func (b *TickBuffer) SetFloat(name string, value float64) error {
	v, ok := b.schema.Lookup(name)
	if !ok {
		return fmt.Errorf("telem: no variable %q in schema", name)
	}
	switch v.Type {
	case VarFloat:
		binary.LittleEndian.PutUint32(b.buf[v.Offset:], math.Float32bits(float32(value)))
	case VarDouble:
		binary.LittleEndian.PutUint64(b.buf[v.Offset:], math.Float64bits(value))
	case VarInt:
		binary.LittleEndian.PutUint32(b.buf[v.Offset:], uint32(int32(value)))
	case VarChar:
		b.buf[v.Offset] = byte(int32(value))
	default:
		return fmt.Errorf("telem: variable %q is %s, not numeric", name, v.Type)
	}
	return nil
}

// SetInt writes an integer value.
func (b *TickBuffer) SetInt(name string, value int32) error {
	v, ok := b.schema.Lookup(name)
	if !ok {
		return fmt.Errorf("telem: no variable %q in schema", name)
	}
	switch v.Type {
	case VarInt, VarBitField:
		binary.LittleEndian.PutUint32(b.buf[v.Offset:], uint32(value))
	case VarChar:
		b.buf[v.Offset] = byte(value)
	default:
		return fmt.Errorf("telem: variable %q is %s, not integer", name, v.Type)
	}
	return nil
}

// SetBits writes raw bits into a bitfield variable.
func (b *TickBuffer) SetBits(name string, bits uint32) error {
	v, ok := b.schema.Lookup(name)
	if !ok {
		return fmt.Errorf("telem: no variable %q in schema", name)
	}
	if v.Type != VarBitField && v.Type != VarInt {
		return fmt.Errorf("telem: variable %q is %s, not a bitfield", name, v.Type)
	}
	binary.LittleEndian.PutUint32(b.buf[v.Offset:], bits)
	return nil
}

// SetBool writes a boolean value.
func (b *TickBuffer) SetBool(name string, value bool) error {
	v, ok := b.schema.Lookup(name)
	if !ok {
		return fmt.Errorf("telem: no variable %q in schema", name)
	}
	if v.Type != VarBool {
		return fmt.Errorf("telem: variable %q is %s, not bool", name, v.Type)
	}
	if value {
		b.buf[v.Offset] = 1
	} else {
		b.buf[v.Offset] = 0
	}
	return nil
}

// Bytes returns the underlying buffer. Callers treat it as read-only.
func (b *TickBuffer) Bytes() []byte { return b.buf }
