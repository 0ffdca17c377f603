package telem

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FieldTable is the validated, offset-resolved decode plan for one frame type
// on one connection. It is immutable after Validate and may be shared by any
// number of concurrent Decode calls.
type FieldTable[F any] struct {
	spec    string
	steps   []func(*F, []byte)
	minSize int
}

// Validate resolves the spec against a live schema. Required and bit-backed
// fields must reference an existing, type-compatible variable; optional and
// default fields tolerate absence unless FailIfMissing was declared. The
// returned table bakes every variable's byte offset into its decode step, so
// per-frame decoding performs no name lookups.
func (s *FrameSpec[F]) Validate(schema *VariableSchema) (*FieldTable[F], error) {
	t := &FieldTable[F]{spec: s.name, steps: make([]func(*F, []byte), 0, len(s.fields))}

	for i := range s.fields {
		f := &s.fields[i]
		switch f.kind {
		case KindSkipped:
			continue
		case KindComputed:
			compute := f.compute
			t.steps = append(t.steps, func(dst *F, _ []byte) { compute(dst) })
			continue
		}

		v, ok := schema.Lookup(f.variable)
		if !ok {
			if f.kind == KindRequired || f.kind == KindBitHas || f.kind == KindBitMap || f.failIfMissing {
				return nil, &SchemaError{
					Spec:     s.name,
					Field:    f.field,
					Variable: f.variable,
					Reason:   "not present in live schema",
				}
			}
			t.steps = append(t.steps, absentStep(f))
			continue
		}

		step, err := presentStep(f, v)
		if err != nil {
			return nil, &SchemaError{Spec: s.name, Field: f.field, Variable: f.variable, Reason: err.Error()}
		}
		t.steps = append(t.steps, step)
		if end := v.end(); end > t.minSize {
			t.minSize = end
		}
	}
	return t, nil
}

// Decode produces one frame from a raw tick buffer. The only per-frame check
// is a single buffer-length comparison; everything else is straight-line
// offset reads through the resolved steps.
func (t *FieldTable[F]) Decode(buf []byte) (F, error) {
	var frame F
	if len(buf) < t.minSize {
		return frame, &DecodeError{
			Spec:   t.spec,
			Reason: fmt.Sprintf("tick buffer is %d bytes, field table needs %d", len(buf), t.minSize),
		}
	}
	for _, step := range t.steps {
		step(&frame, buf)
	}
	return frame, nil
}

// MinBufferSize returns the smallest tick buffer Decode accepts.
func (t *FieldTable[F]) MinBufferSize() int { return t.minSize }

// absentStep builds the decode step for a tolerated-absent variable.
func absentStep[F any](f *fieldSpec[F]) func(*F, []byte) {
	switch f.kind {
	case KindOptional:
		switch {
		case f.assignNumOpt != nil:
			assign := f.assignNumOpt
			return func(dst *F, _ []byte) { assign(dst, 0, false) }
		case f.assignIntOpt != nil:
			assign := f.assignIntOpt
			return func(dst *F, _ []byte) { assign(dst, 0, false) }
		}
	case KindDefault:
		assign, def := f.assignNum, f.def
		return func(dst *F, _ []byte) { assign(dst, def) }
	}
	return func(*F, []byte) {}
}

// presentStep builds the decode step for a variable found in the schema,
// checking type compatibility and capturing the offset.
func presentStep[F any](f *fieldSpec[F], v Variable) (func(*F, []byte), error) {
	off := v.Offset
	switch f.kind {
	case KindRequired, KindDefault:
		switch {
		case f.assignNum != nil:
			read, err := numericReader(v)
			if err != nil {
				return nil, err
			}
			assign := f.assignNum
			return func(dst *F, buf []byte) { assign(dst, read(buf)) }, nil
		case f.assignInt != nil:
			if v.Type != VarInt && v.Type != VarChar && v.Type != VarBitField {
				return nil, fmt.Errorf("declared as %s, integer binding needs int, char or bitfield", v.Type)
			}
			assign := f.assignInt
			if v.Type == VarChar {
				return func(dst *F, buf []byte) { assign(dst, int32(buf[off])) }, nil
			}
			return func(dst *F, buf []byte) {
				assign(dst, int32(binary.LittleEndian.Uint32(buf[off:])))
			}, nil
		case f.assignBool != nil:
			if v.Type != VarBool {
				return nil, fmt.Errorf("declared as %s, boolean binding needs bool", v.Type)
			}
			assign := f.assignBool
			return func(dst *F, buf []byte) { assign(dst, buf[off] != 0) }, nil
		}
	case KindOptional:
		switch {
		case f.assignNumOpt != nil:
			read, err := numericReader(v)
			if err != nil {
				return nil, err
			}
			assign := f.assignNumOpt
			return func(dst *F, buf []byte) { assign(dst, read(buf), true) }, nil
		case f.assignIntOpt != nil:
			if v.Type != VarInt && v.Type != VarChar && v.Type != VarBitField {
				return nil, fmt.Errorf("declared as %s, integer binding needs int, char or bitfield", v.Type)
			}
			assign := f.assignIntOpt
			if v.Type == VarChar {
				return func(dst *F, buf []byte) { assign(dst, int32(buf[off]), true) }, nil
			}
			return func(dst *F, buf []byte) {
				assign(dst, int32(binary.LittleEndian.Uint32(buf[off:])), true)
			}, nil
		}
	case KindBitHas:
		if v.Type != VarBitField && v.Type != VarInt {
			return nil, fmt.Errorf("declared as %s, bit binding needs bitfield or int", v.Type)
		}
		assign, mask := f.assignBool, f.mask
		return func(dst *F, buf []byte) {
			assign(dst, binary.LittleEndian.Uint32(buf[off:])&mask != 0)
		}, nil
	case KindBitMap:
		if v.Type != VarBitField && v.Type != VarInt {
			return nil, fmt.Errorf("declared as %s, bit binding needs bitfield or int", v.Type)
		}
		assign := f.assignBits
		return func(dst *F, buf []byte) {
			assign(dst, binary.LittleEndian.Uint32(buf[off:]), true)
		}, nil
	}
	return nil, fmt.Errorf("field has no assign closure for kind %s", f.kind)
}

// numericReader returns an offset-bound reader converting the variable's raw
// element to float64.
func numericReader(v Variable) (func([]byte) float64, error) {
	off := v.Offset
	switch v.Type {
	case VarFloat:
		return func(buf []byte) float64 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])))
		}, nil
	case VarDouble:
		return func(buf []byte) float64 {
			return math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
		}, nil
	case VarInt:
		return func(buf []byte) float64 {
			return float64(int32(binary.LittleEndian.Uint32(buf[off:])))
		}, nil
	case VarChar:
		return func(buf []byte) float64 { return float64(buf[off]) }, nil
	}
	return nil, fmt.Errorf("declared as %s, numeric binding needs float, double, int or char", v.Type)
}
