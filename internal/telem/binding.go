package telem

// Kind selects the decode policy for one bound field.
type Kind int

const (
	// KindRequired reads the variable every frame; validation fails when the
	// variable is absent from the live schema.
	KindRequired Kind = iota
	// KindOptional reads the variable when present and reports absence to the
	// assign closure instead of erroring.
	KindOptional
	// KindDefault substitutes a configured fallback value when the variable
	// is absent.
	KindDefault
	// KindComputed ignores the tick buffer and evaluates an injected pure
	// function on every frame.
	KindComputed
	// KindSkipped leaves the field at its zero value for the caller to fill.
	KindSkipped
	// KindBitHas reads the backing integer variable and assigns
	// (raw & mask) != 0.
	KindBitHas
	// KindBitMap reads the backing integer variable and hands the raw bits to
	// an injected decode closure.
	KindBitMap
)

func (k Kind) String() string {
	switch k {
	case KindRequired:
		return "required"
	case KindOptional:
		return "optional"
	case KindDefault:
		return "default"
	case KindComputed:
		return "computed"
	case KindSkipped:
		return "skipped"
	case KindBitHas:
		return "bit-has"
	case KindBitMap:
		return "bit-map"
	}
	return "unknown"
}

// fieldSpec is one field declaration inside a FrameSpec. Exactly one assign
// closure is non-nil, matching the kind.
type fieldSpec[F any] struct {
	field         string
	variable      string
	kind          Kind
	failIfMissing bool
	def           float64
	mask          uint32

	assignNum    func(*F, float64)
	assignNumOpt func(*F, float64, bool)
	assignInt    func(*F, int32)
	assignIntOpt func(*F, int32, bool)
	assignBool   func(*F, bool)
	assignBits   func(*F, uint32, bool)
	compute      func(*F)
}

// FrameSpec declares how the fields of a frame struct F bind to named
// telemetry variables. Declare once at startup, then call Validate against a
// connection's live schema to obtain the FieldTable used for decoding.
type FrameSpec[F any] struct {
	name   string
	fields []fieldSpec[F]
}

// NewFrameSpec creates an empty spec. The name appears in error messages.
func NewFrameSpec[F any](name string) *FrameSpec[F] {
	return &FrameSpec[F]{name: name}
}

// Name returns the spec's name.
func (s *FrameSpec[F]) Name() string { return s.name }

// Float binds a required numeric variable (float, double or int element
// types) to a float64 field.
func (s *FrameSpec[F]) Float(field, variable string, assign func(*F, float64)) *FrameSpec[F] {
	s.fields = append(s.fields, fieldSpec[F]{
		field: field, variable: variable, kind: KindRequired, assignNum: assign,
	})
	return s
}

// FloatOpt binds a numeric variable whose absence is tolerated; the assign
// closure receives ok=false when the variable is missing from the schema.
func (s *FrameSpec[F]) FloatOpt(field, variable string, assign func(*F, float64, bool)) *FrameSpec[F] {
	s.fields = append(s.fields, fieldSpec[F]{
		field: field, variable: variable, kind: KindOptional, assignNumOpt: assign,
	})
	return s
}

// FloatOr binds a numeric variable with a fallback value used when the
// variable is absent from the schema.
func (s *FrameSpec[F]) FloatOr(field, variable string, def float64, assign func(*F, float64)) *FrameSpec[F] {
	s.fields = append(s.fields, fieldSpec[F]{
		field: field, variable: variable, kind: KindDefault, def: def, assignNum: assign,
	})
	return s
}

// Int binds a required integer variable to an int32 field.
func (s *FrameSpec[F]) Int(field, variable string, assign func(*F, int32)) *FrameSpec[F] {
	s.fields = append(s.fields, fieldSpec[F]{
		field: field, variable: variable, kind: KindRequired, assignInt: assign,
	})
	return s
}

// IntOpt binds an integer variable whose absence is tolerated.
func (s *FrameSpec[F]) IntOpt(field, variable string, assign func(*F, int32, bool)) *FrameSpec[F] {
	s.fields = append(s.fields, fieldSpec[F]{
		field: field, variable: variable, kind: KindOptional, assignIntOpt: assign,
	})
	return s
}

// Bool binds a required boolean variable.
func (s *FrameSpec[F]) Bool(field, variable string, assign func(*F, bool)) *FrameSpec[F] {
	s.fields = append(s.fields, fieldSpec[F]{
		field: field, variable: variable, kind: KindRequired, assignBool: assign,
	})
	return s
}

// BitHas binds a bitfield variable to a boolean field: the field becomes
// (raw & mask) != 0. Validation fails when the variable is absent.
func (s *FrameSpec[F]) BitHas(field, variable string, mask uint32, assign func(*F, bool)) *FrameSpec[F] {
	s.fields = append(s.fields, fieldSpec[F]{
		field: field, variable: variable, kind: KindBitHas, mask: mask, assignBool: assign,
	})
	return s
}

// BitMap binds a bitfield variable through an injected decode closure. The
// closure receives the raw bits and ok=true; decoding the bits into an
// enumerated value (or rejecting them) is entirely the closure's business.
// Validation fails when the variable is absent.
func (s *FrameSpec[F]) BitMap(field, variable string, assign func(*F, uint32, bool)) *FrameSpec[F] {
	s.fields = append(s.fields, fieldSpec[F]{
		field: field, variable: variable, kind: KindBitMap, assignBits: assign,
	})
	return s
}

// Computed binds a field to an injected pure function evaluated on every
// frame; the tick buffer is ignored.
func (s *FrameSpec[F]) Computed(field string, compute func(*F)) *FrameSpec[F] {
	s.fields = append(s.fields, fieldSpec[F]{
		field: field, kind: KindComputed, compute: compute,
	})
	return s
}

// Skip records a field that decoding leaves at its zero value for the caller
// to fill afterwards. The declaration exists so the spec names every field.
func (s *FrameSpec[F]) Skip(field string) *FrameSpec[F] {
	s.fields = append(s.fields, fieldSpec[F]{field: field, kind: KindSkipped})
	return s
}

// FailIfMissing escalates absence of the most recently declared field's
// variable to a validation error. It takes precedence over a FloatOr
// fallback: when both are declared, absence is always an error.
func (s *FrameSpec[F]) FailIfMissing() *FrameSpec[F] {
	if n := len(s.fields); n > 0 {
		s.fields[n-1].failIfMissing = true
	}
	return s
}
