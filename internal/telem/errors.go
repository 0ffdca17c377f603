package telem

import "fmt"

// SchemaError reports a frame field whose binding cannot be satisfied by the
// live schema. It is raised once at validation time, never per frame.
type SchemaError struct {
	Spec     string // frame spec name
	Field    string // struct field that required the variable
	Variable string // source variable name
	Reason   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("telem: schema validation failed for %s.%s (variable %q): %s",
		e.Spec, e.Field, e.Variable, e.Reason)
}

// DecodeError reports an integrity violation while decoding a tick buffer
// against an already-validated field table. Callers should treat it as a
// corrupted connection, not retry silently.
type DecodeError struct {
	Spec   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("telem: decode failed for %s: %s", e.Spec, e.Reason)
}
