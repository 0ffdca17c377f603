// Package replay turns CSV-recorded telemetry back into raw tick buffers so
// the whole schema/decode path runs exactly as it would against a live
// simulator. The CSV header names the telemetry variables; each row becomes
// one tick.
package replay

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/apexloop-data/race.coach/internal/telem"
	"github.com/apexloop-data/race.coach/internal/timeutil"
)

// varTypeFor infers the schema type for a recorded variable from its name.
// Recordings carry no type metadata, so the inference mirrors what the
// simulator publishes for the well-known channels.
func varTypeFor(name string) telem.VarType {
	switch name {
	case "SessionTime":
		return telem.VarDouble
	case "Lap", "Gear", "LapCompleted":
		return telem.VarInt
	case "OnPitRoad", "IsOnTrack":
		return telem.VarBool
	case "SessionFlags", "EngineWarnings":
		return telem.VarBitField
	}
	return telem.VarFloat
}

// Source replays a recorded telemetry file tick by tick.
type Source struct {
	schema *telem.VariableSchema
	names  []string
	rows   [][]string
	pos    int
}

// NewSource parses a CSV recording and lays out a synthetic schema from its
// header row.
func NewSource(r io.Reader) (*Source, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("replay: reading header: %w", err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("replay: empty header row")
	}

	builder := telem.NewSchemaBuilder()
	names := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("replay: empty column name at index %d", i)
		}
		names[i] = name
		builder.Add(name, varTypeFor(name))
	}
	schema, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("replay: building schema: %w", err)
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("replay: reading rows: %w", err)
	}
	return &Source{schema: schema, names: names, rows: rows}, nil
}

// Schema returns the synthetic schema derived from the recording header.
func (s *Source) Schema() *telem.VariableSchema { return s.schema }

// Len returns the number of recorded ticks.
func (s *Source) Len() int { return len(s.rows) }

// Next encodes the next recorded tick into a fresh buffer. It returns io.EOF
// when the recording is exhausted.
func (s *Source) Next() ([]byte, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++

	if len(row) != len(s.names) {
		return nil, fmt.Errorf("replay: row %d has %d columns, header has %d", s.pos, len(row), len(s.names))
	}

	buf := telem.NewTickBuffer(s.schema)
	for i, cell := range row {
		if err := s.encode(buf, s.names[i], cell); err != nil {
			return nil, fmt.Errorf("replay: row %d column %q: %w", s.pos, s.names[i], err)
		}
	}
	return buf.Bytes(), nil
}

// Reset rewinds the source to the first tick.
func (s *Source) Reset() { s.pos = 0 }

func (s *Source) encode(buf *telem.TickBuffer, name, cell string) error {
	cell = strings.TrimSpace(cell)
	v, _ := s.schema.Lookup(name)
	switch v.Type {
	case telem.VarBool:
		switch strings.ToLower(cell) {
		case "1", "true":
			return buf.SetBool(name, true)
		case "0", "false", "":
			return buf.SetBool(name, false)
		}
		return fmt.Errorf("bad boolean %q", cell)
	case telem.VarInt:
		n, err := strconv.ParseInt(cell, 10, 32)
		if err != nil {
			return err
		}
		return buf.SetInt(name, int32(n))
	case telem.VarBitField:
		// Flag columns are recorded in hex with an 0x prefix, but plain
		// decimal appears in older recordings.
		n, err := strconv.ParseUint(cell, 0, 32)
		if err != nil {
			return err
		}
		return buf.SetBits(name, uint32(n))
	default:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return err
		}
		return buf.SetFloat(name, f)
	}
}

// Stream delivers every remaining tick to fn, pacing by interval on the given
// clock. A zero interval streams as fast as fn consumes. Stream stops at the
// end of the recording, on fn error, or when the context is cancelled.
func (s *Source) Stream(ctx context.Context, interval time.Duration, clock timeutil.Clock, fn func([]byte) error) error {
	var ticker timeutil.Ticker
	if interval > 0 {
		ticker = clock.NewTicker(interval)
		defer ticker.Stop()
	}

	for {
		buf, err := s.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(buf); err != nil {
			return err
		}
		if ticker == nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
		}
	}
}
