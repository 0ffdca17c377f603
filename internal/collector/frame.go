// Package collector binds the simulator's live variables to the RacingFrame
// struct and segments the decoded frame stream into laps.
package collector

import (
	"time"

	"github.com/apexloop-data/race.coach/internal/analysis"
	"github.com/apexloop-data/race.coach/internal/telem"
	"github.com/apexloop-data/race.coach/internal/timeutil"
)

// SessionFlags is the raw session flag bitfield published by the simulator.
type SessionFlags uint32

const (
	FlagCheckered SessionFlags = 1 << 0
	FlagWhite     SessionFlags = 1 << 1
	FlagGreen     SessionFlags = 1 << 2
	FlagYellow    SessionFlags = 1 << 3
	FlagBlue      SessionFlags = 1 << 4
	FlagCaution   SessionFlags = 1 << 14
)

// Has reports whether all bits of flag are set.
func (f SessionFlags) Has(flag SessionFlags) bool { return f&flag == flag }

// engine warning bitfield, pit speed limiter bit
const engineWarningPitLimiter = 0x10

// RacingFrame is one decoded telemetry tick.
type RacingFrame struct {
	SessionTime   float64 // seconds since session start
	Speed         float64 // m/s
	Brake         float64 // 0..1
	Throttle      float64 // 0..1
	SteeringAngle float64 // radians
	LapDistPct    float64 // 0..1 around the lap
	LatAccel      float64 // m/s^2
	LongAccel     float64 // m/s^2, zero when the sim does not publish it
	HasLongAccel  bool
	RPM           float64
	Clutch        float64 // 0..1, defaults to 0 on sims without a clutch channel
	Gear          int32
	HasGear       bool
	Lap           int32
	OnPitRoad     bool
	PitLimiterOn  bool
	Flags         SessionFlags

	// ReceivedAt is stamped at decode time, not read from the buffer.
	ReceivedAt time.Time
	// LapTime is left zero by decoding; the lap collector fills it when the
	// lap closes.
	LapTime float64
}

// NewFrameSpec declares the RacingFrame variable bindings. Validate the result
// against a source's schema once per connection.
func NewFrameSpec(clock timeutil.Clock) *telem.FrameSpec[RacingFrame] {
	return telem.NewFrameSpec[RacingFrame]("RacingFrame").
		Float("SessionTime", "SessionTime", func(f *RacingFrame, v float64) { f.SessionTime = v }).
		Float("Speed", "Speed", func(f *RacingFrame, v float64) { f.Speed = v }).
		Float("Brake", "Brake", func(f *RacingFrame, v float64) { f.Brake = v }).
		Float("Throttle", "Throttle", func(f *RacingFrame, v float64) { f.Throttle = v }).
		Float("SteeringAngle", "SteeringWheelAngle", func(f *RacingFrame, v float64) { f.SteeringAngle = v }).
		Float("LapDistPct", "LapDistPct", func(f *RacingFrame, v float64) { f.LapDistPct = v }).
		Float("LatAccel", "LatAccel", func(f *RacingFrame, v float64) { f.LatAccel = v }).
		FloatOpt("LongAccel", "LongAccel", func(f *RacingFrame, v float64, ok bool) {
			f.LongAccel, f.HasLongAccel = v, ok
		}).
		Float("RPM", "RPM", func(f *RacingFrame, v float64) { f.RPM = v }).
		FloatOr("Clutch", "Clutch", 0, func(f *RacingFrame, v float64) { f.Clutch = v }).
		IntOpt("Gear", "Gear", func(f *RacingFrame, v int32, ok bool) { f.Gear, f.HasGear = v, ok }).
		Int("Lap", "Lap", func(f *RacingFrame, v int32) { f.Lap = v }).FailIfMissing().
		Bool("OnPitRoad", "OnPitRoad", func(f *RacingFrame, v bool) { f.OnPitRoad = v }).
		BitHas("PitLimiterOn", "EngineWarnings", engineWarningPitLimiter, func(f *RacingFrame, v bool) { f.PitLimiterOn = v }).
		BitMap("Flags", "SessionFlags", func(f *RacingFrame, bits uint32, ok bool) {
			if ok {
				f.Flags = SessionFlags(bits)
			}
		}).
		Computed("ReceivedAt", func(f *RacingFrame) { f.ReceivedAt = clock.Now() }).
		Skip("LapTime")
}

// ToTelemetryFrame projects the decoded frame onto the analysis input type.
func (f RacingFrame) ToTelemetryFrame() analysis.TelemetryFrame {
	return analysis.TelemetryFrame{
		Brake:             f.Brake,
		SteeringAngle:     f.SteeringAngle,
		Throttle:          f.Throttle,
		Speed:             f.Speed,
		LapDistance:       f.LapDistPct,
		Timestamp:         f.SessionTime,
		LateralAccel:      f.LatAccel,
		LongitudinalAccel: f.LongAccel,
	}
}
