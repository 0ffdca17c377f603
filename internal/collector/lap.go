package collector

import "github.com/apexloop-data/race.coach/internal/analysis"

// Lap is one segmented lap of telemetry, in frame order.
type Lap struct {
	Number int
	// LapTime is the session-time span of the lap in seconds; nil when the
	// lap is incomplete or degenerate.
	LapTime *float64
	Frames  []RacingFrame
	// OutLap is set when the lap started on pit road; PitLap when the car
	// touched pit road at any point during the lap.
	OutLap bool
	PitLap bool
	// Complete is false for the trailing lap returned by Flush, which never
	// saw its closing lap-counter increment.
	Complete bool
}

// LapCollector accumulates decoded frames and emits a Lap each time the
// simulator's lap counter increments. Not safe for concurrent use; feed it
// from the single decode goroutine.
type LapCollector struct {
	started  bool
	lapNum   int32
	frames   []RacingFrame
	lastDist float64
	outLap   bool
	pitLap   bool
}

func NewLapCollector() *LapCollector {
	return &LapCollector{}
}

// Collect adds one frame. It returns the just-completed lap when this frame
// opens a new one, and nil otherwise.
func (c *LapCollector) Collect(frame RacingFrame) *Lap {
	if !c.started {
		c.start(frame)
		c.append(frame)
		return nil
	}

	if frame.Lap > c.lapNum {
		// Guard against counter glitches: a real lap boundary also wraps the
		// lap distance from near 1 back to near 0.
		if c.lastDist > 0.5 && frame.LapDistPct > 0.5 {
			c.append(frame)
			return nil
		}
		done := c.close(frame.SessionTime)
		c.start(frame)
		c.append(frame)
		return done
	}

	c.append(frame)
	return nil
}

// Flush returns the open lap, marked incomplete, and resets the collector.
// It returns nil when no frames have been collected.
func (c *LapCollector) Flush() *Lap {
	if !c.started || len(c.frames) == 0 {
		return nil
	}
	lap := &Lap{
		Number: int(c.lapNum),
		Frames: c.frames,
		OutLap: c.outLap,
		PitLap: c.pitLap,
	}
	c.started = false
	c.frames = nil
	return lap
}

func (c *LapCollector) start(frame RacingFrame) {
	c.started = true
	c.lapNum = frame.Lap
	c.frames = make([]RacingFrame, 0, 4096)
	c.outLap = frame.OnPitRoad
	c.pitLap = frame.OnPitRoad
}

func (c *LapCollector) append(frame RacingFrame) {
	c.frames = append(c.frames, frame)
	c.lastDist = frame.LapDistPct
	if frame.OnPitRoad {
		c.pitLap = true
	}
}

func (c *LapCollector) close(endSessionTime float64) *Lap {
	lap := &Lap{
		Number:   int(c.lapNum),
		Frames:   c.frames,
		OutLap:   c.outLap,
		PitLap:   c.pitLap,
		Complete: true,
	}
	if n := len(lap.Frames); n > 0 {
		if t := endSessionTime - lap.Frames[0].SessionTime; t > 0 {
			lap.LapTime = &t
			for i := range lap.Frames {
				lap.Frames[i].LapTime = t
			}
		}
	}
	return lap
}

// TelemetryFrames projects the lap's frames onto the analysis input type.
func (l *Lap) TelemetryFrames() []analysis.TelemetryFrame {
	frames := make([]analysis.TelemetryFrame, len(l.Frames))
	for i, f := range l.Frames {
		frames[i] = f.ToTelemetryFrame()
	}
	return frames
}

// Analyze runs the lap-analysis pass over the lap's frames.
func (l *Lap) Analyze(cfg analysis.AnalysisConfig) analysis.LapMetrics {
	return analysis.ExtractLapMetrics(l.TelemetryFrames(), l.Number, l.LapTime, cfg)
}
