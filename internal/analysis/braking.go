package analysis

import "math"

// BrakingMetrics describes one detected braking zone.
type BrakingMetrics struct {
	BrakingPointDistance float64 `json:"braking_point_distance"`
	BrakingPointSpeed    float64 `json:"braking_point_speed"`
	EndDistance          float64 `json:"end_distance"`
	MaxBrakePressure     float64 `json:"max_brake_pressure"`
	BrakingDuration      float64 `json:"braking_duration"` // seconds
	MinimumSpeed         float64 `json:"minimum_speed"`
	// InitialDeceleration is the average rate of speed change over the first
	// DecelWindow frames of the zone, reported as an unsigned magnitude.
	InitialDeceleration float64 `json:"initial_deceleration"`
	AverageDeceleration float64 `json:"average_deceleration"`
	// BrakingEfficiency is |average deceleration| per unit of peak brake
	// pressure.
	BrakingEfficiency    float64 `json:"braking_efficiency"`
	HasTrailBraking      bool    `json:"has_trail_braking"`
	TrailBrakeDistance   float64 `json:"trail_brake_distance"`
	TrailBrakePercentage float64 `json:"trail_brake_percentage"`
}

type brakingState int

const (
	brakeIdle brakingState = iota
	brakeActive
)

// brakingDetector is the {Idle, Braking} state machine. The fused lap pass
// and the standalone extractor drive the same type, so their results are
// identical by construction.
type brakingDetector struct {
	cfg      AnalysisConfig
	state    brakingState
	startIdx int
	maxBrake float64
	minSpeed float64
}

func newBrakingDetector(cfg AnalysisConfig) *brakingDetector {
	return &brakingDetector{cfg: cfg}
}

// processFrame consumes frames[i] and returns a finalised zone when braking
// ends on this frame. The falling-edge frame itself closes the zone and
// supplies the end distance and timestamp.
func (d *brakingDetector) processFrame(frames []TelemetryFrame, i int) *BrakingMetrics {
	f := frames[i]
	braking := f.IsBraking(d.cfg.BrakeThreshold)

	switch d.state {
	case brakeIdle:
		if braking {
			d.state = brakeActive
			d.startIdx = i
			d.maxBrake = f.Brake
			d.minSpeed = f.Speed
		}
	case brakeActive:
		if braking {
			if f.Brake > d.maxBrake {
				d.maxBrake = f.Brake
			}
			if f.Speed < d.minSpeed {
				d.minSpeed = f.Speed
			}
		} else {
			d.state = brakeIdle
			m := d.finalize(frames, i)
			return &m
		}
	}
	return nil
}

func (d *brakingDetector) finalize(frames []TelemetryFrame, endIdx int) BrakingMetrics {
	start := frames[d.startIdx]
	end := frames[endIdx]

	minSpeed := d.minSpeed
	if end.Speed < minSpeed {
		minSpeed = end.Speed
	}

	duration := end.Timestamp - start.Timestamp
	avgDecel := 0.0
	if duration > 0 {
		avgDecel = (start.Speed - minSpeed) / duration
	}

	// Peak pressure is above the threshold by construction, but guard the
	// division anyway for degenerate (NaN-riddled) input.
	efficiency := 0.0
	if d.maxBrake > 0 {
		efficiency = math.Abs(avgDecel) / d.maxBrake
	}

	trail := detectTrailBraking(frames, d.startIdx, endIdx, d.cfg)

	return BrakingMetrics{
		BrakingPointDistance: start.LapDistance,
		BrakingPointSpeed:    start.Speed,
		EndDistance:          end.LapDistance,
		MaxBrakePressure:     d.maxBrake,
		BrakingDuration:      duration,
		MinimumSpeed:         minSpeed,
		InitialDeceleration:  initialDeceleration(frames, d.startIdx, endIdx, d.cfg.DecelWindow),
		AverageDeceleration:  avgDecel,
		BrakingEfficiency:    efficiency,
		HasTrailBraking:      trail.detected,
		TrailBrakeDistance:   trail.distance,
		TrailBrakePercentage: trail.meanPressure,
	}
}

// initialDeceleration averages the rate of speed change over the first window
// frames of the zone, or over all zone frames when the zone is shorter. The
// result is an unsigned magnitude.
func initialDeceleration(frames []TelemetryFrame, startIdx, endIdx, window int) float64 {
	if window < 2 {
		window = 2
	}
	n := endIdx - startIdx + 1
	if n < window {
		window = n
	}
	if window < 2 {
		return 0
	}
	first := frames[startIdx]
	last := frames[startIdx+window-1]
	dt := last.Timestamp - first.Timestamp
	if dt <= 0 {
		return 0
	}
	return math.Abs((first.Speed - last.Speed) / dt)
}

// ExtractBrakingZones scans the frame sequence once and returns every
// completed braking zone in frame order. A zone still open at the end of the
// sequence is discarded rather than reported half-formed.
func ExtractBrakingZones(frames []TelemetryFrame, cfg AnalysisConfig) []BrakingMetrics {
	detector := newBrakingDetector(cfg)
	zones := make([]BrakingMetrics, 0, 16)
	for i := range frames {
		if m := detector.processFrame(frames, i); m != nil {
			zones = append(zones, *m)
		}
	}
	return zones
}
