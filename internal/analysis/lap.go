package analysis

import "gonum.org/v1/gonum/stat"

// LapMetrics aggregates every detection over one lap's frame sequence.
// Pointer fields are nil when the input could not define them (no frames, no
// corners); they are never fabricated as 0.0.
type LapMetrics struct {
	LapNumber int      `json:"lap_number"`
	LapTime   *float64 `json:"lap_time,omitempty"` // seconds

	BrakingZones []BrakingMetrics `json:"braking_zones"`
	Corners      []CornerMetrics  `json:"corners"`

	TotalBrakingZones  int      `json:"total_braking_zones"`
	TotalCorners       int      `json:"total_corners"`
	AverageCornerSpeed *float64 `json:"average_corner_speed,omitempty"` // mean apex speed, m/s
	MaxSpeed           *float64 `json:"max_speed,omitempty"`            // m/s
	MinSpeed           *float64 `json:"min_speed,omitempty"`            // m/s
}

// ExtractLapMetrics runs braking and corner detection in one fused pass over
// the frames and assembles the lap aggregate. The detectors share no state,
// so the result is identical to running ExtractBrakingZones and
// ExtractCorners separately.
func ExtractLapMetrics(frames []TelemetryFrame, lapNumber int, lapTime *float64, cfg AnalysisConfig) LapMetrics {
	metrics := LapMetrics{
		LapNumber:    lapNumber,
		LapTime:      lapTime,
		BrakingZones: make([]BrakingMetrics, 0, 16),
		Corners:      make([]CornerMetrics, 0, 16),
	}

	braking := newBrakingDetector(cfg)
	corners := newCornerDetector(cfg)

	var (
		haveSpeed bool
		maxSpeed  float64
		minSpeed  float64
	)
	for i := range frames {
		if speed := frames[i].Speed; !haveSpeed {
			haveSpeed = true
			maxSpeed, minSpeed = speed, speed
		} else {
			if speed > maxSpeed {
				maxSpeed = speed
			}
			if speed < minSpeed {
				minSpeed = speed
			}
		}

		if m := braking.processFrame(frames, i); m != nil {
			metrics.BrakingZones = append(metrics.BrakingZones, *m)
		}
		if m := corners.processFrame(frames, i); m != nil {
			metrics.Corners = append(metrics.Corners, *m)
		}
	}

	metrics.TotalBrakingZones = len(metrics.BrakingZones)
	metrics.TotalCorners = len(metrics.Corners)

	if haveSpeed {
		metrics.MaxSpeed = &maxSpeed
		metrics.MinSpeed = &minSpeed
	}
	if len(metrics.Corners) > 0 {
		apexSpeeds := make([]float64, len(metrics.Corners))
		for i, c := range metrics.Corners {
			apexSpeeds[i] = c.ApexSpeed
		}
		avg := stat.Mean(apexSpeeds, nil)
		metrics.AverageCornerSpeed = &avg
	}
	return metrics
}
