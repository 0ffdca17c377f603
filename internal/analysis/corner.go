package analysis

import "math"

// CornerMetrics describes one detected corner segment from turn-in to exit.
type CornerMetrics struct {
	TurnInDistance float64 `json:"turn_in_distance"`
	TurnInSpeed    float64 `json:"turn_in_speed"`
	// ApexDistance and ApexSpeed come from the frame with the highest
	// |lateral acceleration| inside the corner.
	ApexDistance float64 `json:"apex_distance"`
	ApexSpeed    float64 `json:"apex_speed"`
	ExitDistance float64 `json:"exit_distance"`
	ExitSpeed    float64 `json:"exit_speed"`
	// ThrottleApplicationDistance marks the first frame with throttle above
	// the threshold; the exit frame stands in when the driver never picked
	// the throttle up.
	ThrottleApplicationDistance float64 `json:"throttle_application_distance"`
	ThrottleApplicationSpeed    float64 `json:"throttle_application_speed"`
	MaxLateralG                 float64 `json:"max_lateral_g"` // m/s^2, magnitude
	TimeInCorner                float64 `json:"time_in_corner"`
	CornerDistance              float64 `json:"corner_distance"`
	MaxSteeringAngle            float64 `json:"max_steering_angle"` // radians, magnitude
	// SpeedLoss is turn-in speed minus apex speed. Negative values are
	// reported as computed; they signal noisy input rather than a gain.
	SpeedLoss float64 `json:"speed_loss"`
	SpeedGain float64 `json:"speed_gain"`
}

type cornerState int

const (
	cornerIdle cornerState = iota
	cornerActive
)

// cornerDetector is the {Straight, Cornering} state machine.
type cornerDetector struct {
	cfg         AnalysisConfig
	state       cornerState
	startIdx    int
	apexIdx     int
	maxLatAccel float64 // magnitude
	maxSteering float64 // magnitude
	throttleIdx int     // -1 until throttle is applied inside the corner
}

func newCornerDetector(cfg AnalysisConfig) *cornerDetector {
	return &cornerDetector{cfg: cfg, throttleIdx: -1}
}

// processFrame consumes frames[i] and returns a finalised corner when
// steering drops back under the threshold on this frame. The falling-edge
// frame is the exit frame.
func (d *cornerDetector) processFrame(frames []TelemetryFrame, i int) *CornerMetrics {
	f := frames[i]
	turning := f.IsSteering(d.cfg.SteeringThreshold)

	switch d.state {
	case cornerIdle:
		if turning {
			d.state = cornerActive
			d.startIdx = i
			d.apexIdx = i
			d.maxLatAccel = math.Abs(f.LateralAccel)
			d.maxSteering = math.Abs(f.SteeringAngle)
			d.throttleIdx = -1
			if f.IsOnThrottle(d.cfg.ThrottleThreshold) {
				d.throttleIdx = i
			}
		}
	case cornerActive:
		if turning {
			if lat := math.Abs(f.LateralAccel); lat > d.maxLatAccel {
				d.maxLatAccel = lat
				d.apexIdx = i
			}
			if steer := math.Abs(f.SteeringAngle); steer > d.maxSteering {
				d.maxSteering = steer
			}
			if d.throttleIdx < 0 && f.IsOnThrottle(d.cfg.ThrottleThreshold) {
				d.throttleIdx = i
			}
		} else {
			d.state = cornerIdle
			m := d.finalize(frames, i)
			return &m
		}
	}
	return nil
}

func (d *cornerDetector) finalize(frames []TelemetryFrame, endIdx int) CornerMetrics {
	turnIn := frames[d.startIdx]
	apex := frames[d.apexIdx]
	exit := frames[endIdx]

	throttleFrame := exit
	if d.throttleIdx >= 0 {
		throttleFrame = frames[d.throttleIdx]
	}

	return CornerMetrics{
		TurnInDistance:              turnIn.LapDistance,
		TurnInSpeed:                 turnIn.Speed,
		ApexDistance:                apex.LapDistance,
		ApexSpeed:                   apex.Speed,
		ExitDistance:                exit.LapDistance,
		ExitSpeed:                   exit.Speed,
		ThrottleApplicationDistance: throttleFrame.LapDistance,
		ThrottleApplicationSpeed:    throttleFrame.Speed,
		MaxLateralG:                 d.maxLatAccel,
		TimeInCorner:                exit.Timestamp - turnIn.Timestamp,
		CornerDistance:              exit.LapDistance - turnIn.LapDistance,
		MaxSteeringAngle:            d.maxSteering,
		SpeedLoss:                   turnIn.Speed - apex.Speed,
		SpeedGain:                   exit.Speed - apex.Speed,
	}
}

// ExtractCorners scans the frame sequence once and returns every completed
// corner in frame order. A corner still open at the end of the sequence is
// discarded, symmetric with braking-zone handling.
func ExtractCorners(frames []TelemetryFrame, cfg AnalysisConfig) []CornerMetrics {
	detector := newCornerDetector(cfg)
	corners := make([]CornerMetrics, 0, 16)
	for i := range frames {
		if m := detector.processFrame(frames, i); m != nil {
			corners = append(corners, *m)
		}
	}
	return corners
}
