// Package analysis turns an ordered sequence of telemetry frames for a single
// lap into driving-performance metrics: braking zones, corner segments and
// lap-level aggregates. Extraction is a pure, single-pass function of its
// inputs; frames are never mutated and no state survives a call, so laps may
// be analysed concurrently without coordination.
package analysis

import "math"

const gravity = 9.81 // m/s^2

// TelemetryFrame is one tick of decoded vehicle telemetry. Fields are ordered
// by access frequency during detection.
type TelemetryFrame struct {
	Brake         float64 `json:"brake"`          // 0..1 pedal input
	SteeringAngle float64 `json:"steering_angle"` // radians, signed
	Throttle      float64 `json:"throttle"`       // 0..1 pedal input
	Speed         float64 `json:"speed"`          // m/s

	LapDistance float64 `json:"lap_distance"` // 0..1 normalised track position
	Timestamp   float64 `json:"timestamp"`    // seconds, monotonic within a lap

	LateralAccel      float64 `json:"lateral_acceleration"`      // m/s^2
	LongitudinalAccel float64 `json:"longitudinal_acceleration"` // m/s^2
}

// IsBraking reports whether brake input exceeds the threshold. A NaN brake
// value reads as not braking, which keeps detection deterministic on bad
// samples.
func (f TelemetryFrame) IsBraking(threshold float64) bool {
	return f.Brake > threshold
}

// IsSteering reports whether steering input exceeds the threshold in either
// direction.
func (f TelemetryFrame) IsSteering(threshold float64) bool {
	return math.Abs(f.SteeringAngle) > threshold
}

// IsOnThrottle reports whether throttle input exceeds the threshold.
func (f TelemetryFrame) IsOnThrottle(threshold float64) bool {
	return f.Throttle > threshold
}

// LateralG returns lateral acceleration in g.
func (f TelemetryFrame) LateralG() float64 {
	return f.LateralAccel / gravity
}

// SpeedKMH returns speed in km/h.
func (f TelemetryFrame) SpeedKMH() float64 {
	return f.Speed * 3.6
}
