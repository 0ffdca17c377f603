package analysis

// Defaults for AnalysisConfig. They work well for most cars and tracks; the
// tuning file (internal/config) overrides them per deployment.
const (
	DefaultBrakeThreshold    = 0.05 // 5% pedal input
	DefaultSteeringThreshold = 0.15 // radians, ~8.6 degrees
	DefaultThrottleThreshold = 0.05 // 5% pedal input
	DefaultDecelWindow       = 5    // frames
)

// AnalysisConfig holds the detection thresholds. It is a plain value supplied
// per extraction call; there is no shared mutable instance.
type AnalysisConfig struct {
	// BrakeThreshold is the minimum brake input that counts as braking.
	BrakeThreshold float64 `json:"brake_threshold"`
	// SteeringThreshold is the minimum |steering angle| that counts as
	// cornering, in radians.
	SteeringThreshold float64 `json:"steering_threshold"`
	// ThrottleThreshold is the minimum throttle input that counts as
	// accelerating.
	ThrottleThreshold float64 `json:"throttle_threshold"`
	// DecelWindow is the number of zone frames used for the initial
	// deceleration estimate.
	DecelWindow int `json:"decel_window"`
}

// DefaultConfig returns a config with all thresholds at their defaults.
// Callers override individual fields before passing it to the extractors.
func DefaultConfig() AnalysisConfig {
	return AnalysisConfig{
		BrakeThreshold:    DefaultBrakeThreshold,
		SteeringThreshold: DefaultSteeringThreshold,
		ThrottleThreshold: DefaultThrottleThreshold,
		DecelWindow:       DefaultDecelWindow,
	}
}
