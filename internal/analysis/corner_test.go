package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cornerFrame(steering, speed, latAccel, lapDistance, timestamp, throttle float64) TelemetryFrame {
	return TelemetryFrame{
		SteeringAngle: steering,
		Speed:         speed,
		LateralAccel:  latAccel,
		LapDistance:   lapDistance,
		Timestamp:     timestamp,
		Throttle:      throttle,
	}
}

func TestExtractCornersNoCorners(t *testing.T) {
	t.Parallel()

	frames := []TelemetryFrame{
		cornerFrame(0.0, 50, 0.0, 0.0, 0, 0.5),
		cornerFrame(0.0, 50, 0.0, 0.1, 1, 0.5),
		cornerFrame(0.0, 50, 0.0, 0.2, 2, 0.5),
	}
	assert.Empty(t, ExtractCorners(frames, DefaultConfig()))
}

func TestExtractCornersSingleCorner(t *testing.T) {
	t.Parallel()

	frames := []TelemetryFrame{
		cornerFrame(0.0, 60, 0.0, 0.30, 0.0, 0.0),
		cornerFrame(0.2, 55, 1.5, 0.32, 0.5, 0.0), // turn-in
		cornerFrame(0.3, 45, 2.5, 0.35, 1.0, 0.0), // apex: peak lateral accel
		cornerFrame(0.2, 50, 2.0, 0.38, 1.5, 0.1), // throttle application
		cornerFrame(0.0, 60, 0.5, 0.40, 2.0, 0.5), // exit
	}

	corners := ExtractCorners(frames, DefaultConfig())
	require.Len(t, corners, 1)

	corner := corners[0]
	assert.Equal(t, 0.32, corner.TurnInDistance)
	assert.Equal(t, 55.0, corner.TurnInSpeed)
	assert.Equal(t, 0.35, corner.ApexDistance)
	assert.Equal(t, 45.0, corner.ApexSpeed)
	assert.Equal(t, 0.40, corner.ExitDistance)
	assert.Equal(t, 60.0, corner.ExitSpeed)
	assert.Equal(t, 2.5, corner.MaxLateralG)
	assert.Equal(t, 0.3, corner.MaxSteeringAngle)
	assert.InDelta(t, 1.5, corner.TimeInCorner, 1e-9)
	assert.InDelta(t, 0.08, corner.CornerDistance, 1e-9)
	assert.InDelta(t, 10.0, corner.SpeedLoss, 1e-9)
	assert.InDelta(t, 15.0, corner.SpeedGain, 1e-9)
	assert.Equal(t, 0.38, corner.ThrottleApplicationDistance)
	assert.Equal(t, 50.0, corner.ThrottleApplicationSpeed)
}

func TestExtractCornersApexIsPeakLateralAccel(t *testing.T) {
	t.Parallel()

	// Apex follows the lateral-acceleration peak, not the speed minimum, and
	// apex speed is read from that same frame.
	frames := []TelemetryFrame{
		cornerFrame(0.0, 60, 0.0, 0.30, 0.0, 0.0),
		cornerFrame(0.2, 50, 1.5, 0.32, 0.5, 0.0), // slowest frame
		cornerFrame(0.3, 55, 2.5, 0.35, 1.0, 0.0), // peak lateral accel
		cornerFrame(0.0, 60, 0.5, 0.40, 1.5, 0.5),
	}

	corners := ExtractCorners(frames, DefaultConfig())
	require.Len(t, corners, 1)
	assert.Equal(t, 0.35, corners[0].ApexDistance)
	assert.Equal(t, 55.0, corners[0].ApexSpeed)
}

func TestExtractCornersBothDirections(t *testing.T) {
	t.Parallel()

	frames := []TelemetryFrame{
		cornerFrame(0.0, 60, 0.0, 0.10, 0, 0.5),
		cornerFrame(0.3, 45, 2.0, 0.15, 1, 0.0), // right-hander
		cornerFrame(0.0, 55, 0.0, 0.20, 2, 0.5),
		cornerFrame(0.0, 60, 0.0, 0.50, 3, 0.5),
		cornerFrame(-0.3, 40, 2.5, 0.55, 4, 0.0), // left-hander
		cornerFrame(0.0, 50, 0.0, 0.60, 5, 0.5),
	}

	corners := ExtractCorners(frames, DefaultConfig())
	require.Len(t, corners, 2)
	assert.Equal(t, 0.15, corners[0].TurnInDistance)
	assert.Equal(t, 0.55, corners[1].TurnInDistance)
	assert.Equal(t, 0.3, corners[1].MaxSteeringAngle)
}

func TestExtractCornersDiscardsOpenCorner(t *testing.T) {
	t.Parallel()

	frames := []TelemetryFrame{
		cornerFrame(0.0, 60, 0.0, 0.90, 0, 0.5),
		cornerFrame(0.3, 45, 2.0, 0.95, 1, 0.0),
		cornerFrame(0.3, 40, 2.5, 0.99, 2, 0.0), // still cornering at sequence end
	}
	assert.Empty(t, ExtractCorners(frames, DefaultConfig()))
}

// TestExtractCornersFullScenario: steering rises above 0.15 rad at frame 3 and
// falls below it at frame 15, with lateral acceleration peaking at frame 9.
func TestExtractCornersFullScenario(t *testing.T) {
	t.Parallel()

	frames := make([]TelemetryFrame, 20)
	for i := range frames {
		ts := float64(i) * 0.1
		dist := float64(i) * 0.01
		steering := 0.0
		lat := 0.0
		if i >= 3 && i < 15 {
			steering = 0.3
			lat = 1.0
			if i == 9 {
				lat = 3.0
			}
		}
		frames[i] = cornerFrame(steering, 50, lat, dist, ts, 0.0)
	}

	corners := ExtractCorners(frames, DefaultConfig())
	require.Len(t, corners, 1)

	corner := corners[0]
	assert.InDelta(t, 0.03, corner.TurnInDistance, 1e-9)
	assert.InDelta(t, 0.09, corner.ApexDistance, 1e-9)
	assert.InDelta(t, 0.15, corner.ExitDistance, 1e-9)
	assert.LessOrEqual(t, corner.TurnInDistance, corner.ApexDistance)
	assert.LessOrEqual(t, corner.ApexDistance, corner.ExitDistance)
}

func TestExtractCornersThrottleNeverApplied(t *testing.T) {
	t.Parallel()

	frames := []TelemetryFrame{
		cornerFrame(0.0, 60, 0.0, 0.30, 0.0, 0.0),
		cornerFrame(0.3, 50, 2.0, 0.32, 0.5, 0.0),
		cornerFrame(0.3, 45, 2.5, 0.35, 1.0, 0.0),
		cornerFrame(0.0, 44, 0.40, 0.40, 1.5, 0.0),
	}

	corners := ExtractCorners(frames, DefaultConfig())
	require.Len(t, corners, 1)

	// Exit frame stands in when the throttle never comes up.
	assert.Equal(t, 0.40, corners[0].ThrottleApplicationDistance)
	assert.Equal(t, 44.0, corners[0].ThrottleApplicationSpeed)
}

func TestExtractCornersNegativeSpeedLossReported(t *testing.T) {
	t.Parallel()

	// Faster at the apex than at turn-in: the negative loss is reported as
	// computed, flagging questionable data rather than hiding it.
	frames := []TelemetryFrame{
		cornerFrame(0.0, 40, 0.0, 0.10, 0.0, 0.0),
		cornerFrame(0.3, 40, 1.0, 0.12, 0.5, 0.0),
		cornerFrame(0.3, 48, 2.0, 0.14, 1.0, 0.0),
		cornerFrame(0.0, 50, 0.0, 0.16, 1.5, 0.5),
	}

	corners := ExtractCorners(frames, DefaultConfig())
	require.Len(t, corners, 1)
	assert.InDelta(t, -8.0, corners[0].SpeedLoss, 1e-9)
}
