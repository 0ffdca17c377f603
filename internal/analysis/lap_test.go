package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLapMetricsEmptyInput(t *testing.T) {
	t.Parallel()

	metrics := ExtractLapMetrics(nil, 3, nil, DefaultConfig())

	assert.Equal(t, 3, metrics.LapNumber)
	assert.Nil(t, metrics.LapTime)
	assert.Empty(t, metrics.BrakingZones)
	assert.Empty(t, metrics.Corners)
	assert.Zero(t, metrics.TotalBrakingZones)
	assert.Zero(t, metrics.TotalCorners)
	// No frames means no defined extrema, not a fabricated zero.
	assert.Nil(t, metrics.MaxSpeed)
	assert.Nil(t, metrics.MinSpeed)
	assert.Nil(t, metrics.AverageCornerSpeed)
}

func TestExtractLapMetricsSpeedExtrema(t *testing.T) {
	t.Parallel()

	frames := []TelemetryFrame{
		brakeFrame(0, 50, 0.0, 0),
		brakeFrame(0, 72, 0.1, 1),
		brakeFrame(0, 38, 0.2, 2),
		brakeFrame(0, 61, 0.3, 3),
	}

	metrics := ExtractLapMetrics(frames, 1, nil, DefaultConfig())
	require.NotNil(t, metrics.MaxSpeed)
	require.NotNil(t, metrics.MinSpeed)
	assert.Equal(t, 72.0, *metrics.MaxSpeed)
	assert.Equal(t, 38.0, *metrics.MinSpeed)
}

// lapFrames builds a lap with one braking zone followed by two corners with
// apex speeds 45 and 55 m/s.
func lapFrames() []TelemetryFrame {
	return []TelemetryFrame{
		{Speed: 80, LapDistance: 0.05, Timestamp: 0.0},
		{Brake: 0.8, Speed: 70, LapDistance: 0.10, Timestamp: 0.5},
		{Brake: 0.9, Speed: 55, LapDistance: 0.15, Timestamp: 1.0},
		{Speed: 50, LapDistance: 0.20, Timestamp: 1.5},

		{SteeringAngle: 0.3, LateralAccel: 2.0, Speed: 45, LapDistance: 0.25, Timestamp: 2.0},
		{Speed: 60, LapDistance: 0.30, Timestamp: 2.5, Throttle: 0.8},

		{SteeringAngle: -0.3, LateralAccel: 2.5, Speed: 55, LapDistance: 0.55, Timestamp: 4.0},
		{Speed: 70, LapDistance: 0.60, Timestamp: 4.5, Throttle: 0.9},
	}
}

func TestExtractLapMetricsCombined(t *testing.T) {
	t.Parallel()

	lapTime := 92.4
	metrics := ExtractLapMetrics(lapFrames(), 7, &lapTime, DefaultConfig())

	assert.Equal(t, 7, metrics.LapNumber)
	require.NotNil(t, metrics.LapTime)
	assert.Equal(t, 92.4, *metrics.LapTime)

	assert.Equal(t, 1, metrics.TotalBrakingZones)
	assert.Equal(t, 2, metrics.TotalCorners)
	require.NotNil(t, metrics.AverageCornerSpeed)
	assert.InDelta(t, 50.0, *metrics.AverageCornerSpeed, 1e-9)
	require.NotNil(t, metrics.MaxSpeed)
	assert.Equal(t, 80.0, *metrics.MaxSpeed)
	require.NotNil(t, metrics.MinSpeed)
	assert.Equal(t, 45.0, *metrics.MinSpeed)
}

// TestExtractLapMetricsMatchesStandaloneExtractors pins the fused-pass
// guarantee: the aggregate's zones and corners equal the standalone
// extractors' output frame for frame.
func TestExtractLapMetricsMatchesStandaloneExtractors(t *testing.T) {
	t.Parallel()

	frames := lapFrames()
	cfg := DefaultConfig()
	metrics := ExtractLapMetrics(frames, 1, nil, cfg)

	if diff := cmp.Diff(ExtractBrakingZones(frames, cfg), metrics.BrakingZones); diff != "" {
		t.Errorf("braking zones diverge from standalone pass (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ExtractCorners(frames, cfg), metrics.Corners); diff != "" {
		t.Errorf("corners diverge from standalone pass (-want +got):\n%s", diff)
	}
	assert.Equal(t, len(metrics.BrakingZones), metrics.TotalBrakingZones)
	assert.Equal(t, len(metrics.Corners), metrics.TotalCorners)
}

func TestExtractLapMetricsIdempotent(t *testing.T) {
	t.Parallel()

	frames := lapFrames()
	cfg := DefaultConfig()
	first := ExtractLapMetrics(frames, 1, nil, cfg)
	second := ExtractLapMetrics(frames, 1, nil, cfg)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated analysis of the same frames diverged (-first +second):\n%s", diff)
	}
}
