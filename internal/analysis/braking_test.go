package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brakeFrame(brake, speed, lapDistance, timestamp float64) TelemetryFrame {
	return TelemetryFrame{Brake: brake, Speed: speed, LapDistance: lapDistance, Timestamp: timestamp}
}

func TestExtractBrakingZonesNoBraking(t *testing.T) {
	t.Parallel()

	frames := []TelemetryFrame{
		brakeFrame(0.0, 50, 0.0, 0),
		brakeFrame(0.0, 50, 0.1, 1),
		brakeFrame(0.0, 50, 0.2, 2),
	}
	assert.Empty(t, ExtractBrakingZones(frames, DefaultConfig()))
}

func TestExtractBrakingZonesSingleZone(t *testing.T) {
	t.Parallel()

	frames := []TelemetryFrame{
		brakeFrame(0.0, 80, 0.40, 0.0),
		brakeFrame(0.8, 75, 0.45, 0.5), // rising edge
		brakeFrame(0.9, 60, 0.50, 1.0), // peak pressure
		brakeFrame(0.6, 45, 0.55, 1.5),
		brakeFrame(0.0, 40, 0.60, 2.0), // falling edge closes the zone
		brakeFrame(0.0, 45, 0.65, 2.5),
	}

	zones := ExtractBrakingZones(frames, DefaultConfig())
	require.Len(t, zones, 1)

	zone := zones[0]
	assert.Equal(t, 0.45, zone.BrakingPointDistance)
	assert.Equal(t, 75.0, zone.BrakingPointSpeed)
	assert.Equal(t, 0.60, zone.EndDistance)
	assert.Equal(t, 0.9, zone.MaxBrakePressure)
	assert.Equal(t, 40.0, zone.MinimumSpeed)
	assert.InDelta(t, 1.5, zone.BrakingDuration, 1e-9)
	assert.InDelta(t, (75.0-40.0)/1.5, zone.AverageDeceleration, 1e-9)
	assert.InDelta(t, (75.0-40.0)/1.5/0.9, zone.BrakingEfficiency, 1e-9)
	// Zone is only 4 frames long, so the initial window spans the whole zone.
	assert.InDelta(t, (75.0-40.0)/1.5, zone.InitialDeceleration, 1e-9)
	assert.False(t, zone.HasTrailBraking)
}

func TestExtractBrakingZonesMultiple(t *testing.T) {
	t.Parallel()

	frames := []TelemetryFrame{
		brakeFrame(0.0, 80, 0.0, 0),
		brakeFrame(0.8, 60, 0.1, 1),
		brakeFrame(0.0, 50, 0.2, 2), // first zone ends
		brakeFrame(0.0, 70, 0.5, 3),
		brakeFrame(0.7, 55, 0.6, 4),
		brakeFrame(0.0, 45, 0.7, 5), // second zone ends
	}

	zones := ExtractBrakingZones(frames, DefaultConfig())
	require.Len(t, zones, 2)
	assert.Equal(t, 0.1, zones[0].BrakingPointDistance)
	assert.Equal(t, 0.6, zones[1].BrakingPointDistance)
}

func TestExtractBrakingZonesDiscardsOpenZone(t *testing.T) {
	t.Parallel()

	// Still braking when the sequence ends: the half-formed zone must not be
	// reported.
	frames := []TelemetryFrame{
		brakeFrame(0.0, 80, 0.90, 0),
		brakeFrame(0.8, 60, 0.95, 1),
		brakeFrame(0.9, 50, 0.99, 2),
	}
	assert.Empty(t, ExtractBrakingZones(frames, DefaultConfig()))
}

func TestExtractBrakingZonesEmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ExtractBrakingZones(nil, DefaultConfig()))
	assert.Empty(t, ExtractBrakingZones([]TelemetryFrame{}, DefaultConfig()))
}

// TestExtractBrakingZonesFullScenario is the canonical 20-frame braking event:
// brake rises above threshold at frame 5, peaks at 0.8 at frame 8, releases at
// frame 12, while speed falls from 50 to 20 m/s.
func TestExtractBrakingZonesFullScenario(t *testing.T) {
	t.Parallel()

	frames := make([]TelemetryFrame, 20)
	for i := range frames {
		ts := float64(i) * 0.1
		dist := float64(i) * 0.01
		switch {
		case i < 5:
			frames[i] = brakeFrame(0.0, 50, dist, ts)
		case i < 12:
			brake := 0.3
			if i == 8 {
				brake = 0.8
			}
			speed := 50 - 30*float64(i-5)/7.0
			frames[i] = brakeFrame(brake, speed, dist, ts)
		case i == 12:
			frames[i] = brakeFrame(0.0, 20, dist, ts)
		default:
			frames[i] = brakeFrame(0.0, 20+float64(i-12), dist, ts)
		}
	}

	zones := ExtractBrakingZones(frames, DefaultConfig())
	require.Len(t, zones, 1)

	zone := zones[0]
	assert.InDelta(t, 50.0, zone.BrakingPointSpeed, 1e-9)
	assert.InDelta(t, 20.0, zone.MinimumSpeed, 1e-9)
	assert.InDelta(t, 0.8, zone.MaxBrakePressure, 1e-9)
	assert.GreaterOrEqual(t, zone.EndDistance, zone.BrakingPointDistance)
	assert.GreaterOrEqual(t, zone.BrakingDuration, 0.0)
	assert.Greater(t, zone.InitialDeceleration, 0.0)
}

func TestExtractBrakingZonesTrailBraking(t *testing.T) {
	t.Parallel()

	frames := []TelemetryFrame{
		brakeFrame(0.0, 80, 0.50, 0.0),
		{Brake: 0.8, Speed: 70, LapDistance: 0.51, Timestamp: 0.5},
		{Brake: 0.6, Speed: 60, LapDistance: 0.52, Timestamp: 1.0, SteeringAngle: 0.20},
		{Brake: 0.4, Speed: 55, LapDistance: 0.53, Timestamp: 1.5, SteeringAngle: 0.25},
		{Brake: 0.0, Speed: 52, LapDistance: 0.54, Timestamp: 2.0, SteeringAngle: 0.30},
	}

	zones := ExtractBrakingZones(frames, DefaultConfig())
	require.Len(t, zones, 1)

	zone := zones[0]
	assert.True(t, zone.HasTrailBraking)
	// Overlap frames are indices 2 and 3; deltas 0.01 each.
	assert.InDelta(t, 0.02, zone.TrailBrakeDistance, 1e-9)
	assert.InDelta(t, 0.5, zone.TrailBrakePercentage, 1e-9)
}

func TestExtractBrakingZonesNaNInput(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	frames := []TelemetryFrame{
		brakeFrame(nan, 50, 0.0, 0),
		brakeFrame(nan, nan, 0.1, 1),
		brakeFrame(0.0, 50, 0.2, 2),
	}

	// NaN brake input reads as "not braking": no zones, no panic.
	assert.Empty(t, ExtractBrakingZones(frames, DefaultConfig()))
}

func TestInitialDecelerationWindow(t *testing.T) {
	t.Parallel()

	frames := []TelemetryFrame{
		brakeFrame(0.8, 60, 0.10, 0.0),
		brakeFrame(0.8, 55, 0.11, 0.1),
		brakeFrame(0.8, 50, 0.12, 0.2),
		brakeFrame(0.8, 46, 0.13, 0.3),
		brakeFrame(0.8, 43, 0.14, 0.4),
		brakeFrame(0.8, 41, 0.15, 0.5),
		brakeFrame(0.8, 40, 0.16, 0.6),
	}

	// Five-frame window: (60-43)/0.4.
	got := initialDeceleration(frames, 0, len(frames)-1, 5)
	assert.InDelta(t, 17.0/0.4, got, 1e-9)

	// Window longer than the zone collapses to the zone length.
	got = initialDeceleration(frames[:3], 0, 2, 5)
	assert.InDelta(t, 10.0/0.2, got, 1e-9)
}
