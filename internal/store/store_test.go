package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexloop-data/race.coach/internal/analysis"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "coach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleMetrics() analysis.LapMetrics {
	lapTime := 92.4
	maxSpeed := 81.0
	minSpeed := 38.5
	avgCorner := 50.0
	return analysis.LapMetrics{
		LapNumber: 7,
		LapTime:   &lapTime,
		BrakingZones: []analysis.BrakingMetrics{{
			BrakingPointDistance: 0.45,
			BrakingPointSpeed:    75,
			EndDistance:          0.52,
			MaxBrakePressure:     0.9,
			BrakingDuration:      1.5,
			MinimumSpeed:         40,
			AverageDeceleration:  23.3,
			HasTrailBraking:      true,
			TrailBrakeDistance:   0.02,
			TrailBrakePercentage: 0.5,
		}},
		Corners: []analysis.CornerMetrics{{
			TurnInDistance: 0.53,
			TurnInSpeed:    55,
			ApexDistance:   0.56,
			ApexSpeed:      45,
			ExitDistance:   0.60,
			ExitSpeed:      62,
			MaxLateralG:    2.5,
			TimeInCorner:   3.1,
			CornerDistance: 0.07,
			SpeedLoss:      10,
			SpeedGain:      17,
		}},
		TotalBrakingZones:  1,
		TotalCorners:       1,
		AverageCornerSpeed: &avgCorner,
		MaxSpeed:           &maxSpeed,
		MinSpeed:           &minSpeed,
	}
}

func TestStoreSessionLifecycle(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	sess, err := s.CreateSession("okayama", "gt3")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.SessionID)
	assert.NotZero(t, sess.CreatedAt)

	got, err := s.GetSession(sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	_, err = s.GetSession("no-such-session")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = s.CreateSession("spa", "gt4")
	require.NoError(t, err)
	sessions, err := s.ListSessions()
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestStoreLapRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	sess, err := s.CreateSession("okayama", "gt3")
	require.NoError(t, err)

	metrics := sampleMetrics()
	frames := []analysis.TelemetryFrame{
		{Speed: 75, LapDistance: 0.45, Timestamp: 0.0, Brake: 0.9},
		{Speed: 40, LapDistance: 0.52, Timestamp: 1.5},
	}
	rec, err := s.InsertLap(sess.SessionID, metrics, frames)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.LapID)

	got, err := s.GetLap(rec.LapID)
	require.NoError(t, err)
	if diff := cmp.Diff(metrics, got.Metrics); diff != "" {
		t.Errorf("lap metrics did not round-trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(frames, got.Frames); diff != "" {
		t.Errorf("lap frames did not round-trip (-want +got):\n%s", diff)
	}

	_, err = s.GetLap("no-such-lap")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStoreListLapsOrdered(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	sess, err := s.CreateSession("okayama", "gt3")
	require.NoError(t, err)

	for _, n := range []int{3, 1, 2} {
		m := sampleMetrics()
		m.LapNumber = n
		_, err := s.InsertLap(sess.SessionID, m, nil)
		require.NoError(t, err)
	}

	laps, err := s.ListLaps(sess.SessionID)
	require.NoError(t, err)
	require.Len(t, laps, 3)
	assert.Equal(t, 1, laps[0].Metrics.LapNumber)
	assert.Equal(t, 2, laps[1].Metrics.LapNumber)
	assert.Equal(t, 3, laps[2].Metrics.LapNumber)
}

func TestStoreBreaksOutZonesAndCorners(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	sess, err := s.CreateSession("okayama", "gt3")
	require.NoError(t, err)
	rec, err := s.InsertLap(sess.SessionID, sampleMetrics(), nil)
	require.NoError(t, err)

	var zones, corners int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM braking_zones WHERE lap_id = ?`, rec.LapID).Scan(&zones))
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM corners WHERE lap_id = ?`, rec.LapID).Scan(&corners))
	assert.Equal(t, 1, zones)
	assert.Equal(t, 1, corners)
}
