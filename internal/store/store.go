// Package store persists analysed lap metrics in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/apexloop-data/race.coach/internal/analysis"
)

// Store is the SQLite-backed metrics store.
type Store struct {
	db *sql.DB
}

// Session groups the laps of one outing at a track.
type Session struct {
	SessionID string `json:"session_id"`
	Track     string `json:"track"`
	Car       string `json:"car"`
	CreatedAt int64  `json:"created_at"` // unix nanoseconds
}

// LapRecord is one persisted lap with its full metrics payload. Frames holds
// the lap's telemetry sequence so reports can re-render the speed trace; it
// may be empty for laps uploaded as metrics only.
type LapRecord struct {
	LapID     string                    `json:"lap_id"`
	SessionID string                    `json:"session_id"`
	Metrics   analysis.LapMetrics       `json:"metrics"`
	Frames    []analysis.TelemetryFrame `json:"frames,omitempty"`
	CreatedAt int64                     `json:"created_at"`
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// modernc sqlite serialises writes itself, but a busy timeout keeps
	// concurrent API readers from surfacing SQLITE_BUSY.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000; PRAGMA foreign_keys=ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: setting pragmas: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// CreateSession inserts a new session and returns it with its generated ID.
func (s *Store) CreateSession(track, car string) (Session, error) {
	sess := Session{
		SessionID: uuid.New().String(),
		Track:     track,
		Car:       car,
		CreatedAt: time.Now().UnixNano(),
	}
	_, err := s.db.Exec(`
		INSERT INTO sessions (session_id, track, car, created_at)
		VALUES (?, ?, ?, ?)`,
		sess.SessionID, sess.Track, sess.Car, sess.CreatedAt,
	)
	if err != nil {
		return Session{}, fmt.Errorf("store: insert session: %w", err)
	}
	return sess, nil
}

// GetSession returns one session by ID, or sql.ErrNoRows.
func (s *Store) GetSession(sessionID string) (Session, error) {
	var sess Session
	err := s.db.QueryRow(`
		SELECT session_id, track, car, created_at
		FROM sessions WHERE session_id = ?`, sessionID).
		Scan(&sess.SessionID, &sess.Track, &sess.Car, &sess.CreatedAt)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions() ([]Session, error) {
	rows, err := s.db.Query(`
		SELECT session_id, track, car, created_at
		FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.SessionID, &sess.Track, &sess.Car, &sess.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// InsertLap persists one lap's metrics under a session. The full payload is
// stored as JSON; zones and corners are additionally broken out into their
// own tables for SQL-side querying.
func (s *Store) InsertLap(sessionID string, metrics analysis.LapMetrics, frames []analysis.TelemetryFrame) (LapRecord, error) {
	payload, err := json.Marshal(metrics)
	if err != nil {
		return LapRecord{}, fmt.Errorf("store: marshal lap metrics: %w", err)
	}
	var framesPayload interface{}
	if len(frames) > 0 {
		b, err := json.Marshal(frames)
		if err != nil {
			return LapRecord{}, fmt.Errorf("store: marshal lap frames: %w", err)
		}
		framesPayload = string(b)
	}

	rec := LapRecord{
		LapID:     uuid.New().String(),
		SessionID: sessionID,
		Metrics:   metrics,
		Frames:    frames,
		CreatedAt: time.Now().UnixNano(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return LapRecord{}, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO laps (lap_id, session_id, lap_number, lap_time, total_braking_zones,
		                  total_corners, max_speed, min_speed, metrics_json, frames_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.LapID, rec.SessionID, metrics.LapNumber, nullable(metrics.LapTime),
		metrics.TotalBrakingZones, metrics.TotalCorners,
		nullable(metrics.MaxSpeed), nullable(metrics.MinSpeed),
		string(payload), framesPayload, rec.CreatedAt,
	)
	if err != nil {
		return LapRecord{}, fmt.Errorf("store: insert lap: %w", err)
	}

	for i, z := range metrics.BrakingZones {
		_, err = tx.Exec(`
			INSERT INTO braking_zones (lap_id, seq, braking_point_distance, braking_point_speed,
			                           end_distance, max_brake_pressure, braking_duration,
			                           minimum_speed, average_deceleration, has_trail_braking)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.LapID, i, z.BrakingPointDistance, z.BrakingPointSpeed,
			z.EndDistance, z.MaxBrakePressure, z.BrakingDuration,
			z.MinimumSpeed, z.AverageDeceleration, z.HasTrailBraking,
		)
		if err != nil {
			return LapRecord{}, fmt.Errorf("store: insert braking zone %d: %w", i, err)
		}
	}
	for i, c := range metrics.Corners {
		_, err = tx.Exec(`
			INSERT INTO corners (lap_id, seq, turn_in_distance, turn_in_speed, apex_distance,
			                     apex_speed, exit_distance, exit_speed, max_lateral_g,
			                     time_in_corner, speed_loss)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.LapID, i, c.TurnInDistance, c.TurnInSpeed, c.ApexDistance,
			c.ApexSpeed, c.ExitDistance, c.ExitSpeed, c.MaxLateralG,
			c.TimeInCorner, c.SpeedLoss,
		)
		if err != nil {
			return LapRecord{}, fmt.Errorf("store: insert corner %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return LapRecord{}, fmt.Errorf("store: commit lap: %w", err)
	}
	return rec, nil
}

// GetLap returns one lap by ID, or sql.ErrNoRows.
func (s *Store) GetLap(lapID string) (LapRecord, error) {
	var (
		rec     LapRecord
		payload string
		frames  sql.NullString
	)
	err := s.db.QueryRow(`
		SELECT lap_id, session_id, metrics_json, frames_json, created_at
		FROM laps WHERE lap_id = ?`, lapID).
		Scan(&rec.LapID, &rec.SessionID, &payload, &frames, &rec.CreatedAt)
	if err != nil {
		return LapRecord{}, err
	}
	if err := json.Unmarshal([]byte(payload), &rec.Metrics); err != nil {
		return LapRecord{}, fmt.Errorf("store: unmarshal lap %s: %w", lapID, err)
	}
	if frames.Valid && frames.String != "" {
		if err := json.Unmarshal([]byte(frames.String), &rec.Frames); err != nil {
			return LapRecord{}, fmt.Errorf("store: unmarshal lap %s frames: %w", lapID, err)
		}
	}
	return rec, nil
}

// ListLaps returns a session's laps in lap-number order.
func (s *Store) ListLaps(sessionID string) ([]LapRecord, error) {
	rows, err := s.db.Query(`
		SELECT lap_id, session_id, metrics_json, created_at
		FROM laps WHERE session_id = ? ORDER BY lap_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: query laps: %w", err)
	}
	defer rows.Close()

	var laps []LapRecord
	for rows.Next() {
		var (
			rec     LapRecord
			payload string
		)
		if err := rows.Scan(&rec.LapID, &rec.SessionID, &payload, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &rec.Metrics); err != nil {
			return nil, fmt.Errorf("store: unmarshal lap %s: %w", rec.LapID, err)
		}
		laps = append(laps, rec)
	}
	return laps, rows.Err()
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
