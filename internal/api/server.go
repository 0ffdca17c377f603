// Package api exposes the coach's HTTP surface: session management, lap
// upload and analysis, and report rendering.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apexloop-data/race.coach/internal/analysis"
	"github.com/apexloop-data/race.coach/internal/httputil"
	"github.com/apexloop-data/race.coach/internal/report"
	"github.com/apexloop-data/race.coach/internal/store"
	"github.com/apexloop-data/race.coach/internal/units"
	"github.com/apexloop-data/race.coach/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	store *store.Store
	cfg   analysis.AnalysisConfig
	units string
}

func NewServer(st *store.Store, cfg analysis.AnalysisConfig, speedUnits string) *Server {
	if !units.IsValid(speedUnits) {
		speedUnits = units.MPS
	}
	return &Server{store: st, cfg: cfg, units: speedUnits}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.health)
	mux.HandleFunc("/api/sessions", s.sessions)
	mux.HandleFunc("/api/sessions/", s.sessionLaps)
	mux.HandleFunc("/api/laps/", s.lap)
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) sessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions, err := s.store.ListSessions()
		if err != nil {
			log.Printf("listing sessions: %v", err)
			httputil.InternalServerError(w, "failed to list sessions")
			return
		}
		if sessions == nil {
			sessions = []store.Session{}
		}
		httputil.WriteJSONOK(w, sessions)
	case http.MethodPost:
		var req struct {
			Track string `json:"track"`
			Car   string `json:"car"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "invalid JSON body")
			return
		}
		if req.Track == "" {
			httputil.BadRequest(w, "track is required")
			return
		}
		sess, err := s.store.CreateSession(req.Track, req.Car)
		if err != nil {
			log.Printf("creating session: %v", err)
			httputil.InternalServerError(w, "failed to create session")
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, sess)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// uploadLapRequest is the lap-ingest payload: raw telemetry frames plus lap
// identity. Analysis runs server-side so every client gets the same engine.
type uploadLapRequest struct {
	LapNumber int                       `json:"lap_number"`
	LapTime   *float64                  `json:"lap_time,omitempty"`
	Frames    []analysis.TelemetryFrame `json:"frames"`
}

// sessionLaps handles /api/sessions/{id}/laps.
func (s *Server) sessionLaps(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "laps" {
		httputil.NotFound(w, "not found")
		return
	}
	sessionID := parts[0]

	if _, err := s.store.GetSession(sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.NotFound(w, "no such session")
			return
		}
		log.Printf("loading session %s: %v", sessionID, err)
		httputil.InternalServerError(w, "failed to load session")
		return
	}

	switch r.Method {
	case http.MethodGet:
		laps, err := s.store.ListLaps(sessionID)
		if err != nil {
			log.Printf("listing laps for %s: %v", sessionID, err)
			httputil.InternalServerError(w, "failed to list laps")
			return
		}
		if laps == nil {
			laps = []store.LapRecord{}
		}
		httputil.WriteJSONOK(w, laps)
	case http.MethodPost:
		var req uploadLapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "invalid JSON body")
			return
		}
		if len(req.Frames) == 0 {
			httputil.BadRequest(w, "frames are required")
			return
		}
		metrics := analysis.ExtractLapMetrics(req.Frames, req.LapNumber, req.LapTime, s.cfg)
		rec, err := s.store.InsertLap(sessionID, metrics, req.Frames)
		if err != nil {
			log.Printf("inserting lap for %s: %v", sessionID, err)
			httputil.InternalServerError(w, "failed to store lap")
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, rec)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// lap handles /api/laps/{id} and /api/laps/{id}/report.
func (s *Server) lap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/laps/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" || len(parts) > 2 {
		httputil.NotFound(w, "not found")
		return
	}
	lapID := parts[0]

	rec, err := s.store.GetLap(lapID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.NotFound(w, "no such lap")
			return
		}
		log.Printf("loading lap %s: %v", lapID, err)
		httputil.InternalServerError(w, "failed to load lap")
		return
	}

	if len(parts) == 1 {
		httputil.WriteJSONOK(w, rec)
		return
	}
	if parts[1] != "report" {
		httputil.NotFound(w, "not found")
		return
	}
	s.renderReport(w, rec)
}

func (s *Server) renderReport(w http.ResponseWriter, rec store.LapRecord) {
	if len(rec.Frames) == 0 {
		httputil.NotFound(w, "lap has no stored telemetry frames")
		return
	}

	sess, err := s.store.GetSession(rec.SessionID)
	if err != nil {
		log.Printf("loading session %s for report: %v", rec.SessionID, err)
		httputil.InternalServerError(w, "failed to load session")
		return
	}

	lapReport := &report.LapReport{
		Track:     sess.Track,
		Car:       sess.Car,
		SpeedUnit: s.units,
		Metrics:   rec.Metrics,
		Frames:    rec.Frames,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := lapReport.RenderHTML(w); err != nil {
		log.Printf("rendering report for lap %s: %v", rec.LapID, err)
	}
}
