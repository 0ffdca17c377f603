// Package upload mirrors laps from a local ingest pipeline to a remote coach
// server over its HTTP API.
package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/apexloop-data/race.coach/internal/analysis"
	"github.com/apexloop-data/race.coach/internal/httputil"
)

// Client uploads sessions and laps to a remote coach server.
type Client struct {
	baseURL string
	http    httputil.HTTPClient
}

// NewClient creates an upload client. A nil httpClient falls back to the
// standard client.
func NewClient(baseURL string, httpClient httputil.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = httputil.NewStandardClient(nil)
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// lapPayload matches the coach server's lap-ingest request body. Analysis
// runs server-side, so only the raw frames and lap identity travel.
type lapPayload struct {
	LapNumber int                       `json:"lap_number"`
	LapTime   *float64                  `json:"lap_time,omitempty"`
	Frames    []analysis.TelemetryFrame `json:"frames"`
}

// CreateSession registers a session on the remote server and returns its ID.
func (c *Client) CreateSession(track, car string) (string, error) {
	payload, err := json.Marshal(map[string]string{"track": track, "car": car})
	if err != nil {
		return "", fmt.Errorf("upload: marshal session: %w", err)
	}

	resp, err := c.http.Post(c.baseURL+"/api/sessions", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("upload: creating session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload: session rejected with status %d: %s",
			resp.StatusCode, bytes.TrimSpace(body))
	}

	var sess struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return "", fmt.Errorf("upload: decoding session response: %w", err)
	}
	if sess.SessionID == "" {
		return "", fmt.Errorf("upload: server returned no session ID")
	}
	return sess.SessionID, nil
}

// UploadLap posts one lap's telemetry frames under the given session.
func (c *Client) UploadLap(sessionID string, lapNumber int, lapTime *float64, frames []analysis.TelemetryFrame) error {
	payload, err := json.Marshal(lapPayload{LapNumber: lapNumber, LapTime: lapTime, Frames: frames})
	if err != nil {
		return fmt.Errorf("upload: marshal lap %d: %w", lapNumber, err)
	}

	url := fmt.Sprintf("%s/api/sessions/%s/laps", c.baseURL, sessionID)
	resp, err := c.http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("upload: posting lap %d: %w", lapNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload: lap %d rejected with status %d: %s",
			lapNumber, resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
