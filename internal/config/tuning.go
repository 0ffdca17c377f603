// Package config loads the coach's JSON tuning file. Every field is a
// pointer so partial configs only override what they name; the Get* methods
// supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apexloop-data/race.coach/internal/analysis"
)

// TuningConfig is the root tuning file. The analysis section feeds
// analysis.AnalysisConfig; the service section covers the daemon's runtime
// knobs.
type TuningConfig struct {
	// Analysis thresholds
	BrakeThreshold    *float64 `json:"brake_threshold,omitempty"`
	SteeringThreshold *float64 `json:"steering_threshold,omitempty"`
	ThrottleThreshold *float64 `json:"throttle_threshold,omitempty"`
	DecelWindow       *int     `json:"decel_window,omitempty"`

	// Service params
	TickInterval *string `json:"tick_interval,omitempty"` // duration string like "16ms"
	DatabasePath *string `json:"database_path,omitempty"`
	ListenAddr   *string `json:"listen_addr,omitempty"`
	Track        *string `json:"track,omitempty"`
	Car          *string `json:"car,omitempty"`
	SpeedUnit    *string `json:"speed_unit,omitempty"` // "mps", "kmh" or "mph"
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted from
// the file retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	if c.BrakeThreshold != nil {
		if *c.BrakeThreshold < 0 || *c.BrakeThreshold > 1 {
			return fmt.Errorf("brake_threshold must be between 0 and 1, got %f", *c.BrakeThreshold)
		}
	}
	if c.ThrottleThreshold != nil {
		if *c.ThrottleThreshold < 0 || *c.ThrottleThreshold > 1 {
			return fmt.Errorf("throttle_threshold must be between 0 and 1, got %f", *c.ThrottleThreshold)
		}
	}
	if c.SteeringThreshold != nil && *c.SteeringThreshold <= 0 {
		return fmt.Errorf("steering_threshold must be positive, got %f", *c.SteeringThreshold)
	}
	if c.DecelWindow != nil && *c.DecelWindow < 2 {
		return fmt.Errorf("decel_window must be at least 2, got %d", *c.DecelWindow)
	}
	if c.TickInterval != nil && *c.TickInterval != "" {
		if _, err := time.ParseDuration(*c.TickInterval); err != nil {
			return fmt.Errorf("invalid tick_interval '%s': %w", *c.TickInterval, err)
		}
	}
	if c.SpeedUnit != nil {
		switch *c.SpeedUnit {
		case "mps", "kmh", "mph":
		default:
			return fmt.Errorf("speed_unit must be mps, kmh or mph, got %q", *c.SpeedUnit)
		}
	}
	return nil
}

// AnalysisConfig merges the file's threshold overrides onto the analysis
// defaults.
func (c *TuningConfig) AnalysisConfig() analysis.AnalysisConfig {
	cfg := analysis.DefaultConfig()
	if c.BrakeThreshold != nil {
		cfg.BrakeThreshold = *c.BrakeThreshold
	}
	if c.SteeringThreshold != nil {
		cfg.SteeringThreshold = *c.SteeringThreshold
	}
	if c.ThrottleThreshold != nil {
		cfg.ThrottleThreshold = *c.ThrottleThreshold
	}
	if c.DecelWindow != nil {
		cfg.DecelWindow = *c.DecelWindow
	}
	return cfg
}

// GetTickInterval parses and returns the TickInterval as a time.Duration.
func (c *TuningConfig) GetTickInterval() time.Duration {
	if c.TickInterval == nil || *c.TickInterval == "" {
		return 16 * time.Millisecond // 60 Hz tick rate
	}
	d, err := time.ParseDuration(*c.TickInterval)
	if err != nil {
		return 16 * time.Millisecond
	}
	return d
}

// GetDatabasePath returns the database_path value or the default.
func (c *TuningConfig) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return "coach.db"
	}
	return *c.DatabasePath
}

// GetListenAddr returns the listen_addr value or the default.
func (c *TuningConfig) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return ":8080"
	}
	return *c.ListenAddr
}

// GetTrack returns the track value or the default.
func (c *TuningConfig) GetTrack() string {
	if c.Track == nil || *c.Track == "" {
		return "unknown"
	}
	return *c.Track
}

// GetCar returns the car value or the default.
func (c *TuningConfig) GetCar() string {
	if c.Car == nil || *c.Car == "" {
		return "unknown"
	}
	return *c.Car
}

// GetSpeedUnit returns the speed_unit value or the default.
func (c *TuningConfig) GetSpeedUnit() string {
	if c.SpeedUnit == nil || *c.SpeedUnit == "" {
		return "kmh"
	}
	return *c.SpeedUnit
}
