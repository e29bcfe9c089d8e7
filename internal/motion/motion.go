// Package motion turns a stream of 3-axis accelerometer samples into discrete
// punch events and rolling intensity statistics.
package motion

import (
	"fmt"
	"math"
)

const (
	// Gravity is the baseline subtracted from the acceleration magnitude.
	Gravity = 9.8
	// RollingWindowMs bounds the punches-per-minute window.
	RollingWindowMs int64 = 60000

	smoothingKeep = 0.8
	smoothingNew  = 0.2
	maxIntensity  = 100.0
)

// DefaultConfig matches the sensitivity the boxing screen starts with.
var DefaultConfig = Config{
	Threshold:     15,
	CooldownMs:    150,
	MinDurationMs: 50,
}

// Sample is one acceleration reading including gravity, in m/s².
// A nil axis marks a reading the platform could not provide.
type Sample struct {
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	Z           *float64 `json:"z"`
	TimestampMs int64    `json:"timestamp_ms"`
}

// NewSample builds a sample with all three axes present.
func NewSample(x, y, z float64, timestampMs int64) Sample {
	return Sample{X: &x, Y: &y, Z: &z, TimestampMs: timestampMs}
}

func (s Sample) axes() (x, y, z float64, ok bool) {
	if s.X == nil || s.Y == nil || s.Z == nil {
		return 0, 0, 0, false
	}
	x, y, z = *s.X, *s.Y, *s.Z
	if !finite(x) || !finite(y) || !finite(z) {
		return 0, 0, 0, false
	}
	return x, y, z, true
}

// PunchEvent is a detected punch. PeakMagnitude is the largest
// gravity-removed acceleration seen during the spike.
type PunchEvent struct {
	TimestampMs   int64   `json:"timestamp_ms"`
	PeakMagnitude float64 `json:"peak_magnitude"`
}

type Config struct {
	Threshold     float64 `json:"threshold"`
	CooldownMs    int64   `json:"cooldown_ms"`
	MinDurationMs int64   `json:"min_duration_ms"`
}

// Validate reports the first out-of-range field as a *ConfigError.
func (c Config) Validate() error {
	if !finite(c.Threshold) || c.Threshold <= 0 {
		return &ConfigError{Field: "threshold", Value: c.Threshold, Reason: "must be greater than 0"}
	}
	if c.CooldownMs < 0 {
		return &ConfigError{Field: "cooldown_ms", Value: float64(c.CooldownMs), Reason: "must not be negative"}
	}
	if c.MinDurationMs < 0 {
		return &ConfigError{Field: "min_duration_ms", Value: float64(c.MinDurationMs), Reason: "must not be negative"}
	}
	return nil
}

type ConfigError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid detector config: %s=%v %s", e.Field, e.Value, e.Reason)
}

// Stats is a read-only snapshot of the detector counters.
type Stats struct {
	TotalPunches        int     `json:"total_punches"`
	PunchesPerMinute    int     `json:"punches_per_minute"`
	CurrentIntensity    float64 `json:"current_intensity"`
	PeakIntensity       float64 `json:"peak_intensity"`
	CurrentAcceleration float64 `json:"current_acceleration"`
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
