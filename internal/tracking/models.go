package tracking

import "time"

const (
	StatusActive   = "active"
	StatusFinished = "finished"
)

type Session struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id"`
	StartedAt           time.Time  `json:"started_at"`
	EndedAt             *time.Time `json:"ended_at,omitempty"`
	TotalDistanceM      float64    `json:"total_distance_m"`
	TotalElevationGainM float64    `json:"total_elevation_gain_m"`
	Status              string     `json:"status"`
}

// TrackPoint is an accepted fix as stored in track_points.
type TrackPoint struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ElevationM *float64  `json:"elevation_m,omitempty"`
	SpeedMps   *float64  `json:"speed_mps,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type FixResult struct {
	Accepted   bool        `json:"accepted"`
	Point      *TrackPoint `json:"point,omitempty"`
	DistanceKm float64     `json:"distance_km"`
	SpeedKmh   float64     `json:"speed_kmh"`
}

type Summary struct {
	SessionID       string         `json:"session_id"`
	Status          string         `json:"status"`
	PointCount      int            `json:"point_count"`
	DistanceKm      float64        `json:"distance_km"`
	DurationSec     int64          `json:"duration_sec"`
	AverageSpeedKmh float64        `json:"average_speed_kmh"`
	CurrentSpeedKmh float64        `json:"current_speed_kmh"`
	Elevation       ElevationStats `json:"elevation"`
	Route           []RoutePoint   `json:"route,omitempty"`
}
