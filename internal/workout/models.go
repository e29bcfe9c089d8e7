package workout

import (
	"time"

	"backend-fittrack/internal/shared/geo"
)

const (
	TypeCycling = "cycling"
	TypeBoxing  = "boxing"
)

// Record is a finished session as stored in the workouts table. Fields that
// do not apply to a workout type stay zero.
type Record struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	WorkoutType   string      `json:"workout_type"`
	DurationSec   int64       `json:"duration"`
	DistanceKm    float64     `json:"distance"`
	SpeedKmh      float64     `json:"speed"`
	Calories      float64     `json:"calories"`
	Punches       int         `json:"punches"`
	Intensity     float64     `json:"intensity"`
	PeakIntensity float64     `json:"peak_intensity"`
	Route         []geo.Point `json:"route_data,omitempty"`
	Elevation     []float64   `json:"elevation_data,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

type Totals struct {
	Workouts    int     `json:"workouts"`
	DurationSec int64   `json:"duration"`
	DistanceKm  float64 `json:"distance"`
	Punches     int     `json:"punches"`
	Calories    float64 `json:"calories"`
}
