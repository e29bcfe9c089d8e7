package routes

import (
	"time"

	"backend-fittrack/internal/shared/geo"
)

// Route is a saved cycling route drawn point by point on a map.
type Route struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Difficulty     string      `json:"difficulty"`
	DistanceKm     float64     `json:"distance"`
	ElevationGainM float64     `json:"elevation_gain_m"`
	Points         []geo.Point `json:"route_data"`
	Elevation      []float64   `json:"elevation_data,omitempty"`
	IsPublic       bool        `json:"is_public"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// RoutePatch is the body of an update. Empty strings and nil fields keep the
// stored value.
type RoutePatch struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Difficulty  string      `json:"difficulty"`
	Points      []geo.Point `json:"route_data"`
	Elevation   []float64   `json:"elevation_data"`
	IsPublic    *bool       `json:"is_public"`
}
