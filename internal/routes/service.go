// Package routes stores cycling routes users draw by hand.
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend-fittrack/internal/db"
	"backend-fittrack/internal/tracking"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound     = errors.New("route not found")
	ErrTooFewPoints = errors.New("a route needs at least 2 points")
	ErrInvalidInput = errors.New("name and user_id required")
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Create stores a route. Distance and elevation gain are always derived from
// the points; values sent by the client are ignored.
func (s *Service) Create(ctx context.Context, input Route) (Route, error) {
	if input.Name == "" || input.UserID == "" {
		return Route{}, ErrInvalidInput
	}
	if err := fillDerived(&input); err != nil {
		return Route{}, err
	}
	input.ID = uuid.NewString()

	points, elevation, err := encode(input)
	if err != nil {
		return Route{}, err
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO cycling_routes (id, user_id, name, description, difficulty, distance, elevation_gain_m, route_data, elevation_data, is_public)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at
	`, input.ID, input.UserID, input.Name, input.Description, input.Difficulty, input.DistanceKm, input.ElevationGainM,
		points, elevation, input.IsPublic)
	if err := row.Scan(&input.CreatedAt, &input.UpdatedAt); err != nil {
		return Route{}, err
	}
	return input, nil
}

// Update applies the fields present in patch. New points replace the route
// and the derived values are recomputed.
func (s *Service) Update(ctx context.Context, id string, patch RoutePatch) (Route, error) {
	route, err := s.Get(ctx, id)
	if err != nil {
		return Route{}, err
	}
	if patch.Name != "" {
		route.Name = patch.Name
	}
	if patch.Description != "" {
		route.Description = patch.Description
	}
	if patch.Difficulty != "" {
		route.Difficulty = patch.Difficulty
	}
	if patch.Points != nil {
		route.Points = patch.Points
		route.Elevation = patch.Elevation
		if err := fillDerived(&route); err != nil {
			return Route{}, err
		}
	}
	if patch.IsPublic != nil {
		route.IsPublic = *patch.IsPublic
	}

	points, elevation, err := encode(route)
	if err != nil {
		return Route{}, err
	}
	row := s.db.QueryRow(ctx, `
		UPDATE cycling_routes
		SET name=$2, description=$3, difficulty=$4, distance=$5, elevation_gain_m=$6, route_data=$7, elevation_data=$8, is_public=$9, updated_at=now()
		WHERE id=$1
		RETURNING updated_at
	`, route.ID, route.Name, route.Description, route.Difficulty, route.DistanceKm, route.ElevationGainM, points, elevation, route.IsPublic)
	if err := row.Scan(&route.UpdatedAt); err != nil {
		return Route{}, err
	}
	return route, nil
}

func (s *Service) Get(ctx context.Context, id string) (Route, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, COALESCE(description,''), COALESCE(difficulty,''), COALESCE(distance,0), COALESCE(elevation_gain_m,0),
		       route_data, elevation_data, COALESCE(is_public,false), created_at, updated_at
		FROM cycling_routes WHERE id=$1
	`, id)
	route, err := scanRoute(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Route{}, ErrNotFound
	}
	return route, err
}

// List returns the user's own routes together with public routes of others.
func (s *Service) List(ctx context.Context, userID string) ([]Route, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, COALESCE(description,''), COALESCE(difficulty,''), COALESCE(distance,0), COALESCE(elevation_gain_m,0),
		       route_data, elevation_data, COALESCE(is_public,false), created_at, updated_at
		FROM cycling_routes WHERE user_id=$1 OR is_public
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM cycling_routes WHERE id=$1`, id)
	return err
}

func fillDerived(r *Route) error {
	if len(r.Points) < 2 {
		return ErrTooFewPoints
	}
	r.DistanceKm = tracking.RouteDistanceKm(r.Points)
	r.ElevationGainM = tracking.ElevationProfile(r.Elevation).GainMeters
	return nil
}

func encode(r Route) (points, elevation []byte, err error) {
	points, err = json.Marshal(r.Points)
	if err != nil {
		return nil, nil, fmt.Errorf("encode route: %w", err)
	}
	if len(r.Elevation) > 0 {
		elevation, err = json.Marshal(r.Elevation)
		if err != nil {
			return nil, nil, fmt.Errorf("encode elevation: %w", err)
		}
	}
	return points, elevation, nil
}

func scanRoute(row pgx.Row) (Route, error) {
	var (
		r                 Route
		points, elevation []byte
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.Description, &r.Difficulty, &r.DistanceKm, &r.ElevationGainM,
		&points, &elevation, &r.IsPublic, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Route{}, err
	}
	if err := json.Unmarshal(points, &r.Points); err != nil {
		return Route{}, fmt.Errorf("decode route %s: %w", r.ID, err)
	}
	if len(elevation) > 0 {
		if err := json.Unmarshal(elevation, &r.Elevation); err != nil {
			return Route{}, fmt.Errorf("decode elevation %s: %w", r.ID, err)
		}
	}
	return r, nil
}
