package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend-fittrack/internal/db"
	"backend-fittrack/internal/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 50

var ErrMissingUser = errors.New("user_id required")

type Store struct {
	db      db.Querier
	metrics *metrics.Manager
}

func NewStore(db db.Querier, m *metrics.Manager) *Store {
	return &Store{db: db, metrics: m}
}

func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	if rec.UserID == "" {
		return Record{}, ErrMissingUser
	}
	rec.ID = uuid.NewString()

	route, err := jsonOrNil(rec.Route)
	if err != nil {
		return Record{}, fmt.Errorf("encode route: %w", err)
	}
	elevation, err := jsonOrNil(rec.Elevation)
	if err != nil {
		return Record{}, fmt.Errorf("encode elevation: %w", err)
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO workouts (id, user_id, workout_type, duration, distance, speed, calories, punches, intensity, peak_intensity, route_data, elevation_data, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at
	`, rec.ID, rec.UserID, rec.WorkoutType, rec.DurationSec, rec.DistanceKm, rec.SpeedKmh, rec.Calories,
		rec.Punches, rec.Intensity, rec.PeakIntensity, route, elevation, rec.Notes)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return Record{}, err
	}

	if s.metrics != nil {
		s.metrics.CounterWorkouts.WithLabelValues(rec.WorkoutType).Inc()
	}
	logrus.WithFields(logrus.Fields{
		"workout_id": rec.ID,
		"user_id":    rec.UserID,
		"type":       rec.WorkoutType,
		"duration":   rec.DurationSec,
	}).Info("workout saved")
	return rec, nil
}

// History lists a user's workouts, newest first.
func (s *Store) History(ctx context.Context, userID string, limit int) ([]Record, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, workout_type, duration, COALESCE(distance,0), COALESCE(speed,0), COALESCE(calories,0),
		       COALESCE(punches,0), COALESCE(intensity,0), COALESCE(peak_intensity,0), route_data, elevation_data, COALESCE(notes,''), created_at
		FROM workouts WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r                Record
			route, elevation []byte
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.WorkoutType, &r.DurationSec, &r.DistanceKm, &r.SpeedKmh, &r.Calories,
			&r.Punches, &r.Intensity, &r.PeakIntensity, &route, &elevation, &r.Notes, &r.CreatedAt); err != nil {
			return nil, err
		}
		if len(route) > 0 {
			if err := json.Unmarshal(route, &r.Route); err != nil {
				return nil, fmt.Errorf("decode route of workout %s: %w", r.ID, err)
			}
		}
		if len(elevation) > 0 {
			if err := json.Unmarshal(elevation, &r.Elevation); err != nil {
				return nil, fmt.Errorf("decode elevation of workout %s: %w", r.ID, err)
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) Totals(ctx context.Context, userID string) (Totals, error) {
	if userID == "" {
		return Totals{}, ErrMissingUser
	}

	var (
		t                        Totals
		count, duration, punches int64
	)
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(duration),0), COALESCE(SUM(distance),0), COALESCE(SUM(punches),0), COALESCE(SUM(calories),0)
		FROM workouts WHERE user_id=$1
	`, userID)
	if err := row.Scan(&count, &duration, &t.DistanceKm, &punches, &t.Calories); err != nil {
		return Totals{}, err
	}
	t.Workouts = int(count)
	t.DurationSec = duration
	t.Punches = int(punches)
	return t, nil
}

func jsonOrNil[T any](v []T) ([]byte, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return json.Marshal(v)
}
