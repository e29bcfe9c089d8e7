package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"backend-fittrack/internal/db"
	"backend-fittrack/internal/metrics"
	"backend-fittrack/internal/stream"
	"backend-fittrack/internal/workout"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// Geolocation error codes a client may report for a session.
const (
	GeoPermissionDenied    = "PERMISSION_DENIED"
	GeoPositionUnavailable = "POSITION_UNAVAILABLE"
	GeoTimeout             = "TIMEOUT"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMissingUser     = errors.New("user_id required")
	ErrInvalidRoute    = errors.New("route contains an invalid coordinate")
	ErrUnknownGeoError = errors.New("unknown geolocation error code")
)

type liveSession struct {
	mu      sync.Mutex
	session Session
	acc     *Accumulator
}

// Service keeps an Accumulator per live cycling session and mirrors accepted
// points to postgres and the stream hub.
type Service struct {
	db       db.Querier
	hub      *stream.Hub
	workouts *workout.Store
	metrics  *metrics.Manager
	now      func() time.Time

	mu   sync.Mutex
	live map[string]*liveSession
}

func NewService(db db.Querier, hub *stream.Hub, workouts *workout.Store, m *metrics.Manager) *Service {
	return &Service{
		db:       db,
		hub:      hub,
		workouts: workouts,
		metrics:  m,
		now:      time.Now,
		live:     map[string]*liveSession{},
	}
}

func (s *Service) StartSession(ctx context.Context, input Session) (Session, error) {
	if input.UserID == "" {
		return Session{}, ErrMissingUser
	}
	input.ID = uuid.NewString()
	if input.StartedAt.IsZero() {
		input.StartedAt = s.now()
	}
	input.Status = StatusActive
	input.EndedAt = nil
	input.TotalDistanceM = 0
	input.TotalElevationGainM = 0

	row := s.db.QueryRow(ctx, `
		INSERT INTO track_sessions (id, user_id, started_at, status)
		VALUES ($1,$2,$3,$4)
		RETURNING started_at, status
	`, input.ID, input.UserID, input.StartedAt, input.Status)
	if err := row.Scan(&input.StartedAt, &input.Status); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	s.live[input.ID] = &liveSession{session: input, acc: NewAccumulator()}
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.GaugeActiveSessions.WithLabelValues(workout.TypeCycling).Inc()
	}

	logrus.WithFields(logrus.Fields{"session_id": input.ID, "user_id": input.UserID}).Info("cycling session started")
	return input, nil
}

// AddFix feeds one fix to the session's accumulator. Rejected fixes are not
// an error; they come back with Accepted=false and nothing is written. If the
// point cannot be stored the accumulator is rolled back, so the same fix can
// be retried.
func (s *Service) AddFix(ctx context.Context, sessionID string, fix Fix) (FixResult, error) {
	ls, err := s.session(sessionID)
	if err != nil {
		return FixResult{}, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	saved := *ls.acc
	point, ok := ls.acc.FeedFix(fix)
	result := FixResult{Accepted: ok, DistanceKm: ls.acc.TotalDistanceKm(), SpeedKmh: ls.acc.SpeedKmh()}
	if !ok {
		s.countFix("rejected")
		return result, nil
	}

	tp := TrackPoint{
		SessionID:  sessionID,
		Lat:        point.Lat,
		Lng:        point.Lng,
		ElevationM: optionalPtr(fix.AltitudeMeters),
		SpeedMps:   optionalPtr(fix.SpeedMps),
		RecordedAt: time.UnixMilli(fix.TimestampMs).UTC(),
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO track_points (session_id, lat, lng, elevation_m, speed_mps, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at
	`, sessionID, tp.Lat, tp.Lng, tp.ElevationM, tp.SpeedMps, tp.RecordedAt)
	if err := row.Scan(&tp.ID, &tp.CreatedAt); err != nil {
		*ls.acc = saved
		return FixResult{}, fmt.Errorf("insert track point: %w", err)
	}
	if err := s.writeTotals(ctx, ls); err != nil {
		// the stored point goes too, or a retry would duplicate it
		if _, delErr := s.db.Exec(ctx, `DELETE FROM track_points WHERE id=$1`, tp.ID); delErr != nil {
			logrus.WithError(delErr).WithField("session_id", sessionID).Warn("remove orphaned track point")
		}
		*ls.acc = saved
		return FixResult{}, err
	}
	s.countFix("accepted")

	result.Point = &tp
	s.publish(sessionID, "route_point", result)
	return result, nil
}

// SetManualRoute replaces the session route with points drawn on a map. The
// stored points are replaced as well.
func (s *Service) SetManualRoute(ctx context.Context, sessionID string, points []RoutePoint) (Summary, error) {
	for _, p := range points {
		if !validCoordinate(p.Lat, p.Lng) {
			return Summary{}, ErrInvalidRoute
		}
	}
	ls, err := s.session(sessionID)
	if err != nil {
		return Summary{}, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	saved := *ls.acc
	ls.acc.SetRoute(points)
	if err := s.storeRoute(ctx, ls); err != nil {
		*ls.acc = saved
		return Summary{}, err
	}
	summary := s.liveSummary(ls)
	s.publish(sessionID, "route_replaced", summary)
	return summary, nil
}

// ClearRoute empties the live route and deletes the stored points.
func (s *Service) ClearRoute(ctx context.Context, sessionID string) error {
	ls, err := s.session(sessionID)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	saved := *ls.acc
	ls.acc.ClearRoute()
	if err := s.storeRoute(ctx, ls); err != nil {
		*ls.acc = saved
		return err
	}
	s.publish(sessionID, "route_cleared", nil)
	return nil
}

// ReportGeoError records a geolocation failure seen by the client. Errors are
// advisory and never touch the route.
func (s *Service) ReportGeoError(sessionID, code string) error {
	switch code {
	case GeoPermissionDenied, GeoPositionUnavailable, GeoTimeout:
	default:
		return ErrUnknownGeoError
	}
	if _, err := s.session(sessionID); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.CounterGeoErrors.WithLabelValues(code).Inc()
	}
	logrus.WithFields(logrus.Fields{"session_id": sessionID, "code": code}).Warn("geolocation error reported")
	return nil
}

// Summary answers live sessions from memory and finished ones from the
// database.
func (s *Service) Summary(ctx context.Context, sessionID string) (Summary, error) {
	if ls, err := s.session(sessionID); err == nil {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		return s.liveSummary(ls), nil
	}

	var session Session
	row := s.db.QueryRow(ctx, `
		SELECT id, status, started_at, ended_at, COALESCE(total_distance_m,0), COALESCE(total_elevation_gain_m,0)
		FROM track_sessions WHERE id=$1
	`, sessionID)
	err := row.Scan(&session.ID, &session.Status, &session.StartedAt, &session.EndedAt, &session.TotalDistanceM, &session.TotalElevationGainM)
	if errors.Is(err, pgx.ErrNoRows) {
		return Summary{}, ErrSessionNotFound
	}
	if err != nil {
		return Summary{}, err
	}

	var pointCount int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM track_points WHERE session_id=$1`, sessionID).Scan(&pointCount); err != nil {
		return Summary{}, err
	}

	end := s.now()
	if session.EndedAt != nil {
		end = *session.EndedAt
	}
	durationSec := int64(end.Sub(session.StartedAt).Seconds())
	distanceKm := session.TotalDistanceM / 1000

	return Summary{
		SessionID:       session.ID,
		Status:          session.Status,
		PointCount:      int(pointCount),
		DistanceKm:      distanceKm,
		DurationSec:     durationSec,
		AverageSpeedKmh: workout.AverageSpeedKmh(distanceKm, durationSec),
		Elevation:       ElevationStats{GainMeters: session.TotalElevationGainM},
	}, nil
}

func (s *Service) Points(ctx context.Context, sessionID string) ([]TrackPoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, lat, lng, elevation_m, speed_mps, recorded_at, created_at
		FROM track_points WHERE session_id=$1
		ORDER BY recorded_at, id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []TrackPoint
	for rows.Next() {
		var p TrackPoint
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Lat, &p.Lng, &p.ElevationM, &p.SpeedMps, &p.RecordedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Finish closes a live session and saves it as a cycling workout. A zero
// endedAt means now.
func (s *Service) Finish(ctx context.Context, sessionID string, endedAt time.Time) (workout.Record, error) {
	ls, err := s.session(sessionID)
	if err != nil {
		return workout.Record{}, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if endedAt.IsZero() {
		endedAt = s.now()
	}
	durationSec := int64(endedAt.Sub(ls.session.StartedAt).Seconds())
	if durationSec < 0 {
		durationSec = 0
	}
	distanceKm := ls.acc.TotalDistanceKm()
	elevation := ls.acc.ElevationStats()

	if _, err := s.db.Exec(ctx, `
		UPDATE track_sessions
		SET status=$2, ended_at=$3, total_distance_m=$4, total_elevation_gain_m=$5
		WHERE id=$1
	`, sessionID, StatusFinished, endedAt, distanceKm*1000, elevation.GainMeters); err != nil {
		return workout.Record{}, fmt.Errorf("finish session: %w", err)
	}

	record, err := s.workouts.Save(ctx, workout.Record{
		UserID:      ls.session.UserID,
		WorkoutType: workout.TypeCycling,
		DurationSec: durationSec,
		DistanceKm:  distanceKm,
		SpeedKmh:    workout.AverageSpeedKmh(distanceKm, durationSec),
		Calories:    workout.CyclingCalories(durationSec),
		Route:       ls.acc.Route(),
		Elevation:   ls.acc.Elevations(),
	})
	if err != nil {
		return workout.Record{}, err
	}

	s.mu.Lock()
	delete(s.live, sessionID)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.GaugeActiveSessions.WithLabelValues(workout.TypeCycling).Dec()
	}
	s.publish(sessionID, "session_finished", record)
	return record, nil
}

func (s *Service) session(id string) (*liveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.live[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ls, nil
}

// liveSummary must be called with ls.mu held.
func (s *Service) liveSummary(ls *liveSession) Summary {
	durationSec := int64(s.now().Sub(ls.session.StartedAt).Seconds())
	if durationSec < 0 {
		durationSec = 0
	}
	route := ls.acc.Route()
	distanceKm := ls.acc.TotalDistanceKm()
	return Summary{
		SessionID:       ls.session.ID,
		Status:          ls.session.Status,
		PointCount:      len(route),
		DistanceKm:      distanceKm,
		DurationSec:     durationSec,
		AverageSpeedKmh: workout.AverageSpeedKmh(distanceKm, durationSec),
		CurrentSpeedKmh: ls.acc.SpeedKmh(),
		Elevation:       ls.acc.ElevationStats(),
		Route:           route,
	}
}

func (s *Service) writeTotals(ctx context.Context, ls *liveSession) error {
	_, err := s.db.Exec(ctx, `
		UPDATE track_sessions
		SET total_distance_m=$2, total_elevation_gain_m=$3
		WHERE id=$1
	`, ls.session.ID, ls.acc.TotalDistanceKm()*1000, ls.acc.ElevationStats().GainMeters)
	if err != nil {
		return fmt.Errorf("update session totals: %w", err)
	}
	return nil
}

// storeRoute rewrites the stored points and totals of a session from its
// accumulator. Manual points carry no fix time, so they are stamped with now.
func (s *Service) storeRoute(ctx context.Context, ls *liveSession) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM track_points WHERE session_id=$1`, ls.session.ID); err != nil {
		return fmt.Errorf("delete track points: %w", err)
	}
	recordedAt := s.now().UTC()
	for _, p := range ls.acc.Route() {
		if _, err := s.db.Exec(ctx, `
			INSERT INTO track_points (session_id, lat, lng, recorded_at)
			VALUES ($1,$2,$3,$4)
		`, ls.session.ID, p.Lat, p.Lng, recordedAt); err != nil {
			return fmt.Errorf("insert track point: %w", err)
		}
	}
	return s.writeTotals(ctx, ls)
}

func (s *Service) publish(sessionID, eventType string, data any) {
	if s.hub == nil {
		return
	}
	if err := s.hub.Publish(sessionID, eventType, data); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("publish session event")
	}
}

func (s *Service) countFix(result string) {
	if s.metrics != nil {
		s.metrics.CounterFixes.WithLabelValues(result).Inc()
	}
}

func optionalPtr(v *float64) *float64 {
	val, ok := optional(v)
	if !ok {
		return nil
	}
	return &val
}
