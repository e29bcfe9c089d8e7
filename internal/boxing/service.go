// Package boxing hosts punch detectors for live boxing sessions.
package boxing

import (
	"context"
	"errors"
	"sync"
	"time"

	"backend-fittrack/internal/metrics"
	"backend-fittrack/internal/motion"
	"backend-fittrack/internal/stream"
	"backend-fittrack/internal/workout"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMissingUser     = errors.New("user_id required")
)

type liveSession struct {
	mu       sync.Mutex
	session  Session
	detector *motion.Detector
}

type Service struct {
	defaults motion.Config
	hub      *stream.Hub
	workouts *workout.Store
	metrics  *metrics.Manager
	now      func() time.Time

	mu   sync.Mutex
	live map[string]*liveSession
}

// NewService returns a service whose sessions start with defaults unless the
// caller provides its own thresholds.
func NewService(defaults motion.Config, hub *stream.Hub, workouts *workout.Store, m *metrics.Manager) (*Service, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		defaults: defaults,
		hub:      hub,
		workouts: workouts,
		metrics:  m,
		now:      time.Now,
		live:     map[string]*liveSession{},
	}, nil
}

func (s *Service) StartSession(userID string, cfg *motion.Config) (Session, error) {
	if userID == "" {
		return Session{}, ErrMissingUser
	}
	c := s.defaults
	if cfg != nil {
		c = *cfg
	}
	detector, err := motion.NewDetector(c)
	if err != nil {
		return Session{}, err
	}

	session := Session{ID: uuid.NewString(), UserID: userID, StartedAt: s.now(), Config: c}
	s.mu.Lock()
	s.live[session.ID] = &liveSession{session: session, detector: detector}
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.GaugeActiveSessions.WithLabelValues(workout.TypeBoxing).Inc()
	}

	logrus.WithFields(logrus.Fields{"session_id": session.ID, "user_id": userID}).Info("boxing session started")
	return session, nil
}

// Configure changes the detector thresholds of a live session. Invalid values
// come back as *motion.ConfigError and leave the session untouched.
func (s *Service) Configure(sessionID string, cfg motion.Config) (Session, error) {
	ls, err := s.session(sessionID)
	if err != nil {
		return Session{}, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.detector.Configure(cfg); err != nil {
		return Session{}, err
	}
	ls.session.Config = cfg
	return ls.session, nil
}

// AddSamples feeds a batch in order and returns the punches it produced.
func (s *Service) AddSamples(sessionID string, samples []motion.Sample) (SamplesResult, error) {
	ls, err := s.session(sessionID)
	if err != nil {
		return SamplesResult{}, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	punches := []motion.PunchEvent{}
	for _, sample := range samples {
		punch, ok := ls.detector.FeedSample(sample)
		if !ok {
			continue
		}
		punches = append(punches, punch)
		if s.metrics != nil {
			s.metrics.CounterPunches.Inc()
		}
		s.publish(sessionID, "punch", punch)
	}
	return SamplesResult{Punches: punches, Stats: ls.detector.Stats()}, nil
}

// Stats prunes the rolling window at nowMs before taking the snapshot, so
// punches-per-minute decays while the user is idle. A zero nowMs skips the
// prune.
func (s *Service) Stats(sessionID string, nowMs int64) (motion.Stats, error) {
	ls, err := s.session(sessionID)
	if err != nil {
		return motion.Stats{}, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if nowMs > 0 {
		ls.detector.PruneOlderThan(nowMs)
	}
	return ls.detector.Stats(), nil
}

func (s *Service) Reset(sessionID string) error {
	ls, err := s.session(sessionID)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	ls.detector.Reset()
	ls.mu.Unlock()

	s.publish(sessionID, "reset", nil)
	return nil
}

// Finish saves the session as a boxing workout and drops the detector. A
// non-positive durationSec is measured from the session start.
func (s *Service) Finish(ctx context.Context, sessionID string, durationSec int64) (workout.Record, error) {
	ls, err := s.session(sessionID)
	if err != nil {
		return workout.Record{}, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if durationSec <= 0 {
		durationSec = int64(s.now().Sub(ls.session.StartedAt).Seconds())
	}
	stats := ls.detector.Stats()
	record, err := s.workouts.Save(ctx, workout.Record{
		UserID:        ls.session.UserID,
		WorkoutType:   workout.TypeBoxing,
		DurationSec:   durationSec,
		Calories:      workout.BoxingCalories(stats.TotalPunches),
		Punches:       stats.TotalPunches,
		Intensity:     workout.BoxingAverageIntensity(stats.TotalPunches, durationSec),
		PeakIntensity: stats.PeakIntensity,
	})
	if err != nil {
		return workout.Record{}, err
	}

	s.mu.Lock()
	delete(s.live, sessionID)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.GaugeActiveSessions.WithLabelValues(workout.TypeBoxing).Dec()
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

func (s *Service) publish(sessionID, eventType string, data any) {
	if s.hub == nil {
		return
	}
	if err := s.hub.Publish(sessionID, eventType, data); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("publish session event")
	}
}
