package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterPunches    prometheus.Counter
	CounterFixes      *prometheus.CounterVec
	CounterGeoErrors  *prometheus.CounterVec
	CounterWorkouts   *prometheus.CounterVec
	CounterBadSamples prometheus.Counter

	// gauges
	GaugeActiveSessions *prometheus.GaugeVec
}

func NewTestManager() *Manager {
	return NewManager("fittrack", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fittrack", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterPunches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "punches_detected",
			Help:      "The total number of punches detected across boxing sessions",
		}),
		CounterFixes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "gps_fixes",
			Help:      "GPS fixes received, by whether they were added to the route",
		}, []string{"result"}),
		CounterGeoErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "geolocation_errors",
			Help:      "Advisory geolocation errors reported by clients",
		}, []string{"code"}),
		CounterWorkouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workouts_saved",
			Help:      "Finished workouts persisted, by workout type",
		}, []string{"type"}),
		CounterBadSamples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sensor_lines_malformed",
			Help:      "Sensor feed lines that could not be decoded",
		}),
		GaugeActiveSessions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_sessions",
			Help:      "Live sessions currently held in memory",
		}, []string{"type"}),
	}
}
