package server

import (
	"backend-fittrack/internal/auth"
	"backend-fittrack/internal/boxing"
	"backend-fittrack/internal/config"
	"backend-fittrack/internal/metrics"
	"backend-fittrack/internal/motion"
	"backend-fittrack/internal/routes"
	"backend-fittrack/internal/stream"
	"backend-fittrack/internal/tracking"
	"backend-fittrack/internal/workout"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Stream  *stream.Hub
	Metrics *metrics.Manager

	promRegistry *prometheus.Registry
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	var collectors []prometheus.Collector
	if db != nil {
		collectors = append(collectors, pgxpoolprometheus.NewCollector(db, map[string]string{"db_name": "fittrack"}))
	}
	promRegistry := metrics.SetupPrometheus(collectors...)

	s := &Server{
		App:          app,
		Cfg:          cfg,
		DB:           db,
		Redis:        redisClient,
		Stream:       stream.NewHub(redisClient),
		Metrics:      metrics.NewManager("fittrack", "api", promRegistry),
		promRegistry: promRegistry,
	}

	registerRoutes(s)
	return s
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.Stream.Close()
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{})))

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	workouts := workout.NewStore(s.DB, s.Metrics)

	tracking.RegisterRoutes(s.App.Group("/cycling"), tracking.NewService(s.DB, s.Stream, workouts, s.Metrics), jwtMiddleware)
	if boxingSvc, err := newBoxingService(s.Cfg.DetectorConfig(), s.Stream, workouts, s.Metrics); err != nil {
		logrus.WithError(err).Error("boxing routes disabled")
	} else {
		boxing.RegisterRoutes(s.App.Group("/boxing"), boxingSvc, jwtMiddleware)
	}
	workout.RegisterRoutes(s.App.Group("/workouts"), workouts, jwtMiddleware)
	routes.RegisterRoutes(s.App.Group("/routes"), routes.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

// newBoxingService starts sessions with the configured detector thresholds,
// falling back to motion.DefaultConfig when they are rejected.
func newBoxingService(cfg motion.Config, hub *stream.Hub, workouts *workout.Store, m *metrics.Manager) (*boxing.Service, error) {
	svc, err := boxing.NewService(cfg, hub, workouts, m)
	if err == nil {
		return svc, nil
	}
	logrus.WithError(err).Warn("punch detector config rejected, using defaults")
	return boxing.NewService(motion.DefaultConfig, hub, workouts, m)
}
