// Command punchfeed runs the punch detector over a wrist sensor attached to a
// serial port, or over stdin when no port is configured. With FEED_SESSION_ID
// set, punches are published to that session's live stream through redis.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"backend-fittrack/internal/config"
	"backend-fittrack/internal/db"
	"backend-fittrack/internal/logging"
	"backend-fittrack/internal/motion"
	"backend-fittrack/internal/sensor"
	"backend-fittrack/internal/stream"

	log "github.com/sirupsen/logrus"
)

var openPort = func(path string, opts sensor.PortOptions) (io.ReadCloser, error) {
	return sensor.OpenPort(path, opts)
}

func main() {
	cfg := config.Load()
	logging.Setup(logging.SetupParams{
		LogFileName:   cfg.LogFile,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogJSON,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input, err := openInput(cfg)
	if err != nil {
		log.Fatalf("open sensor input: %v", err)
	}
	defer input.Close()

	var hub *stream.Hub
	if cfg.FeedSessionID != "" {
		rdb := db.ConnectRedis(cfg)
		if rdb == nil {
			log.Warn("FEED_SESSION_ID set without REDIS_ADDR, punches stay local")
		} else {
			defer rdb.Close()
		}
		hub = stream.NewHub(rdb)
		defer hub.Close()
	}

	stats, err := Run(ctx, cfg, input, hub)
	fields := log.Fields{"lines": stats.Lines, "samples": stats.Samples, "malformed": stats.Malformed, "punches": stats.Punches}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithFields(fields).Errorf("sensor feed stopped: %v", err)
		return
	}
	log.WithFields(fields).Info("sensor feed finished")
}

func openInput(cfg config.Config) (io.ReadCloser, error) {
	if cfg.SerialPort == "" {
		log.Info("no SERIAL_PORT configured, reading samples from stdin")
		return io.NopCloser(os.Stdin), nil
	}
	return openPort(cfg.SerialPort, sensor.PortOptions{BaudRate: cfg.SerialBaud})
}

// Run feeds r through a detector built from cfg until EOF or cancellation.
func Run(ctx context.Context, cfg config.Config, r io.Reader, hub *stream.Hub) (sensor.FeedStats, error) {
	detector, err := motion.NewDetector(cfg.DetectorConfig())
	if err != nil {
		return sensor.FeedStats{}, err
	}

	feed := &sensor.Feed{
		Detector: detector,
		OnPunch: func(p motion.PunchEvent) {
			log.WithFields(log.Fields{"ts": p.TimestampMs, "peak": p.PeakMagnitude}).Debug("punch")
			if hub == nil {
				return
			}
			if err := hub.Publish(cfg.FeedSessionID, "punch", p); err != nil {
				log.WithError(err).Warn("publish punch")
			}
		},
	}
	return feed.Run(ctx, r)
}
