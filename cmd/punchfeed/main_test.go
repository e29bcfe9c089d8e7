package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"backend-fittrack/internal/config"
	"backend-fittrack/internal/motion"
	"backend-fittrack/internal/sensor"
	"backend-fittrack/internal/stream"
)

const samples = `0,0,29.8,0
0,0,9.8,80
bad line
`

func TestRunPublishesPunches(t *testing.T) {
	hub := stream.NewHub(nil)
	defer hub.Close()
	client := hub.Register("session-1")
	defer hub.Unregister(client)

	cfg := config.Config{PunchThreshold: 15, PunchCooldownMs: 150, PunchMinDurationMs: 50, FeedSessionID: "session-1"}
	stats, err := Run(context.Background(), cfg, strings.NewReader(samples), hub)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Punches != 1 || stats.Malformed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	select {
	case msg := <-client.Send:
		var ev stream.Event
		if err := json.Unmarshal(msg, &ev); err != nil || ev.Type != "punch" || ev.SessionID != "session-1" {
			t.Fatalf("unexpected event %s", msg)
		}
	default:
		t.Fatalf("expected a punch event")
	}
}

func TestRunWithoutHub(t *testing.T) {
	cfg := config.Config{PunchThreshold: 15, PunchCooldownMs: 150, PunchMinDurationMs: 50}
	stats, err := Run(context.Background(), cfg, strings.NewReader(samples), nil)
	if err != nil || stats.Punches != 1 {
		t.Fatalf("unexpected result %+v %v", stats, err)
	}
}

func TestRunInvalidDetectorConfig(t *testing.T) {
	_, err := Run(context.Background(), config.Config{}, strings.NewReader(samples), nil)
	var cfgErr *motion.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestOpenInput(t *testing.T) {
	in, err := openInput(config.Config{})
	if err != nil || in == nil {
		t.Fatalf("expected stdin reader: %v", err)
	}

	old := openPort
	defer func() { openPort = old }()
	var gotPath string
	var gotBaud int
	openPort = func(path string, opts sensor.PortOptions) (io.ReadCloser, error) {
		gotPath, gotBaud = path, opts.BaudRate
		return io.NopCloser(strings.NewReader("")), nil
	}
	if _, err := openInput(config.Config{SerialPort: "/dev/ttyACM0", SerialBaud: 9600}); err != nil {
		t.Fatalf("open port: %v", err)
	}
	if gotPath != "/dev/ttyACM0" || gotBaud != 9600 {
		t.Fatalf("unexpected port open %q %d", gotPath, gotBaud)
	}
}
