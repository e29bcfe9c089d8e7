// Package sensor reads accelerometer records from a wrist sensor and runs
// them through a punch detector.
package sensor

import (
	"bufio"
	"context"
	"io"

	"backend-fittrack/internal/metrics"
	"backend-fittrack/internal/motion"

	"github.com/sirupsen/logrus"
)

// FeedStats counts what a Feed saw on its stream.
type FeedStats struct {
	Lines     int `json:"lines"`
	Samples   int `json:"samples"`
	Malformed int `json:"malformed"`
	Punches   int `json:"punches"`
}

type Feed struct {
	Detector *motion.Detector
	OnPunch  func(motion.PunchEvent)
	Metrics  *metrics.Manager
}

// Run feeds the detector with a stream of records. It reads until EOF or ctx
// is cancelled; EOF is a normal end and returns a nil error.
func Run(ctx context.Context, r io.Reader, d *motion.Detector, onPunch func(motion.PunchEvent)) (FeedStats, error) {
	f := &Feed{Detector: d, OnPunch: onPunch}
	return f.Run(ctx, r)
}

func (f *Feed) Run(ctx context.Context, r io.Reader) (FeedStats, error) {
	var stats FeedStats
	scan := bufio.NewScanner(r)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// Scan blocks on the device, so it runs apart from the cancellation select.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			scanErrChan <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return stats, err
				default:
					return stats, nil
				}
			}
			stats.Lines++
			f.handleLine(line, &stats)
		}
	}
}

func (f *Feed) handleLine(line string, stats *FeedStats) {
	sample, ok, err := ParseLine(line)
	if err != nil {
		stats.Malformed++
		if f.Metrics != nil {
			f.Metrics.CounterBadSamples.Inc()
		}
		logrus.WithError(err).Debug("skipping sensor line")
		return
	}
	if !ok {
		return
	}
	stats.Samples++

	punch, detected := f.Detector.FeedSample(sample)
	if !detected {
		return
	}
	stats.Punches++
	if f.Metrics != nil {
		f.Metrics.CounterPunches.Inc()
	}
	if f.OnPunch != nil {
		f.OnPunch(punch)
	}
}
