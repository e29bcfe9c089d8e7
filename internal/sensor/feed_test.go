package sensor

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"backend-fittrack/internal/metrics"
	"backend-fittrack/internal/motion"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newDetector(t *testing.T) *motion.Detector {
	t.Helper()
	d, err := motion.NewDetector(motion.DefaultConfig)
	require.NoError(t, err)
	return d
}

const twoPunches = `# x,y,z,timestamp_ms
0,0,9.8,0
0,0,29.8,10
0,0,10.8,80

garbage
0,null,29.8,300
0,0,29.8,400
0,0,9.9,500
`

func TestRunCountsPunchesUntilEOF(t *testing.T) {
	m := metrics.NewTestManager()
	var punches []motion.PunchEvent
	f := &Feed{
		Detector: newDetector(t),
		OnPunch:  func(p motion.PunchEvent) { punches = append(punches, p) },
		Metrics:  m,
	}

	stats, err := f.Run(context.Background(), strings.NewReader(twoPunches))
	require.NoError(t, err)
	assert.Equal(t, FeedStats{Lines: 9, Samples: 6, Malformed: 1, Punches: 2}, stats)
	require.Len(t, punches, 2)
	assert.Equal(t, int64(80), punches[0].TimestampMs)
	assert.Equal(t, int64(500), punches[1].TimestampMs)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterBadSamples))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterPunches))
}

func TestRunWithoutCallback(t *testing.T) {
	d := newDetector(t)
	stats, err := Run(context.Background(), strings.NewReader(twoPunches), d, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Punches)
	assert.Equal(t, 2, d.Stats().TotalPunches)
}

func TestRunStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	d := newDetector(t)

	done := make(chan error, 1)
	go func() {
		_, err := Run(ctx, pr, d, nil)
		done <- err
	}()

	_, err := pw.Write([]byte("0,0,9.8,1\n"))
	require.NoError(t, err)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run did not stop after cancel")
	}
	// unblock the scanner goroutine
	_ = pw.Close()
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device unplugged") }

func TestRunReturnsReadError(t *testing.T) {
	_, err := Run(context.Background(), failingReader{}, newDetector(t), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device unplugged")
}
