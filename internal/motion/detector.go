package motion

import "math"

// Detector is a threshold-crossing punch detector with debounce.
// It is not safe for concurrent use; callers feed it from a single producer.
type Detector struct {
	cfg Config

	aboveThreshold bool
	spikeStartMs   int64
	spikePeak      float64

	hasPunch    bool
	lastPunchMs int64

	hasSample    bool
	lastSampleMs int64

	punchCount    int
	intensity     float64
	peakIntensity float64
	lastMovement  float64
	recent        []int64
}

// NewDetector returns a detector using cfg, or a *ConfigError.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Configure swaps the thresholds used for future samples. Punches already
// emitted and the spike in progress are kept.
func (d *Detector) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.cfg = cfg
	return nil
}

func (d *Detector) Config() Config {
	return d.cfg
}

// FeedSample advances the detector by one sample. It reports a punch when a
// spike that lasted at least MinDurationMs falls back below the threshold and
// CooldownMs has passed since the previous punch.
//
// Samples with a missing axis, or a timestamp not after the last processed
// one, are ignored.
func (d *Detector) FeedSample(s Sample) (PunchEvent, bool) {
	x, y, z, ok := s.axes()
	if !ok {
		return PunchEvent{}, false
	}
	if d.hasSample && s.TimestampMs <= d.lastSampleMs {
		return PunchEvent{}, false
	}
	d.hasSample = true
	d.lastSampleMs = s.TimestampMs

	movement := math.Abs(math.Sqrt(x*x+y*y+z*z) - Gravity)
	d.lastMovement = movement
	d.intensity = d.intensity*smoothingKeep + d.rawIntensity(movement)*smoothingNew

	now := s.TimestampMs
	if movement >= d.cfg.Threshold {
		if !d.aboveThreshold {
			d.aboveThreshold = true
			d.spikeStartMs = now
			d.spikePeak = movement
		} else if movement > d.spikePeak {
			d.spikePeak = movement
		}
		return PunchEvent{}, false
	}

	if !d.aboveThreshold {
		return PunchEvent{}, false
	}
	d.aboveThreshold = false

	spikeDuration := now - d.spikeStartMs
	if spikeDuration < d.cfg.MinDurationMs {
		return PunchEvent{}, false
	}
	if d.hasPunch && now-d.lastPunchMs < d.cfg.CooldownMs {
		return PunchEvent{}, false
	}

	d.hasPunch = true
	d.lastPunchMs = now
	d.punchCount++
	d.PruneOlderThan(now)
	d.recent = append(d.recent, now)
	// peak intensity follows the sample that closes the spike
	if raw := d.rawIntensity(movement); raw > d.peakIntensity {
		d.peakIntensity = raw
	}

	return PunchEvent{TimestampMs: now, PeakMagnitude: d.spikePeak}, true
}

// PruneOlderThan drops punch timestamps that fell out of the rolling minute
// ending at nowMs. Calling it repeatedly with the same value is a no-op.
func (d *Detector) PruneOlderThan(nowMs int64) {
	kept := d.recent[:0]
	for _, ts := range d.recent {
		if nowMs-ts < RollingWindowMs {
			kept = append(kept, ts)
		}
	}
	d.recent = kept
}

// Reset clears counters, history and the in-progress spike. The
// configuration is kept.
func (d *Detector) Reset() {
	*d = Detector{cfg: d.cfg}
}

func (d *Detector) Stats() Stats {
	return Stats{
		TotalPunches:        d.punchCount,
		PunchesPerMinute:    len(d.recent),
		CurrentIntensity:    d.intensity,
		PeakIntensity:       d.peakIntensity,
		CurrentAcceleration: d.lastMovement,
	}
}

// Started reports whether any sample was accepted since construction or the
// last Reset.
func (d *Detector) Started() bool {
	return d.hasSample
}

func (d *Detector) rawIntensity(movement float64) float64 {
	return math.Min(maxIntensity, movement/d.cfg.Threshold*50)
}
