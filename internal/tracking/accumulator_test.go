package tracking

import (
	"math"
	"testing"

	"backend-fittrack/internal/shared/geo"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestAccumulator_FirstFixAccepted(t *testing.T) {
	acc := NewAccumulator()

	point, ok := acc.FeedFix(Fix{Lat: 1, Lng: 2, AltitudeMeters: f64(50), SpeedMps: f64(5), TimestampMs: 0})
	require.True(t, ok)
	assert.Equal(t, RoutePoint{Lat: 1, Lng: 2}, point)
	assert.Len(t, acc.Route(), 1)
	assert.Equal(t, []float64{50}, acc.Elevations())
	assert.InDelta(t, 18, acc.SpeedKmh(), 1e-9)
	assert.Zero(t, acc.TotalDistanceKm())
	assert.Equal(t, ElevationStats{MaxMeters: 50}, acc.ElevationStats())
}

func TestAccumulator_JitterRejected(t *testing.T) {
	acc := NewAccumulator()

	_, ok := acc.FeedFix(Fix{Lat: 0, Lng: 0, TimestampMs: 0})
	require.True(t, ok)
	_, ok = acc.FeedFix(Fix{Lat: 0, Lng: 0.0000001, AltitudeMeters: f64(30), SpeedMps: f64(1), TimestampMs: 1000})
	assert.False(t, ok)

	assert.Len(t, acc.Route(), 1)
	assert.Zero(t, acc.TotalDistanceKm())
	assert.Empty(t, acc.Elevations())
	assert.Zero(t, acc.SpeedKmh())
}

func TestAccumulator_JitterBaselineStaysOnLastAccepted(t *testing.T) {
	acc := NewAccumulator()
	acc.FeedFix(Fix{Lat: 0, Lng: 0, TimestampMs: 0})

	// 1.1m steps east; each is compared with the origin, so the second one
	// (2.2m away) is the first accepted
	step := 0.00001
	_, ok := acc.FeedFix(Fix{Lat: 0, Lng: step, TimestampMs: 1})
	assert.False(t, ok)
	_, ok = acc.FeedFix(Fix{Lat: 0, Lng: 2 * step, TimestampMs: 2})
	assert.True(t, ok)

	want := []RoutePoint{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 2 * step}}
	if diff := cmp.Diff(want, acc.Route()); diff != "" {
		t.Fatalf("route mismatch (-want +got):\n%s", diff)
	}
}

func TestAccumulator_OneKilometreNorth(t *testing.T) {
	acc := NewAccumulator()
	acc.FeedFix(Fix{Lat: 0, Lng: 0, TimestampMs: 0})
	_, ok := acc.FeedFix(Fix{Lat: 0.008993, Lng: 0, TimestampMs: 60000})
	require.True(t, ok)

	assert.InEpsilon(t, 1.0, acc.TotalDistanceKm(), 0.01)
}

func TestAccumulator_DistanceIsSumOfAcceptedLegs(t *testing.T) {
	acc := NewAccumulator()
	fixes := []Fix{
		{Lat: 52.5200, Lng: 13.4050, TimestampMs: 1000},
		{Lat: 52.5200, Lng: 13.40501, TimestampMs: 2000},
		{Lat: 52.5210, Lng: 13.4050, TimestampMs: 3000},
		{Lat: 52.5210, Lng: 13.4050, TimestampMs: 3000},
		{Lat: 52.5220, Lng: 13.4070, TimestampMs: 2500},
		{Lat: 52.5230, Lng: 13.4080, TimestampMs: 4000},
	}
	for _, f := range fixes {
		acc.FeedFix(f)
	}

	route := acc.Route()
	want := []RoutePoint{{Lat: 52.5200, Lng: 13.4050}, {Lat: 52.5210, Lng: 13.4050}, {Lat: 52.5230, Lng: 13.4080}}
	if diff := cmp.Diff(want, route); diff != "" {
		t.Fatalf("route mismatch (-want +got):\n%s", diff)
	}

	var expected float64
	for i := 1; i < len(route); i++ {
		expected += geo.HaversineMeters(route[i-1].Lat, route[i-1].Lng, route[i].Lat, route[i].Lng) / 1000
	}
	assert.InDelta(t, expected, acc.TotalDistanceKm(), 1e-12)
	assert.InDelta(t, expected, RouteDistanceKm(route), 1e-12)
}

func TestAccumulator_DuplicateTimestampIgnored(t *testing.T) {
	acc := NewAccumulator()
	acc.FeedFix(Fix{Lat: 0, Lng: 0, TimestampMs: 5})
	_, ok := acc.FeedFix(Fix{Lat: 0.01, Lng: 0, TimestampMs: 5})
	assert.False(t, ok)
	_, ok = acc.FeedFix(Fix{Lat: 0.01, Lng: 0, TimestampMs: 6})
	assert.True(t, ok)
	_, ok = acc.FeedFix(Fix{Lat: 0.02, Lng: 0, TimestampMs: 6})
	assert.False(t, ok)
	assert.Len(t, acc.Route(), 2)
}

func TestAccumulator_MalformedFix(t *testing.T) {
	acc := NewAccumulator()
	_, ok := acc.FeedFix(Fix{Lat: math.NaN(), Lng: 0, TimestampMs: 1})
	assert.False(t, ok)
	_, ok = acc.FeedFix(Fix{Lat: 91, Lng: 0, TimestampMs: 1})
	assert.False(t, ok)
	assert.Empty(t, acc.Route())

	// an unusable altitude is skipped, the fix is still taken
	_, ok = acc.FeedFix(Fix{Lat: 10, Lng: 10, AltitudeMeters: f64(math.Inf(1)), TimestampMs: 1})
	assert.True(t, ok)
	assert.Empty(t, acc.Elevations())
}

func TestAccumulator_AltitudeOptional(t *testing.T) {
	acc := NewAccumulator()
	acc.FeedFix(Fix{Lat: 0, Lng: 0, AltitudeMeters: f64(100), TimestampMs: 0})
	acc.FeedFix(Fix{Lat: 0.001, Lng: 0, TimestampMs: 1000})
	acc.FeedFix(Fix{Lat: 0.002, Lng: 0, AltitudeMeters: f64(120), TimestampMs: 2000})

	assert.Len(t, acc.Route(), 3)
	assert.Equal(t, []float64{100, 120}, acc.Elevations())
	assert.Equal(t, ElevationStats{GainMeters: 20, MaxMeters: 120}, acc.ElevationStats())
}

func TestElevationProfile(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    ElevationStats
	}{
		{"empty", nil, ElevationStats{}},
		{"single", []float64{42}, ElevationStats{MaxMeters: 42}},
		{"rolling", []float64{100, 120, 110, 130}, ElevationStats{GainMeters: 40, LossMeters: 10, MaxMeters: 130}},
		{"descent only", []float64{-5, -10, -30}, ElevationStats{LossMeters: 25, MaxMeters: -5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ElevationProfile(tc.samples))
		})
	}
}

func TestAccumulator_ClearRoute(t *testing.T) {
	acc := NewAccumulator()
	acc.FeedFix(Fix{Lat: 0, Lng: 0, AltitudeMeters: f64(10), TimestampMs: 1000})
	acc.FeedFix(Fix{Lat: 0.01, Lng: 0, AltitudeMeters: f64(20), TimestampMs: 2000})

	acc.ClearRoute()
	assert.Empty(t, acc.Route())
	assert.Empty(t, acc.Elevations())
	assert.Zero(t, acc.TotalDistanceKm())

	// an earlier timestamp is accepted as the new first point
	_, ok := acc.FeedFix(Fix{Lat: 5, Lng: 5, TimestampMs: 10})
	assert.True(t, ok)
	assert.Zero(t, acc.TotalDistanceKm())
}

func TestAccumulator_SetRoute(t *testing.T) {
	acc := NewAccumulator()
	acc.FeedFix(Fix{Lat: 0, Lng: 0, AltitudeMeters: f64(10), TimestampMs: 1000})

	// manual points are intentional, so sub-jitter spacing is kept
	manual := []RoutePoint{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0.0000001}, {Lat: 0.008993, Lng: 0.0000001}}
	acc.SetRoute(manual)

	if diff := cmp.Diff(manual, acc.Route()); diff != "" {
		t.Fatalf("route mismatch (-want +got):\n%s", diff)
	}
	assert.InEpsilon(t, 1.0, acc.TotalDistanceKm(), 0.01)
	assert.Empty(t, acc.Elevations())

	manual[0].Lat = 45
	assert.Equal(t, 0.0, acc.Route()[0].Lat, "route must not alias the caller's slice")

	acc.SetRoute(nil)
	assert.Zero(t, acc.TotalDistanceKm())
	acc.SetRoute([]RoutePoint{{Lat: 1, Lng: 1}})
	assert.Zero(t, acc.TotalDistanceKm())
}
