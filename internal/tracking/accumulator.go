package tracking

import (
	"math"

	"backend-fittrack/internal/shared/geo"

	"gonum.org/v1/gonum/floats"
)

const (
	// JitterMeters is the minimum move from the last accepted point for a fix
	// to be kept.
	JitterMeters = 2.0

	msToKmh = 3.6
)

// Fix is one geolocation reading. Altitude and speed are optional.
type Fix struct {
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
	AltitudeMeters *float64 `json:"altitude_m"`
	SpeedMps       *float64 `json:"speed_mps"`
	TimestampMs    int64    `json:"timestamp_ms"`
}

// RoutePoint is an accepted position on the route polyline.
type RoutePoint = geo.Point

type ElevationStats struct {
	GainMeters float64 `json:"gain_m"`
	LossMeters float64 `json:"loss_m"`
	MaxMeters  float64 `json:"max_m"`
}

// Accumulator builds a de-jittered route, its distance and an elevation
// profile from a stream of fixes. It is not safe for concurrent use.
type Accumulator struct {
	points          []RoutePoint
	elevations      []float64
	totalDistanceKm float64
	speedKmh        float64

	hasFix         bool
	lastAcceptedMs int64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// FeedFix applies one fix and returns the point appended to the route, if
// any. Out-of-order or duplicate fixes, fixes with unusable coordinates and
// fixes closer than JitterMeters to the last accepted point are dropped
// without touching state.
func (a *Accumulator) FeedFix(fix Fix) (RoutePoint, bool) {
	if !validCoordinate(fix.Lat, fix.Lng) {
		return RoutePoint{}, false
	}
	if a.hasFix && fix.TimestampMs <= a.lastAcceptedMs {
		return RoutePoint{}, false
	}

	point := RoutePoint{Lat: fix.Lat, Lng: fix.Lng}
	if len(a.points) > 0 {
		last := a.points[len(a.points)-1]
		distance := geo.HaversineMeters(last.Lat, last.Lng, point.Lat, point.Lng)
		if distance < JitterMeters {
			return RoutePoint{}, false
		}
		a.totalDistanceKm += distance / 1000
	}

	a.points = append(a.points, point)
	if alt, ok := optional(fix.AltitudeMeters); ok {
		a.elevations = append(a.elevations, alt)
	}
	if speed, ok := optional(fix.SpeedMps); ok {
		a.speedKmh = speed * msToKmh
	}
	a.hasFix = true
	a.lastAcceptedMs = fix.TimestampMs
	return point, true
}

// SetRoute replaces the route with intentionally placed points, such as taps
// on a map. No jitter filtering is applied and the distance is recomputed
// over the whole sequence. Elevation samples belong to the replaced route
// and are dropped.
func (a *Accumulator) SetRoute(points []RoutePoint) {
	a.points = append([]RoutePoint(nil), points...)
	a.elevations = nil
	a.totalDistanceKm = RouteDistanceKm(a.points)
}

// ClearRoute empties the route so the next fix is treated as the first one.
func (a *Accumulator) ClearRoute() {
	*a = Accumulator{}
}

func (a *Accumulator) Route() []RoutePoint {
	return append([]RoutePoint(nil), a.points...)
}

func (a *Accumulator) Elevations() []float64 {
	return append([]float64(nil), a.elevations...)
}

func (a *Accumulator) TotalDistanceKm() float64 {
	return a.totalDistanceKm
}

// SpeedKmh is the speed reported by the most recent accepted fix.
func (a *Accumulator) SpeedKmh() float64 {
	return a.speedKmh
}

func (a *Accumulator) ElevationStats() ElevationStats {
	return ElevationProfile(a.elevations)
}

// ElevationProfile sums the climbs and descents between successive samples.
func ElevationProfile(samples []float64) ElevationStats {
	if len(samples) == 0 {
		return ElevationStats{}
	}
	var stats ElevationStats
	for i := 1; i < len(samples); i++ {
		diff := samples[i] - samples[i-1]
		if diff > 0 {
			stats.GainMeters += diff
		} else {
			stats.LossMeters -= diff
		}
	}
	stats.MaxMeters = floats.Max(samples)
	return stats
}

// RouteDistanceKm sums the great-circle legs of an ordered route.
func RouteDistanceKm(points []RoutePoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		total += geo.HaversineMeters(prev.Lat, prev.Lng, cur.Lat, cur.Lng)
	}
	return total / 1000
}

func optional(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

func validCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
