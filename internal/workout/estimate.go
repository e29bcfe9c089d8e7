package workout

import "math"

const (
	cyclingKcalPerSecond = 0.15 // ~9 kcal per minute
	boxingKcalPerPunch   = 0.15
)

func CyclingCalories(durationSec int64) float64 {
	if durationSec <= 0 {
		return 0
	}
	return float64(durationSec) * cyclingKcalPerSecond
}

func BoxingCalories(punches int) float64 {
	return float64(punches) * boxingKcalPerPunch
}

// AverageSpeedKmh is distance over elapsed time, zero for an empty session.
func AverageSpeedKmh(distanceKm float64, durationSec int64) float64 {
	if durationSec <= 0 {
		return 0
	}
	return distanceKm / (float64(durationSec) / 3600)
}

// BoxingAverageIntensity scores a session's work rate on a 0-100 scale.
func BoxingAverageIntensity(punches int, durationSec int64) float64 {
	if durationSec <= 0 {
		return 0
	}
	return math.Min(100, float64(punches)/float64(durationSec)*10)
}
