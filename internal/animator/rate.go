package animator

import (
	"math"
	"time"
)

const (
	// BaseFrameDuration is the frame duration at the slowest playback speed.
	BaseFrameDuration = 200 * time.Millisecond

	// IdleSample is the CPU value assumed before the first real sample.
	IdleSample = 1.0

	cpuPerSpeedStep = 5.0
	minSpeedup      = 1.0
	maxSpeedup      = 20.0
	baseFrameMillis = 200.0
)

// Speedup converts a CPU percentage into a playback multiplier in [1, 20].
// NaN maps to the slowest speed.
func Speedup(cpuPercent float64) float64 {
	if math.IsNaN(cpuPercent) {
		return minSpeedup
	}

	capped := math.Min(maxSpeedup, cpuPercent/cpuPerSpeedStep)

	return math.Max(minSpeedup, capped)
}

// DelayMillis returns the frame delay in milliseconds for a CPU percentage.
// The result is always within [10, 200] and never increases as cpuPercent grows.
func DelayMillis(cpuPercent float64) uint64 {
	return uint64(math.Round(baseFrameMillis / Speedup(cpuPercent)))
}

// Delay is DelayMillis as a time.Duration.
func Delay(cpuPercent float64) time.Duration {
	return time.Duration(DelayMillis(cpuPercent)) * time.Millisecond
}
