package timecode

import (
	"fmt"
	"math"
)

// Nominal frame rates. Fractional NTSC rates round to their integer
// counterpart when a Timecode is built.
const (
	FPS23976 = 24000.0 / 1001.0
	FPS24    = 24.0
	FPS25    = 25.0
	FPS2997  = 30000.0 / 1001.0
	FPS30    = 30.0
	FPS50    = 50.0
	FPS5994  = 60000.0 / 1001.0
	FPS60    = 60.0

	// DefaultRate is the rate assumed when a caller has none.
	DefaultRate = FPS24
)

// maxRate bounds the integer rate so the hour multiplier stays well inside int64.
const maxRate = math.MaxInt32

// RoundRate converts a frame rate to the integer rate used for component
// math. It rounds to the nearest integer with ties away from zero, so 23.5
// becomes 24 and 0.5 becomes 1.
func RoundRate(fps float64) (int, error) {
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRate, fps)
	}
	r := math.Round(fps)
	if r < 1 || r > maxRate {
		return 0, fmt.Errorf("%w: %v rounds to %v", ErrInvalidRate, fps, r)
	}
	return int(r), nil
}

// dropFrameCompatible reports whether drop-frame display is meaningful at rate.
func dropFrameCompatible(rate int) bool {
	return rate%30 == 0
}
