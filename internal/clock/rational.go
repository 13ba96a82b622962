package clock

import "math"

// Rational represents a rational number (numerator/denominator).
type Rational struct {
	Num int64
	Den int64
}

// Float64 returns the floating point representation.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// NTSC frame rates
var (
	FrameRate23_976 = Rational{Num: 24000, Den: 1001}
	FrameRate29_97  = Rational{Num: 30000, Den: 1001}
	FrameRate59_94  = Rational{Num: 60000, Den: 1001}
)

// FrameRateOf returns the exact rate for fps. Rates within a millihertz of
// an NTSC rate map to the 1001 denominator; others keep millihertz precision.
func FrameRateOf(fps float64) Rational {
	for _, r := range []Rational{FrameRate23_976, FrameRate29_97, FrameRate59_94} {
		if math.Abs(fps-r.Float64()) < 1e-3 {
			return r
		}
	}
	return Rational{Num: int64(math.Round(fps * 1000)), Den: 1000}
}
