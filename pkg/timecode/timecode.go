package timecode

import (
	"fmt"
)

// Timecode is a frame position on a timeline at an integer frame rate.
// The zero value is not a valid timecode; build one with New or Parse.
type Timecode struct {
	frame int64
	rate  int
	drop  bool
}

// New returns the timecode at frame number frames for the given rate.
// The rate is rounded with RoundRate.
func New(frames int64, fps float64, dropFrame bool) (Timecode, error) {
	rate, err := RoundRate(fps)
	if err != nil {
		return Timecode{}, err
	}
	return build(frames, rate, dropFrame)
}

// MustNew is like New but panics if the timecode is invalid.
func MustNew(frames int64, fps float64, dropFrame bool) Timecode {
	t, err := New(frames, fps, dropFrame)
	if err != nil {
		panic(err)
	}
	return t
}

// FromComponents returns the timecode for the given hours, minutes,
// seconds and frames. Components are not range checked, so 90 seconds is
// the same position as 1 minute 30 seconds.
func FromComponents(hours, minutes, seconds, frames int64, fps float64, dropFrame bool) (Timecode, error) {
	rate, err := RoundRate(fps)
	if err != nil {
		return Timecode{}, err
	}
	n, err := combine([4]int64{frames, seconds, minutes, hours}, rate)
	if err != nil {
		return Timecode{}, err
	}
	return build(n, rate, dropFrame)
}

// build validates an already rounded rate and a frame count.
func build(frames int64, rate int, dropFrame bool) (Timecode, error) {
	if rate <= 0 {
		return Timecode{}, fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}
	if frames < 0 {
		return Timecode{}, fmt.Errorf("%w: frame %d", ErrNegativeTimecode, frames)
	}
	if dropFrame && !dropFrameCompatible(rate) {
		return Timecode{}, fmt.Errorf("%w: got %d fps", ErrInvalidDropFrameRate, rate)
	}
	return Timecode{frame: frames, rate: rate, drop: dropFrame}, nil
}

// FrameNumber returns the absolute frame count from frame 0.
func (t Timecode) FrameNumber() int64 { return t.frame }

// Rate returns the integer frame rate.
func (t Timecode) Rate() int { return t.rate }

// DropFrame reports whether the timecode is displayed as drop-frame.
func (t Timecode) DropFrame() bool { return t.drop }

// IsZero reports whether t is the zero value rather than a built timecode.
func (t Timecode) IsZero() bool { return t.rate == 0 }

// Frames returns the frames field of the display representation.
func (t Timecode) Frames() int64 {
	_, _, _, f := t.components()
	return f
}

// Seconds returns the seconds field of the display representation.
func (t Timecode) Seconds() int64 {
	_, _, s, _ := t.components()
	return s
}

// Minutes returns the minutes field of the display representation.
func (t Timecode) Minutes() int64 {
	_, m, _, _ := t.components()
	return m
}

// Hours returns the hours field of the display representation. It is not
// wrapped at 24.
func (t Timecode) Hours() int64 {
	h, _, _, _ := t.components()
	return h
}

// components splits the display frame count. The zero value yields all zeros.
func (t Timecode) components() (hours, minutes, seconds, frames int64) {
	if t.rate == 0 {
		return 0, 0, 0, 0
	}
	n, rate := t.display(), int64(t.rate)
	frames = n % rate
	seconds = n / rate % 60
	minutes = n / rate / 60 % 60
	hours = n / rate / 60 / 60
	return hours, minutes, seconds, frames
}

// display is the frame count the components are derived from.
func (t Timecode) display() int64 {
	if !t.drop {
		return t.frame
	}
	return t.frame + dropFrameOffset(t.frame, t.rate)
}

// Add returns t+u. Both timecodes must be compatible.
func (t Timecode) Add(u Timecode) (Timecode, error) {
	if !t.Compatible(u) {
		return Timecode{}, incompatible("add", t, u)
	}
	// Overflow wraps negative and is rejected by build.
	return build(t.frame+u.frame, t.rate, t.drop)
}

// Sub returns t-u. Both timecodes must be compatible and the result may not
// be negative.
func (t Timecode) Sub(u Timecode) (Timecode, error) {
	if !t.Compatible(u) {
		return Timecode{}, incompatible("subtract", t, u)
	}
	return build(t.frame-u.frame, t.rate, t.drop)
}

// AddFrames returns t moved by n frames, which may be negative.
func (t Timecode) AddFrames(n int64) (Timecode, error) {
	return build(t.frame+n, t.rate, t.drop)
}

func incompatible(op string, t, u Timecode) error {
	return fmt.Errorf("%w: cannot %s %s and %s", ErrIncompatibleRates, op, t.describe(), u.describe())
}

// describe names the rate and drop flag of t for error messages.
func (t Timecode) describe() string {
	if t.drop {
		return fmt.Sprintf("%d fps drop-frame", t.rate)
	}
	return fmt.Sprintf("%d fps", t.rate)
}
