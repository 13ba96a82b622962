package timecode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxSegments is frames, seconds, minutes and hours.
const maxSegments = 4

// Parse reads a timecode of the form [+]HH:MM:SS:FF at the given rate.
//
// Segments are read right to left as frames, seconds, minutes and hours, and
// missing leading segments are zero, so "12:05" is 12 seconds and 5 frames.
// The last separator may be ';', the drop-frame notation written by String.
// Segment values are not range checked: "00:00:90:00" is 1m30s.
//
// A leading '-' on otherwise well-formed text is rejected with
// ErrNegativeTimecode. Text that does not match the grammar, signed or not,
// yields a *ParseError wrapping ErrMalformedTimecode.
func Parse(text string, fps float64, dropFrame bool) (Timecode, error) {
	rate, err := RoundRate(fps)
	if err != nil {
		return Timecode{}, err
	}
	segs, err := scan(text)
	if err != nil {
		return Timecode{}, &ParseError{Input: text, Err: err}
	}
	n, err := combine(segs, rate)
	if err != nil {
		return Timecode{}, &ParseError{Input: text, Err: err}
	}
	return build(n, rate, dropFrame)
}

// MustParse is like Parse but panics if text is not a valid timecode.
func MustParse(text string, fps float64, dropFrame bool) Timecode {
	t, err := Parse(text, fps, dropFrame)
	if err != nil {
		panic(err)
	}
	return t
}

// scan splits text into its segments, frames first.
func scan(text string) ([maxSegments]int64, error) {
	var segs [maxSegments]int64

	body := text
	negative := false
	switch {
	case strings.HasPrefix(body, "+"):
		body = body[1:]
	case strings.HasPrefix(body, "-"):
		body = body[1:]
		negative = true
	}
	if body == "" {
		return segs, fmt.Errorf("%w: empty", ErrMalformedTimecode)
	}

	// Only the separator before the frames may be ';'.
	if i := strings.LastIndexByte(body, ';'); i >= 0 {
		if strings.IndexByte(body[i+1:], ':') >= 0 || strings.Count(body, ";") > 1 {
			return segs, fmt.Errorf("%w: ';' may only precede frames", ErrMalformedTimecode)
		}
		body = body[:i] + ":" + body[i+1:]
	}

	parts := strings.Split(body, ":")
	if len(parts) > maxSegments {
		return segs, fmt.Errorf("%w: %d segments, at most %d allowed", ErrMalformedTimecode, len(parts), maxSegments)
	}
	for i, part := range parts {
		v, err := segment(part)
		if err != nil {
			return segs, err
		}
		segs[len(parts)-1-i] = v
	}
	if negative {
		return segs, ErrNegativeTimecode
	}
	return segs, nil
}

// segment parses one run of decimal digits.
func segment(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty segment", ErrMalformedTimecode)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: segment %q is not a number", ErrMalformedTimecode, s)
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: segment %q out of range", ErrMalformedTimecode, s)
		}
		return 0, fmt.Errorf("%w: %v", ErrMalformedTimecode, err)
	}
	return v, nil
}

// combine folds frames, seconds, minutes and hours into a frame count:
// s0 + s1*rate + s2*rate*60 + s3*rate*3600.
func combine(segs [maxSegments]int64, rate int) (int64, error) {
	r := int64(rate)
	mult := [maxSegments]int64{1, r, r * 60, r * 3600}
	var total int64
	for i, s := range segs {
		if s < 0 {
			return 0, fmt.Errorf("%w: component %d", ErrNegativeTimecode, s)
		}
		if s > (math.MaxInt64-total)/mult[i] {
			return 0, fmt.Errorf("%w: frame count overflows", ErrMalformedTimecode)
		}
		total += s * mult[i]
	}
	return total, nil
}
