package timecode

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRate is returned for a frame rate that is not a positive number.
	ErrInvalidRate = errors.New("timecode: invalid frame rate")

	// ErrNegativeTimecode is returned when a supplied or computed frame count is negative.
	ErrNegativeTimecode = errors.New("timecode: negative timecodes are not supported")

	// ErrInvalidDropFrameRate is returned when drop-frame is requested for a
	// rate that is not a multiple of 30.
	ErrInvalidDropFrameRate = errors.New("timecode: drop-frame requires a rate divisible by 30")

	// ErrMalformedTimecode is returned when text does not match the timecode grammar.
	ErrMalformedTimecode = errors.New("timecode: malformed timecode")

	// ErrIncompatibleRates is returned when an operation combines timecodes
	// with different rates or drop-frame flags.
	ErrIncompatibleRates = errors.New("timecode: timecodes must share rate and drop-frame flag")
)

// ParseError records a failed attempt to parse a timecode string.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing timecode %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
