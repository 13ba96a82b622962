// Package timecode implements broadcast timecode values: a frame-accurate
// position on a timeline displayed as HH:MM:SS:FF and backed by an absolute
// frame count and an integer frame rate.
//
// A Timecode is built once, from a frame count with New or from text with
// Parse, and never changes afterwards. Arithmetic returns new values:
//
//	a := timecode.MustParse("01:02:03:04", timecode.FPS24, false)
//	b, err := a.Add(timecode.MustNew(20, timecode.FPS24, false))
//	// b.String() == "01:02:04:00"
//
// Fractional rates are rounded to the nearest whole number, ties away from
// zero (23.976 becomes 24, 29.97 becomes 30). Drop-frame timecodes are only
// accepted for rates that are a multiple of 30 and are displayed with a ';'
// before the frames field. The drop-frame flag only affects display; the
// stored frame count is never dropped.
//
// Timecodes sharing a rate and drop-frame flag are compatible. Arithmetic
// and Equal require compatibility and fail with ErrIncompatibleRates
// otherwise. Compare defines a total order over all timecodes (rate, then
// drop-frame flag, then frame count) so values can be sorted or kept in a
// Set regardless of rate.
//
// All values are immutable and safe for concurrent use.
package timecode
