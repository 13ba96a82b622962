package timecode

import "cmp"

// Compatible reports whether a and b share frame rate and drop-frame flag.
func Compatible(a, b Timecode) bool {
	return a.rate == b.rate && a.drop == b.drop
}

// Compatible reports whether t and u share frame rate and drop-frame flag.
func (t Timecode) Compatible(u Timecode) bool {
	return Compatible(t, u)
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to
// or after b. Timecodes are ordered by rate, then non-drop before drop-frame,
// then by frame count, so compatible timecodes compare by position alone.
func Compare(a, b Timecode) int {
	if c := cmp.Compare(a.rate, b.rate); c != 0 {
		return c
	}
	if a.drop != b.drop {
		if a.drop {
			return 1
		}
		return -1
	}
	return cmp.Compare(a.frame, b.frame)
}

// Before reports whether t sorts before u.
func (t Timecode) Before(u Timecode) bool { return Compare(t, u) < 0 }

// After reports whether t sorts after u.
func (t Timecode) After(u Timecode) bool { return Compare(t, u) > 0 }

// Equal reports whether t and u are the same position. Unlike ==, which is
// simply false for timecodes at different rates, Equal refuses to compare
// incompatible timecodes and returns ErrIncompatibleRates.
func (t Timecode) Equal(u Timecode) (bool, error) {
	if !t.Compatible(u) {
		return false, incompatible("compare", t, u)
	}
	return t.frame == u.frame, nil
}
