package timecode

import "slices"

// Set is a sorted collection of distinct timecodes ordered by Compare.
// Timecodes at different rates can share a set. A Set must not be mutated
// concurrently.
type Set struct {
	items []Timecode
}

// NewSet returns a set holding tcs.
func NewSet(tcs ...Timecode) *Set {
	s := &Set{}
	for _, t := range tcs {
		s.Insert(t)
	}
	return s
}

// Insert adds t and reports whether it was not already present.
func (s *Set) Insert(t Timecode) bool {
	i, found := slices.BinarySearchFunc(s.items, t, Compare)
	if found {
		return false
	}
	s.items = slices.Insert(s.items, i, t)
	return true
}

// Contains reports whether t is in the set.
func (s *Set) Contains(t Timecode) bool {
	_, found := slices.BinarySearchFunc(s.items, t, Compare)
	return found
}

// Remove deletes t and reports whether it was present.
func (s *Set) Remove(t Timecode) bool {
	i, found := slices.BinarySearchFunc(s.items, t, Compare)
	if !found {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

// Len returns the number of timecodes in the set.
func (s *Set) Len() int { return len(s.items) }

// Values returns the timecodes in ascending order.
func (s *Set) Values() []Timecode {
	return slices.Clone(s.items)
}

// Range calls fn for each timecode in ascending order until fn returns false.
func (s *Set) Range(fn func(Timecode) bool) {
	for _, t := range s.items {
		if !fn(t) {
			return
		}
	}
}
