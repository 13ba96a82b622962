// Package markers stores named cue points on timelines.
package markers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zsiec/timecode/pkg/timecode"
)

var (
	// ErrMarkerNotFound is returned when a marker does not exist on a timeline.
	ErrMarkerNotFound = errors.New("marker not found")

	// ErrTimelineFull is returned when a timeline already holds the maximum
	// number of markers.
	ErrTimelineFull = errors.New("timeline is full")

	// ErrInvalidMarker is returned for markers missing a timeline, name or timecode.
	ErrInvalidMarker = errors.New("invalid marker")

	// ErrMarkerExists is returned when adding a marker whose ID is taken.
	ErrMarkerExists = errors.New("marker already exists")
)

// Marker is a named cue point on a timeline.
type Marker struct {
	ID        string            `json:"id"`
	Timeline  string            `json:"timeline"`
	Name      string            `json:"name"`
	Timecode  timecode.Timecode `json:"timecode"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMarker builds a marker with a fresh ID.
func NewMarker(timeline, name string, tc timecode.Timecode) (*Marker, error) {
	m := &Marker{
		ID:        uuid.NewString(),
		Timeline:  timeline,
		Name:      name,
		Timecode:  tc,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the marker can be stored. Timeline names may not contain
// ':' since they are part of the storage key.
func (m *Marker) Validate() error {
	switch {
	case m.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidMarker)
	case m.Timeline == "":
		return fmt.Errorf("%w: missing timeline", ErrInvalidMarker)
	case strings.ContainsRune(m.Timeline, ':'):
		return fmt.Errorf("%w: timeline %q contains ':'", ErrInvalidMarker, m.Timeline)
	case strings.TrimSpace(m.Name) == "":
		return fmt.Errorf("%w: missing name", ErrInvalidMarker)
	case m.Timecode.IsZero():
		return fmt.Errorf("%w: missing timecode", ErrInvalidMarker)
	}
	return nil
}

// Sort orders markers by timecode, then name, then ID.
func Sort(ms []*Marker) {
	slices.SortFunc(ms, func(a, b *Marker) int {
		if c := timecode.Compare(a.Timecode, b.Timecode); c != 0 {
			return c
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Store persists markers grouped by timeline.
type Store interface {
	// Add stores a new marker.
	Add(ctx context.Context, m *Marker) error

	// Get retrieves a marker by timeline and ID.
	Get(ctx context.Context, timeline, id string) (*Marker, error)

	// List returns a timeline's markers in Sort order.
	List(ctx context.Context, timeline string) ([]*Marker, error)

	// Delete removes a marker.
	Delete(ctx context.Context, timeline, id string) error

	// Close releases resources held by the store.
	Close() error
}
