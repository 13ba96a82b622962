package markers

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store. It does not expire markers.
type MemoryStore struct {
	mu        sync.RWMutex
	timelines map[string]map[string]Marker
	max       int
}

// NewMemoryStore creates a store holding at most maxPerTimeline markers per
// timeline. Zero means unlimited.
func NewMemoryStore(maxPerTimeline int) *MemoryStore {
	return &MemoryStore{
		timelines: make(map[string]map[string]Marker),
		max:       maxPerTimeline,
	}
}

func (s *MemoryStore) Add(ctx context.Context, m *Marker) error {
	if err := m.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tl := s.timelines[m.Timeline]
	if tl == nil {
		tl = make(map[string]Marker)
		s.timelines[m.Timeline] = tl
	}
	if _, ok := tl[m.ID]; ok {
		return fmt.Errorf("%w: %s", ErrMarkerExists, m.ID)
	}
	if s.max > 0 && len(tl) >= s.max {
		return fmt.Errorf("%w: %s holds %d markers", ErrTimelineFull, m.Timeline, len(tl))
	}
	tl[m.ID] = *m
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, timeline, id string) (*Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.timelines[timeline][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrMarkerNotFound, timeline, id)
	}
	return &m, nil
}

func (s *MemoryStore) List(ctx context.Context, timeline string) ([]*Marker, error) {
	s.mu.RLock()
	tl := s.timelines[timeline]
	out := make([]*Marker, 0, len(tl))
	for _, m := range tl {
		m := m
		out = append(out, &m)
	}
	s.mu.RUnlock()

	Sort(out)
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, timeline, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tl := s.timelines[timeline]
	if _, ok := tl[id]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrMarkerNotFound, timeline, id)
	}
	delete(tl, id)
	if len(tl) == 0 {
		delete(s.timelines, timeline)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timelines = make(map[string]map[string]Marker)
	return nil
}
