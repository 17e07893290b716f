package track

import (
	"sort"
	"sync"
	"time"

	"luftraum/internal/sbs"
)

// Position is a latitude/longitude/altitude tuple taken from the tails of
// the three position sequences.
type Position struct {
	LatDeg float64 `json:"lat_deg"`
	LonDeg float64 `json:"lon_deg"`
	AltFt  int     `json:"alt_ft"`
}

// Store owns every Track. All methods take the single store lock for their
// duration only and are no-ops or return absent results for unknown ids.
type Store struct {
	mu     sync.Mutex
	tracks map[string]*Track
}

func NewStore() *Store {
	return &Store{tracks: make(map[string]*Track)}
}

// Update applies a decoded message. It reports whether a new track was
// created.
func (s *Store) Update(m sbs.Message) bool {
	if s == nil || m.Address == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tracks[m.Address]
	if !ok {
		s.tracks[m.Address] = newTrack(m)
		return true
	}
	t.apply(m)
	return false
}

// LatestPosition returns the position only when latitude, longitude and
// altitude are all present at their tails.
func (s *Store) LatestPosition(id string) (Position, bool) {
	if s == nil {
		return Position{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return latestPosition(s.tracks[id])
}

func latestPosition(t *Track) (Position, bool) {
	if t == nil {
		return Position{}, false
	}
	return t.Position()
}

// Latest returns the tail of one variable sequence of track id.
func Latest[T any](s *Store, id string, f Field[T]) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracks[id]
	if !ok {
		return zero, false
	}
	return f.Latest(t)
}

// CallSign returns the last non-empty call sign, or UnknownCallSign.
func (s *Store) CallSign(id string) string {
	if s == nil {
		return UnknownCallSign
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracks[id]
	if !ok || t.CallSign == "" {
		return UnknownCallSign
	}
	return t.CallSign
}

// IDs returns every tracked address in no particular order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tracks))
	for id := range s.tracks {
		out = append(out, id)
	}
	return out
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracks)
}

// AgeAll adds delta to every track's LastSeen.
func (s *Store) AgeAll(delta time.Duration) {
	if s == nil || delta <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ageLocked(delta)
}

// Evict removes tracks whose LastSeen is at or beyond threshold and returns
// their ids sorted.
func (s *Store) Evict(threshold time.Duration) []string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(threshold)
}

// AgeAndEvict ages and evicts under one lock acquisition.
func (s *Store) AgeAndEvict(delta, threshold time.Duration) []string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if delta > 0 {
		s.ageLocked(delta)
	}
	return s.evictLocked(threshold)
}

func (s *Store) ageLocked(delta time.Duration) {
	for _, t := range s.tracks {
		t.LastSeen += delta
	}
}

func (s *Store) evictLocked(threshold time.Duration) []string {
	var out []string
	for id, t := range s.tracks {
		if t.LastSeen >= threshold {
			delete(s.tracks, id)
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Remove deletes track id and reports whether it existed.
func (s *Store) Remove(id string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tracks[id]; !ok {
		return false
	}
	delete(s.tracks, id)
	return true
}

// Get returns a deep copy of track id.
func (s *Store) Get(id string) (Track, bool) {
	if s == nil {
		return Track{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracks[id]
	if !ok {
		return Track{}, false
	}
	return t.clone(), true
}
