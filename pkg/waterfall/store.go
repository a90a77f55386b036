// Package waterfall keeps the bounded time history of spectral rows
// that the renderer draws. The visually infinite scroll is a fixed ring
// so memory and redraw cost stay constant regardless of session length.
package waterfall

import (
	"sync"

	"github.com/pmoser/panwave/pkg/dsp"
)

// Store is a fixed-capacity ring of rows. Single writer (the analysis
// loop) and single reader (the render loop); the update rate is tens of
// rows per second, so a mutex is plenty. A row is only ever published
// whole: Push takes a fully computed row, Snapshot copies under the
// lock, so no reader observes a torn row.
type Store struct {
	mu   sync.Mutex
	rows []dsp.Row
	head int // index of the next write slot
	n    int // number of valid rows
}

// New returns a store holding at most capacity rows.
func New(capacity int) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{rows: make([]dsp.Row, capacity)}
}

// Push appends a row, evicting the oldest when at capacity.
func (s *Store) Push(r dsp.Row) {
	s.mu.Lock()
	s.rows[s.head] = r
	s.head = (s.head + 1) % len(s.rows)
	if s.n < len(s.rows) {
		s.n++
	}
	s.mu.Unlock()
}

// Snapshot returns the current rows oldest first. The returned slice is
// the caller's; the row bin slices are shared but never mutated after
// publication.
func (s *Store) Snapshot() []dsp.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dsp.Row, s.n)
	start := (s.head - s.n + len(s.rows)) % len(s.rows)
	for i := 0; i < s.n; i++ {
		out[i] = s.rows[(start+i)%len(s.rows)]
	}
	return out
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Cap returns the configured capacity.
func (s *Store) Cap() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Resize changes the capacity, keeping the newest rows that fit.
// Called from the render loop on terminal resize.
func (s *Store) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if capacity == len(s.rows) {
		return
	}
	keep := s.n
	if keep > capacity {
		keep = capacity
	}
	rows := make([]dsp.Row, capacity)
	start := (s.head - keep + len(s.rows)) % len(s.rows)
	for i := 0; i < keep; i++ {
		rows[i] = s.rows[(start+i)%len(s.rows)]
	}
	s.rows = rows
	s.head = keep % capacity
	s.n = keep
}
