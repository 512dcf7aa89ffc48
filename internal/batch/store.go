package batch

import (
	"errors"
	"sync"
)

// ErrCandidateNotFound is returned when an ID is not in the batch.
var ErrCandidateNotFound = errors.New("candidate not found")

// Store owns the candidate list of one session. Every write builds a new
// slice and swaps it in, so a Snapshot never observes a partial update.
type Store struct {
	mu         sync.RWMutex
	candidates []Candidate
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a deep copy of the current candidate list.
func (s *Store) Snapshot() []Candidate {
	s.mu.RLock()
	cur := s.candidates
	s.mu.RUnlock()

	out := make([]Candidate, len(cur))
	for i, c := range cur {
		out[i] = c.Clone()
	}
	return out
}

// Len returns the number of candidates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candidates)
}

// Get returns a copy of the candidate with the given ID.
func (s *Store) Get(id string) (Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.candidates {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return Candidate{}, ErrCandidateNotFound
}

// Replace swaps in a new batch.
func (s *Store) Replace(candidates []Candidate) {
	next := make([]Candidate, len(candidates))
	for i, c := range candidates {
		next[i] = c.Clone()
	}

	s.mu.Lock()
	s.candidates = next
	s.mu.Unlock()
}

// Append adds candidates to the end of the batch.
func (s *Store) Append(candidates ...Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Candidate, 0, len(s.candidates)+len(candidates))
	next = append(next, s.candidates...)
	for _, c := range candidates {
		next = append(next, c.Clone())
	}
	s.candidates = next
}

// Update applies fn to the candidate with the given ID and returns the result.
func (s *Store) Update(id string, fn func(Candidate) Candidate) (Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.candidates {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Candidate{}, ErrCandidateNotFound
	}

	next := make([]Candidate, len(s.candidates))
	copy(next, s.candidates)
	next[idx] = fn(next[idx].Clone())
	s.candidates = next

	return next[idx].Clone(), nil
}

// Clear empties the batch.
func (s *Store) Clear() {
	s.mu.Lock()
	s.candidates = nil
	s.mu.Unlock()
}

// Stats computes statistics over the current batch.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeStats(s.candidates)
}
