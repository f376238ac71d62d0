package report

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mindharmony/mindharmony/internal/assessment"
)

// Store holds the current report. Appending a result replaces the current
// report with a new one. Reset drops it and starts a new generation, so work
// started for an older report can tell it was superseded.
//
// The owner and the cycle id outlive the current report: Reset keeps the
// owner and opens a new cycle, Logout forgets both.
type Store struct {
	mu         sync.Mutex
	current    *Report
	generation uint64
	owner      string
	cycleID    string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the current report, or nil.
func (s *Store) Current() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Owner returns the display name new reports are created for.
func (s *Store) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// Create starts an empty report for owner in a new cycle, replacing any
// current one.
func (s *Store) Create(owner string) *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.owner = owner
	s.cycleID = uuid.NewString()
	s.current = newReport(owner, s.cycleID, s.generation, nil)
	return s.current
}

// Append returns a new current report holding the previous results plus res.
// The new report keeps the store's owner and cycle id.
func (s *Store) Append(res assessment.Result) *Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cycleID == "" {
		s.cycleID = uuid.NewString()
	}
	var results []assessment.Result
	if s.current != nil {
		results = append(results, s.current.results...)
	}
	s.current = newReport(s.owner, s.cycleID, s.generation, append(results, res))
	return s.current
}

// Reset drops the current report and opens a new cycle for the same owner.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.cycleID = uuid.NewString()
	s.current = nil
}

// Logout drops the current report and forgets the owner.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.owner = ""
	s.cycleID = ""
	s.current = nil
}

// Generation increases on every Create, Reset and Logout.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// accepts reports whether r is still the current report.
func (s *Store) accepts(r *Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current == r && s.generation == r.generation
}
