package scheduler

import (
	"sync"

	"github.com/thinmanj/logseq-enricher/internal/domain"
)

// Stats aggregates run counters. All mutation goes through methods; the
// scheduler owns the instance and the usecase reads a snapshot after drain.
type Stats struct {
	mu          sync.Mutex
	submitted   map[domain.JobKind]int
	completed   map[domain.JobKind]int
	failed      map[domain.JobKind]int
	rateLimited int
	retried     int
	cancelled   int
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{
		submitted: make(map[domain.JobKind]int),
		completed: make(map[domain.JobKind]int),
		failed:    make(map[domain.JobKind]int),
	}
}

func (s *Stats) addSubmitted(kind domain.JobKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted[kind]++
}

func (s *Stats) addCompleted(kind domain.JobKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[kind]++
}

func (s *Stats) addFailed(kind domain.JobKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[kind]++
}

func (s *Stats) addRateLimited() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimited++
}

func (s *Stats) addRetried() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retried++
}

func (s *Stats) addCancelled(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled += n
}

// Snapshot is an immutable copy of the counters.
type Snapshot struct {
	Submitted   map[domain.JobKind]int
	Completed   map[domain.JobKind]int
	Failed      map[domain.JobKind]int
	RateLimited int
	Retried     int
	Cancelled   int
}

// Snapshot copies the current counter values.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Submitted:   make(map[domain.JobKind]int, len(s.submitted)),
		Completed:   make(map[domain.JobKind]int, len(s.completed)),
		Failed:      make(map[domain.JobKind]int, len(s.failed)),
		RateLimited: s.rateLimited,
		Retried:     s.retried,
		Cancelled:   s.cancelled,
	}
	for k, v := range s.submitted {
		snap.Submitted[k] = v
	}
	for k, v := range s.completed {
		snap.Completed[k] = v
	}
	for k, v := range s.failed {
		snap.Failed[k] = v
	}
	return snap
}

// TotalFailed sums failures across kinds.
func (s Snapshot) TotalFailed() int {
	n := 0
	for _, v := range s.Failed {
		n += v
	}
	return n
}

// TotalCompleted sums completions across kinds.
func (s Snapshot) TotalCompleted() int {
	n := 0
	for _, v := range s.Completed {
		n += v
	}
	return n
}
