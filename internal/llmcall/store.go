package llmcall

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistorySize is the number of calls kept when no size is configured.
const DefaultHistorySize = 200

// Store keeps the most recent LLM calls in memory, oldest evicted first.
// A nil *Store is valid and records nothing.
type Store struct {
	mu    sync.RWMutex
	calls []Call // ring buffer
	next  int
	full  bool
}

// NewStore creates a store holding at most size calls.
func NewStore(size int) *Store {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &Store{calls: make([]Call, size)}
}

// QueryFilter specifies filters for listing LLM calls.
type QueryFilter struct {
	Label    string
	Provider string
	Model    string
	After    *time.Time
	Before   *time.Time
	Success  *bool
	Limit    int
	Offset   int
}

// Record stores a call. Calls without an ID are assigned one.
func (s *Store) Record(call *Call) {
	if s == nil || call == nil {
		return
	}
	c := *call
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[s.next] = c
	s.next = (s.next + 1) % len(s.calls)
	if s.next == 0 {
		s.full = true
	}
}

// Get retrieves a single LLM call by ID. Returns nil if it is not retained.
func (s *Store) Get(id string) *Call {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.newestFirst() {
		if c.ID == id {
			found := c
			return &found
		}
	}
	return nil
}

// List retrieves LLM calls matching the filter, newest first.
func (s *Store) List(filter QueryFilter) []Call {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Call
	skipped := 0
	for _, c := range s.newestFirst() {
		if !filter.matches(c) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, c)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out
}

// Counts returns the number of retained calls grouped by model, plus the
// number of failures under the "failed" key.
func (s *Store) Counts() map[string]int {
	counts := make(map[string]int)
	for _, c := range s.List(QueryFilter{}) {
		counts[c.Model]++
		if !c.Success {
			counts["failed"]++
		}
	}
	return counts
}

// Len returns the number of retained calls.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.full {
		return len(s.calls)
	}
	return s.next
}

// newestFirst must be called with the lock held.
func (s *Store) newestFirst() []Call {
	n := s.next
	if s.full {
		n = len(s.calls)
	}
	out := make([]Call, 0, n)
	for i := 1; i <= n; i++ {
		idx := (s.next - i + len(s.calls)) % len(s.calls)
		out = append(out, s.calls[idx])
	}
	return out
}

func (f QueryFilter) matches(c Call) bool {
	if f.Label != "" && c.Label != f.Label {
		return false
	}
	if f.Provider != "" && c.Provider != f.Provider {
		return false
	}
	if f.Model != "" && c.Model != f.Model {
		return false
	}
	if f.Success != nil && c.Success != *f.Success {
		return false
	}
	if f.After != nil && !c.Timestamp.After(*f.After) {
		return false
	}
	if f.Before != nil && !c.Timestamp.Before(*f.Before) {
		return false
	}
	return true
}
