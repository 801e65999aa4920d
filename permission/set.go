package permission

import (
	"strings"
	"sync"

	"github.com/jonwraymond/healthaccess/metric"
)

// Set is the collection of currently requested metrics.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Membership: only canonical catalog metrics are ever stored.
type Set struct {
	mu      sync.RWMutex
	members map[metric.Metric]struct{}
}

// New creates a set with the given metrics switched on.
func New(ms ...metric.Metric) *Set {
	s := &Set{members: make(map[metric.Metric]struct{}, len(ms))}
	for _, m := range ms {
		s.Toggle(m, true)
	}
	return s
}

// Toggle switches m on or off. Toggling to the current state is a no-op.
// It returns false, leaving the set untouched, when m is not in the catalog.
func (s *Set) Toggle(m metric.Metric, enabled bool) bool {
	if !m.Valid() {
		return false
	}
	m = m.Canonical()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.members == nil {
		s.members = make(map[metric.Metric]struct{})
	}
	if enabled {
		s.members[m] = struct{}{}
	} else {
		delete(s.members, m)
	}
	return true
}

// Contains reports whether m (or the metric it aliases) is switched on.
func (s *Set) Contains(m metric.Metric) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.members[m.Canonical()]
	return ok
}

// IsEmpty reports whether nothing is switched on.
func (s *Set) IsEmpty() bool {
	return s.Len() == 0
}

// Len returns the number of requested metrics.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// Snapshot returns a copy of the requested metrics in catalog order.
func (s *Set) Snapshot() []metric.Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]metric.Metric, 0, len(s.members))
	for _, m := range metric.All() {
		if _, ok := s.members[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Key returns a deterministic identifier for the current membership.
// Two sets with the same members always share a key.
func (s *Set) Key() string {
	snap := s.Snapshot()
	ids := make([]string, len(snap))
	for i, m := range snap {
		ids[i] = m.String()
	}
	return strings.Join(ids, ",")
}
