package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/healthaccess/metric"
)

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu      sync.RWMutex
	samples map[metric.Metric][]Sample
	profile Profile
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		samples: make(map[metric.Metric][]Sample),
	}
}

// Add stores samples. Either all samples are stored or none.
func (s *MemoryStore) Add(_ context.Context, samples ...Sample) error {
	normalized := make([]Sample, 0, len(samples))
	for _, sample := range samples {
		n, err := normalizeSample(sample)
		if err != nil {
			return err
		}
		normalized = append(normalized, n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	for _, n := range normalized {
		s.samples[n.Metric] = append(s.samples[n.Metric], n)
	}
	return nil
}

// SetProfile replaces the stored characteristics.
func (s *MemoryStore) SetProfile(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	s.profile = p
	return nil
}

// Latest implements SampleStore.
func (s *MemoryStore) Latest(_ context.Context, m metric.Metric, until time.Time) (Sample, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Sample{}, false, ErrStoreClosed
	}

	var (
		best  Sample
		found bool
	)
	for _, sample := range s.samples[m] {
		if sample.End.After(until) {
			continue
		}
		// Ties go to the later insert.
		if !found || !sample.Start.Before(best.Start) {
			best = sample
			found = true
		}
	}
	return best, found, nil
}

// Sum implements SampleStore.
func (s *MemoryStore) Sum(_ context.Context, m metric.Metric, from, until time.Time) (float64, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, 0, ErrStoreClosed
	}

	var (
		total float64
		count int
	)
	for _, sample := range s.samples[m] {
		if sample.Start.Before(from) || sample.End.After(until) {
			continue
		}
		total += sample.Value
		count++
	}
	return total, count, nil
}

// Profile implements SampleStore.
func (s *MemoryStore) Profile(_ context.Context) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Profile{}, ErrStoreClosed
	}
	return s.profile, nil
}

// Close implements SampleStore. It is idempotent.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.samples = nil
	s.mu.Unlock()
	return nil
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
