package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/healthaccess/metric"
)

// Sample is one recorded measurement of a point or cumulative metric.
// Value is expressed in Metric.Unit().
type Sample struct {
	Metric metric.Metric
	Value  float64
	Start  time.Time
	End    time.Time
}

// Profile holds the characteristic data set once at account setup.
// A zero BirthDate means the date of birth was never recorded.
type Profile struct {
	Sex       BiologicalSex
	BloodType BloodGroup
	BirthDate time.Time
}

// SampleStore is the read side of a health sample backend.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Metrics: callers pass canonical metrics.
// - Errors: a missing record is reported by ok=false or count=0, not by error.
type SampleStore interface {
	// Latest returns the sample with the newest start time whose end is not
	// after until.
	Latest(ctx context.Context, m metric.Metric, until time.Time) (s Sample, ok bool, err error)

	// Sum totals samples starting at or after from and ending at or before until.
	Sum(ctx context.Context, m metric.Metric, from, until time.Time) (total float64, count int, err error)

	// Profile returns the stored characteristics.
	Profile(ctx context.Context) (Profile, error)

	// Close releases backend resources.
	Close() error
}

// SampleWriter is the write side used to seed a store.
type SampleWriter interface {
	Add(ctx context.Context, samples ...Sample) error
	SetProfile(ctx context.Context, p Profile) error
}

// Store is a backend that can be both seeded and queried.
type Store interface {
	SampleStore
	SampleWriter
}

// normalizeSample validates s and rewrites its metric to the canonical one.
func normalizeSample(s Sample) (Sample, error) {
	if !s.Metric.Valid() {
		return s, fmt.Errorf("%w: unknown metric %v", ErrInvalidSample, s.Metric)
	}
	if s.Metric.Kind() == metric.KindCharacteristic {
		return s, fmt.Errorf("%w: %s is a characteristic, set it on the profile", ErrInvalidSample, s.Metric)
	}
	if s.End.IsZero() {
		s.End = s.Start
	}
	if s.Start.IsZero() || s.End.Before(s.Start) {
		return s, fmt.Errorf("%w: %s has an invalid time range", ErrInvalidSample, s.Metric)
	}
	s.Metric = s.Metric.Canonical()
	return s, nil
}
