package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/healthaccess/metric"
)

var testNow = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

// testStoreContract runs the behavior every Store must share.
func testStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("latest picks newest start", func(t *testing.T) {
		s := newStore(t)
		err := s.Add(ctx,
			Sample{Metric: metric.HeartRate, Value: 60, Start: testNow.Add(-3 * time.Hour)},
			Sample{Metric: metric.HeartRate, Value: 72, Start: testNow.Add(-time.Hour)},
			Sample{Metric: metric.HeartRate, Value: 65, Start: testNow.Add(-2 * time.Hour)},
		)
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}

		got, ok, err := s.Latest(ctx, metric.HeartRate, testNow)
		if err != nil || !ok {
			t.Fatalf("Latest() = %v, %v, %v", got, ok, err)
		}
		if got.Value != 72 {
			t.Errorf("Latest().Value = %v, want 72", got.Value)
		}
	})

	t.Run("latest tie goes to last insert", func(t *testing.T) {
		s := newStore(t)
		start := testNow.Add(-time.Hour)
		_ = s.Add(ctx, Sample{Metric: metric.HeartRate, Value: 60, Start: start})
		_ = s.Add(ctx, Sample{Metric: metric.HeartRate, Value: 90, Start: start})

		got, ok, err := s.Latest(ctx, metric.HeartRate, testNow)
		if err != nil || !ok {
			t.Fatalf("Latest() = %v, %v, %v", got, ok, err)
		}
		if got.Value != 90 {
			t.Errorf("Latest().Value = %v, want 90", got.Value)
		}
	})

	t.Run("latest ignores samples ending in the future", func(t *testing.T) {
		s := newStore(t)
		_ = s.Add(ctx,
			Sample{Metric: metric.Height, Value: 1.80, Start: testNow.Add(-time.Hour)},
			Sample{Metric: metric.Height, Value: 1.81, Start: testNow.Add(time.Hour)},
		)
		got, ok, _ := s.Latest(ctx, metric.Height, testNow)
		if !ok || got.Value != 1.80 {
			t.Errorf("Latest() = %v, %v; want 1.80", got.Value, ok)
		}
	})

	t.Run("latest missing", func(t *testing.T) {
		s := newStore(t)
		_, ok, err := s.Latest(ctx, metric.BodyMass, testNow)
		if err != nil {
			t.Fatalf("Latest() error = %v", err)
		}
		if ok {
			t.Error("Latest() ok = true on empty store")
		}
	})

	t.Run("aliases stored under canonical metric", func(t *testing.T) {
		s := newStore(t)
		_ = s.Add(ctx, Sample{Metric: metric.Weight, Value: 70.5, Start: testNow.Add(-time.Hour)})
		got, ok, _ := s.Latest(ctx, metric.BodyMass, testNow)
		if !ok || got.Value != 70.5 {
			t.Errorf("Latest(BodyMass) = %v, %v; want 70.5", got.Value, ok)
		}
	})

	t.Run("sum window", func(t *testing.T) {
		s := newStore(t)
		midnight := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
		_ = s.Add(ctx,
			Sample{Metric: metric.Steps, Value: 1000, Start: midnight.Add(-time.Hour), End: midnight.Add(-30 * time.Minute)},
			Sample{Metric: metric.Steps, Value: 1231, Start: midnight.Add(time.Hour), End: midnight.Add(2 * time.Hour)},
			Sample{Metric: metric.Steps, Value: 3000, Start: midnight.Add(3 * time.Hour), End: midnight.Add(4 * time.Hour)},
		)

		total, count, err := s.Sum(ctx, metric.Steps, midnight, testNow)
		if err != nil {
			t.Fatalf("Sum() error = %v", err)
		}
		if total != 4231 || count != 2 {
			t.Errorf("Sum() = %v, %d; want 4231, 2", total, count)
		}
	})

	t.Run("sum of zero-valued samples counts them", func(t *testing.T) {
		s := newStore(t)
		_ = s.Add(ctx, Sample{Metric: metric.ActiveEnergy, Value: 0, Start: testNow.Add(-time.Hour)})
		total, count, _ := s.Sum(ctx, metric.ActiveEnergy, testNow.Add(-2*time.Hour), testNow)
		if total != 0 || count != 1 {
			t.Errorf("Sum() = %v, %d; want 0, 1", total, count)
		}
	})

	t.Run("profile round trip", func(t *testing.T) {
		s := newStore(t)
		p, err := s.Profile(ctx)
		if err != nil {
			t.Fatalf("Profile() error = %v", err)
		}
		if p.Sex != SexNotSet || !p.BirthDate.IsZero() {
			t.Errorf("empty Profile() = %+v", p)
		}

		birth := time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC)
		want := Profile{Sex: SexFemale, BloodType: BloodABNegative, BirthDate: birth}
		if err := s.SetProfile(ctx, want); err != nil {
			t.Fatalf("SetProfile() error = %v", err)
		}
		got, _ := s.Profile(ctx)
		if got.Sex != want.Sex || got.BloodType != want.BloodType || !got.BirthDate.Equal(birth) {
			t.Errorf("Profile() = %+v, want %+v", got, want)
		}

		want.Sex = SexMale
		_ = s.SetProfile(ctx, want)
		got, _ = s.Profile(ctx)
		if got.Sex != SexMale {
			t.Errorf("Profile().Sex = %v after update, want Male", got.Sex)
		}
	})

	t.Run("rejects invalid samples", func(t *testing.T) {
		s := newStore(t)
		bad := []Sample{
			{Metric: metric.Metric(0), Value: 1, Start: testNow},
			{Metric: metric.Sex, Value: 1, Start: testNow},
			{Metric: metric.Steps, Value: 1},
			{Metric: metric.Steps, Value: 1, Start: testNow, End: testNow.Add(-time.Second)},
		}
		for _, b := range bad {
			if err := s.Add(ctx, b); !errors.Is(err, ErrInvalidSample) {
				t.Errorf("Add(%+v) error = %v, want ErrInvalidSample", b, err)
			}
		}
	})

	t.Run("closed", func(t *testing.T) {
		s := newStore(t)
		if err := s.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
		if _, _, err := s.Latest(ctx, metric.Steps, testNow); !errors.Is(err, ErrStoreClosed) {
			t.Errorf("Latest() after Close error = %v, want ErrStoreClosed", err)
		}
		if err := s.Add(ctx, Sample{Metric: metric.Steps, Value: 1, Start: testNow}); !errors.Is(err, ErrStoreClosed) {
			t.Errorf("Add() after Close error = %v, want ErrStoreClosed", err)
		}
	})
}
