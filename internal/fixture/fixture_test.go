package fixture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/healthaccess/gateway"
	"github.com/jonwraymond/healthaccess/metric"
)

const sample = `
profile:
  sex: female
  blood_type: AB-
  birth_date: 1990-04-12
samples:
  - metric: steps
    value: 1200
    ago: 3h
  - metric: Calories Burnt
    value: 310
    ago: 1h
  - metric: body_mass
    value: 61.5
    start: 2024-05-01T07:30:00Z
unsupported: [height]
`

func TestRead(t *testing.T) {
	fx, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if fx.Profile == nil || fx.Profile.BloodType != "AB-" {
		t.Errorf("Profile = %+v", fx.Profile)
	}
	if len(fx.Samples) != 3 {
		t.Fatalf("len(Samples) = %d, want 3", len(fx.Samples))
	}
	if fx.Samples[0].Ago != 3*time.Hour || fx.Samples[1].Metric != metric.CaloriesBurnt {
		t.Errorf("Samples = %+v", fx.Samples)
	}
	if len(fx.Unsupported) != 1 || fx.Unsupported[0] != metric.Height {
		t.Errorf("Unsupported = %v", fx.Unsupported)
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "profil:\n  sex: male\n"},
		{"unknown metric", "samples:\n  - metric: pulse\n    value: 1\n    ago: 1h\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.doc)); !errors.Is(err, ErrInvalidFixture) {
				t.Errorf("Read() error = %v, want ErrInvalidFixture", err)
			}
		})
	}
}

func TestFixture_Apply(t *testing.T) {
	fx, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	loc := time.FixedZone("UTC-8", -8*3600)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, loc)
	store := gateway.NewMemoryStore()
	ctx := context.Background()

	if err := fx.Apply(ctx, store, now); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	p, err := store.Profile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p.Sex != gateway.SexFemale || p.BloodType != gateway.BloodABNegative {
		t.Errorf("Profile = %+v", p)
	}
	if p.BirthDate.Location() != loc || p.BirthDate.Day() != 12 {
		t.Errorf("BirthDate = %v, want 1990-04-12 in fixture location", p.BirthDate)
	}

	steps, ok, err := store.Latest(ctx, metric.Steps, now)
	if err != nil || !ok {
		t.Fatalf("Latest(Steps) = %v, %v", ok, err)
	}
	if !steps.Start.Equal(now.Add(-3*time.Hour)) || steps.Value != 1200 {
		t.Errorf("steps sample = %+v", steps)
	}

	total, n, err := store.Sum(ctx, metric.ActiveEnergy, now.Add(-2*time.Hour), now)
	if err != nil || n != 1 || total != 310 {
		t.Errorf("Sum(ActiveEnergy) = %v, %d, %v; alias sample should land on canonical metric", total, n, err)
	}
}

func TestFixture_ApplyErrors(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		fx   Fixture
	}{
		{"bad sex", Fixture{Profile: &Profile{Sex: "robot"}}},
		{"bad blood type", Fixture{Profile: &Profile{BloodType: "C+"}}},
		{"bad birth date", Fixture{Profile: &Profile{BirthDate: "12/04/1990"}}},
		{"no time", Fixture{Samples: []Sample{{Metric: metric.Steps, Value: 1}}}},
		{"start and ago", Fixture{Samples: []Sample{{Metric: metric.Steps, Value: 1, Start: now, Ago: time.Hour}}}},
		{"end and ago", Fixture{Samples: []Sample{{Metric: metric.Steps, Value: 1, End: now, Ago: time.Hour}}}},
		{"negative ago", Fixture{Samples: []Sample{{Metric: metric.Steps, Value: 1, Ago: -time.Hour}}}},
		{"zero ago", Fixture{Samples: []Sample{{Metric: metric.Steps, Value: 1, Ago: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fx.Apply(context.Background(), gateway.NewMemoryStore(), now)
			if !errors.Is(err, ErrInvalidFixture) {
				t.Errorf("Apply() error = %v, want ErrInvalidFixture", err)
			}
		})
	}
}

func TestFixture_ApplyNotSetProfile(t *testing.T) {
	fx := Fixture{Profile: &Profile{Sex: "Not Set"}}
	store := gateway.NewMemoryStore()
	if err := fx.Apply(context.Background(), store, time.Now()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	p, _ := store.Profile(context.Background())
	if p.Sex != gateway.SexNotSet || !p.BirthDate.IsZero() {
		t.Errorf("Profile = %+v, want unset", p)
	}
}

func TestFixture_ApplyCharacteristicSampleRejected(t *testing.T) {
	fx := Fixture{Samples: []Sample{{Metric: metric.Sex, Value: 1, Ago: time.Minute}}}
	err := fx.Apply(context.Background(), gateway.NewMemoryStore(), time.Now())
	if !errors.Is(err, gateway.ErrInvalidSample) {
		t.Errorf("Apply() error = %v, want gateway.ErrInvalidSample", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	fx, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(fx.Samples) != 3 {
		t.Errorf("len(Samples) = %d, want 3", len(fx.Samples))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want ErrNotExist", err)
	}
}
