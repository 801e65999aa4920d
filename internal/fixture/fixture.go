// Package fixture seeds a health sample store from a YAML document.
//
//	profile:
//	  sex: female
//	  blood_type: AB-
//	  birth_date: 1990-04-12
//	samples:
//	  - metric: steps
//	    value: 1200
//	    ago: 3h
//	  - metric: body_mass
//	    value: 61.5
//	    start: 2024-05-01T07:30:00Z
//	unsupported: [blood_type]
//
// A sample is placed either by absolute start/end times or by ago, a
// duration before the time the fixture is applied.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/healthaccess/gateway"
	"github.com/jonwraymond/healthaccess/metric"
)

// ErrInvalidFixture indicates a fixture that cannot be applied.
var ErrInvalidFixture = errors.New("fixture: invalid fixture")

const birthDateLayout = "2006-01-02"

// Fixture is a decoded fixture document.
type Fixture struct {
	Profile     *Profile        `yaml:"profile"`
	Samples     []Sample        `yaml:"samples"`
	Unsupported []metric.Metric `yaml:"unsupported"`
}

// Profile holds characteristics in their display form.
type Profile struct {
	Sex       string `yaml:"sex"`
	BloodType string `yaml:"blood_type"`
	BirthDate string `yaml:"birth_date"`
}

// Sample is one measurement.
type Sample struct {
	Metric metric.Metric `yaml:"metric"`
	Value  float64       `yaml:"value"`
	Start  time.Time     `yaml:"start"`
	End    time.Time     `yaml:"end"`
	Ago    time.Duration `yaml:"ago"`
}

// Load reads the fixture at path.
func Load(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: open %s: %w", path, err)
	}
	defer f.Close()

	fx, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("fixture: %s: %w", path, err)
	}
	return fx, nil
}

// Read decodes a fixture. Unknown keys are errors.
func Read(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fx Fixture
	if err := dec.Decode(&fx); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	return &fx, nil
}

// Apply writes the fixture to w. Relative samples and the birth date are
// resolved against now and its location.
func (fx *Fixture) Apply(ctx context.Context, w gateway.SampleWriter, now time.Time) error {
	if fx.Profile != nil {
		p, err := fx.Profile.resolve(now.Location())
		if err != nil {
			return err
		}
		if err := w.SetProfile(ctx, p); err != nil {
			return fmt.Errorf("fixture: set profile: %w", err)
		}
	}

	if len(fx.Samples) == 0 {
		return nil
	}
	samples := make([]gateway.Sample, 0, len(fx.Samples))
	for i, s := range fx.Samples {
		gs, err := s.resolve(now)
		if err != nil {
			return fmt.Errorf("%w: sample %d: %w", ErrInvalidFixture, i, err)
		}
		samples = append(samples, gs)
	}
	if err := w.Add(ctx, samples...); err != nil {
		return fmt.Errorf("fixture: add samples: %w", err)
	}
	return nil
}

func (p Profile) resolve(loc *time.Location) (gateway.Profile, error) {
	out := gateway.Profile{
		Sex:       gateway.ParseSex(p.Sex),
		BloodType: gateway.ParseBloodGroup(p.BloodType),
	}
	if out.Sex == gateway.SexNotSet && !isNotSet(p.Sex) {
		return out, fmt.Errorf("%w: sex %q", ErrInvalidFixture, p.Sex)
	}
	if out.BloodType == gateway.BloodNotSet && !isNotSet(p.BloodType) {
		return out, fmt.Errorf("%w: blood type %q", ErrInvalidFixture, p.BloodType)
	}
	if p.BirthDate != "" {
		d, err := time.ParseInLocation(birthDateLayout, p.BirthDate, loc)
		if err != nil {
			return out, fmt.Errorf("%w: birth date: %w", ErrInvalidFixture, err)
		}
		out.BirthDate = d
	}
	return out, nil
}

func isNotSet(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, gateway.SexNotSet.String())
}

func (s Sample) resolve(now time.Time) (gateway.Sample, error) {
	out := gateway.Sample{Metric: s.Metric, Value: s.Value, Start: s.Start, End: s.End}
	switch {
	case s.Ago < 0:
		return out, fmt.Errorf("ago must be positive, got %s", s.Ago)
	case s.Ago > 0:
		if !s.Start.IsZero() || !s.End.IsZero() {
			return out, errors.New("ago cannot be combined with start or end")
		}
		out.Start = now.Add(-s.Ago)
		out.End = out.Start
	}
	if out.Start.IsZero() {
		return out, errors.New("start or ago required")
	}
	return out, nil
}
