package metric

import (
	"fmt"
	"strings"
)

// Metric identifies one health data type.
type Metric int

const (
	DateOfBirth Metric = iota + 1
	Sex
	BloodType
	BodyMass
	Height
	Weight
	ActiveEnergy
	Steps
	CaloriesBurnt
	HeartRate
)

// Kind describes how a metric's value is obtained.
type Kind int

const (
	// KindCharacteristic is set once and read without a time range.
	KindCharacteristic Kind = iota + 1
	// KindPoint reports only the most recent single measurement.
	KindPoint
	// KindCumulative is summed over the current local day.
	KindCumulative
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindCharacteristic:
		return "characteristic"
	case KindPoint:
		return "point"
	case KindCumulative:
		return "cumulative"
	default:
		return "unknown"
	}
}

// Unit is the fixed unit a metric's value is reported in.
type Unit string

const (
	UnitNone           Unit = ""
	UnitYears          Unit = "yr"
	UnitKilograms      Unit = "kg"
	UnitMeters         Unit = "m"
	UnitCount          Unit = "count"
	UnitKilocalories   Unit = "kcal"
	UnitBeatsPerMinute Unit = "count/min"
)

type entry struct {
	id        string
	label     string
	kind      Kind
	unit      Unit
	canonical Metric
}

var catalog = map[Metric]entry{
	DateOfBirth:   {id: "date_of_birth", label: "DOB", kind: KindCharacteristic, unit: UnitYears},
	Sex:           {id: "sex", label: "Sex", kind: KindCharacteristic},
	BloodType:     {id: "blood_type", label: "Blood Type", kind: KindCharacteristic},
	BodyMass:      {id: "body_mass", label: "Body Mass", kind: KindPoint, unit: UnitKilograms},
	Height:        {id: "height", label: "Height", kind: KindPoint, unit: UnitMeters},
	Weight:        {id: "weight", label: "Weight", kind: KindPoint, unit: UnitKilograms, canonical: BodyMass},
	ActiveEnergy:  {id: "active_energy", label: "Active Energy", kind: KindCumulative, unit: UnitKilocalories},
	Steps:         {id: "steps", label: "Steps", kind: KindCumulative, unit: UnitCount},
	CaloriesBurnt: {id: "calories_burnt", label: "Calories Burnt", kind: KindCumulative, unit: UnitKilocalories, canonical: ActiveEnergy},
	HeartRate:     {id: "heart_rate", label: "Heart Rate", kind: KindPoint, unit: UnitBeatsPerMinute},
}

// order is the display order of the catalog.
var order = []Metric{
	DateOfBirth, Sex, BloodType, BodyMass, Height,
	Weight, ActiveEnergy, Steps, CaloriesBurnt, HeartRate,
}

// All returns every catalog metric in display order.
func All() []Metric {
	out := make([]Metric, len(order))
	copy(out, order)
	return out
}

// Canonicals returns the metrics that are not aliases, in display order.
func Canonicals() []Metric {
	out := make([]Metric, 0, len(order))
	for _, m := range order {
		if m.Canonical() == m {
			out = append(out, m)
		}
	}
	return out
}

// Label returns the display label of m.
func Label(m Metric) string {
	return m.Label()
}

// Valid reports whether m is a catalog member.
func (m Metric) Valid() bool {
	_, ok := catalog[m]
	return ok
}

// Label returns the display label, or "Unknown" for non-catalog values.
func (m Metric) Label() string {
	if e, ok := catalog[m]; ok {
		return e.label
	}
	return "Unknown"
}

// String returns the stable snake_case identifier.
func (m Metric) String() string {
	if e, ok := catalog[m]; ok {
		return e.id
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// Kind returns how m is queried. Non-catalog values return 0.
func (m Metric) Kind() Kind {
	return catalog[m].kind
}

// Unit returns the unit m's values are reported in.
func (m Metric) Unit() Unit {
	return catalog[m].unit
}

// Canonical resolves an alias to the metric whose data it reads.
func (m Metric) Canonical() Metric {
	e, ok := catalog[m]
	if !ok || e.canonical == 0 {
		return m
	}
	return e.canonical
}

// IsAlias reports whether m reads another metric's data.
func (m Metric) IsAlias() bool {
	return m.Canonical() != m
}

// Parse resolves an identifier ("heart_rate") or label ("Heart Rate"),
// case-insensitively.
func Parse(s string) (Metric, error) {
	key := strings.TrimSpace(s)
	for _, m := range order {
		e := catalog[m]
		if strings.EqualFold(key, e.id) || strings.EqualFold(key, e.label) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMetric, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
