package gateway

import (
	"strconv"
	"strings"
	"time"

	"github.com/jonwraymond/healthaccess/metric"
)

// BiologicalSex is the sex recorded in the user's health profile.
type BiologicalSex int

const (
	SexNotSet BiologicalSex = iota
	SexFemale
	SexMale
	SexOther
)

// String returns the display form.
func (s BiologicalSex) String() string {
	switch s {
	case SexFemale:
		return "Female"
	case SexMale:
		return "Male"
	case SexOther:
		return "Other"
	default:
		return "Not Set"
	}
}

// ParseSex parses the display form case-insensitively. Unknown input is SexNotSet.
func ParseSex(s string) BiologicalSex {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "female", "f":
		return SexFemale
	case "male", "m":
		return SexMale
	case "other", "others":
		return SexOther
	default:
		return SexNotSet
	}
}

// BloodGroup is the blood type recorded in the user's health profile.
type BloodGroup int

const (
	BloodNotSet BloodGroup = iota
	BloodAPositive
	BloodANegative
	BloodBPositive
	BloodBNegative
	BloodABPositive
	BloodABNegative
	BloodOPositive
	BloodONegative
)

var bloodLabels = map[BloodGroup]string{
	BloodAPositive:  "A+",
	BloodANegative:  "A-",
	BloodBPositive:  "B+",
	BloodBNegative:  "B-",
	BloodABPositive: "AB+",
	BloodABNegative: "AB-",
	BloodOPositive:  "O+",
	BloodONegative:  "O-",
}

// String returns the display form.
func (b BloodGroup) String() string {
	if s, ok := bloodLabels[b]; ok {
		return s
	}
	return "Not Set"
}

// ParseBloodGroup parses "A+", "ab-", etc. Unknown input is BloodNotSet.
func ParseBloodGroup(s string) BloodGroup {
	for b, label := range bloodLabels {
		if strings.EqualFold(label, strings.TrimSpace(s)) {
			return b
		}
	}
	return BloodNotSet
}

// Characteristic is the value of a characteristic metric. Only the field
// matching Metric is meaningful.
type Characteristic struct {
	Metric    metric.Metric
	Sex       BiologicalSex
	BloodType BloodGroup
	Age       int
}

// String returns the display form of the meaningful field.
func (c Characteristic) String() string {
	switch c.Metric {
	case metric.Sex:
		return c.Sex.String()
	case metric.BloodType:
		return c.BloodType.String()
	case metric.DateOfBirth:
		return strconv.Itoa(c.Age)
	default:
		return ""
	}
}

// AgeInYears returns the calendar-year difference between now and birth,
// evaluated in loc. Month and day are ignored.
func AgeInYears(birth, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	return now.In(loc).Year() - birth.In(loc).Year()
}
