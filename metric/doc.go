// Package metric defines the closed catalog of health metrics an application
// may request access to.
//
// Every Metric has a display label, a stable identifier, a Kind that decides
// how it is queried, and the fixed Unit its values are reported in.
//
// # Aliases
//
// Weight and CaloriesBurnt are catalog entries of their own (they are listed
// and labeled separately) but read the same underlying data as BodyMass and
// ActiveEnergy. Canonical resolves an alias to the metric it reads:
//
//	metric.Weight.Canonical()        // metric.BodyMass
//	metric.CaloriesBurnt.Canonical() // metric.ActiveEnergy
package metric
