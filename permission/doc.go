// Package permission tracks which health metrics a user has switched on.
//
// A Set is built from discrete toggle events keyed directly by metric.Metric.
// Aliases collapse onto their canonical metric, so switching on Weight and
// then switching off Body Mass leaves nothing requested.
package permission
