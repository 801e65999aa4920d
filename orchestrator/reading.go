package orchestrator

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonwraymond/healthaccess/gateway"
	"github.com/jonwraymond/healthaccess/metric"
)

// Reading is the outcome of fetching one metric.
// Quantity is set for point and cumulative metrics, Characteristic for
// characteristic metrics. Both are meaningful only when Err is nil.
type Reading struct {
	Metric         metric.Metric
	Quantity       float64
	Characteristic gateway.Characteristic
	Unit           metric.Unit
	Duration       time.Duration
	Err            error
}

// OK reports whether the fetch succeeded.
func (r Reading) OK() bool {
	return r.Err == nil
}

// Value formats the reading without its label, e.g. "72 count/min" or "Female".
func (r Reading) Value() string {
	var v string
	if r.Metric.Kind() == metric.KindCharacteristic {
		v = r.Characteristic.String()
	} else {
		v = strconv.FormatFloat(r.Quantity, 'f', -1, 64)
	}
	if r.Unit != metric.UnitNone {
		v += " " + string(r.Unit)
	}
	return v
}

// String renders the reading for display.
//
//	Steps: 4231 count
//	Error Getting Heart Rate: gateway: no record
func (r Reading) String() string {
	if r.Err != nil {
		cause := r.Err
		var me *gateway.MetricError
		if errors.As(r.Err, &me) {
			cause = me.Err
		}
		return fmt.Sprintf("Error Getting %s: %v", r.Metric.Label(), cause)
	}
	return r.Metric.Label() + ": " + r.Value()
}
