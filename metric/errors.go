package metric

import "errors"

// ErrUnknownMetric indicates a name that is not in the catalog.
var ErrUnknownMetric = errors.New("metric: unknown metric")
