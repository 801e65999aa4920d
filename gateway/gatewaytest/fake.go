// Package gatewaytest provides a scripted gateway.Gateway for tests.
package gatewaytest

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/healthaccess/gateway"
	"github.com/jonwraymond/healthaccess/metric"
)

// Fake is a gateway.Gateway returning scripted results and counting calls.
// Unscripted fetches fail with gateway.ErrNoRecord.
//
// Configure the exported fields before first use; they are not guarded.
type Fake struct {
	// Unavailable makes IsAvailable report false.
	Unavailable bool

	// Outcome is returned by RequestAuthorization. Zero value means Granted.
	Outcome gateway.Authorization

	// AuthErr, when set, is returned by RequestAuthorization.
	AuthErr error

	// AuthGate, when non-nil, blocks RequestAuthorization until closed.
	AuthGate chan struct{}

	// Quantities scripts FetchLatest and FetchAggregateToday.
	Quantities map[metric.Metric]gateway.Result[float64]

	// Characteristics scripts FetchCharacteristic.
	Characteristics map[metric.Metric]gateway.Result[gateway.Characteristic]

	// Delays holds a per-metric delay applied before a fetch returns.
	Delays map[metric.Metric]time.Duration

	// FetchGate, when non-nil, blocks every fetch until closed.
	FetchGate chan struct{}

	mu          sync.Mutex
	authCalls   int
	lastRequest []metric.Metric
	calls       map[metric.Metric]int
	ops         map[metric.Metric]string
}

// New creates a Fake with empty scripts.
func New() *Fake {
	return &Fake{
		Quantities:      make(map[metric.Metric]gateway.Result[float64]),
		Characteristics: make(map[metric.Metric]gateway.Result[gateway.Characteristic]),
		Delays:          make(map[metric.Metric]time.Duration),
	}
}

// SetQuantity scripts a successful numeric fetch.
func (f *Fake) SetQuantity(m metric.Metric, value float64) *Fake {
	f.Quantities[m] = gateway.Succeed(value, m.Unit())
	return f
}

// SetCharacteristic scripts a successful characteristic fetch.
func (f *Fake) SetCharacteristic(c gateway.Characteristic) *Fake {
	f.Characteristics[c.Metric] = gateway.Succeed(c, c.Metric.Unit())
	return f
}

// SetError scripts a failing fetch.
func (f *Fake) SetError(m metric.Metric, err error) *Fake {
	if m.Kind() == metric.KindCharacteristic {
		f.Characteristics[m] = gateway.Fail[gateway.Characteristic](err)
	} else {
		f.Quantities[m] = gateway.Fail[float64](err)
	}
	return f
}

// IsAvailable implements gateway.Gateway.
func (f *Fake) IsAvailable() bool {
	return !f.Unavailable
}

// RequestAuthorization implements gateway.Gateway.
func (f *Fake) RequestAuthorization(ctx context.Context, metrics []metric.Metric) (gateway.Authorization, error) {
	f.mu.Lock()
	f.authCalls++
	f.lastRequest = append([]metric.Metric(nil), metrics...)
	f.mu.Unlock()

	if f.AuthGate != nil {
		select {
		case <-f.AuthGate:
		case <-ctx.Done():
			return gateway.Authorization{}, ctx.Err()
		}
	}

	if f.AuthErr != nil {
		return gateway.Authorization{}, f.AuthErr
	}
	if f.Unavailable {
		return gateway.Unavailable(), nil
	}
	if f.Outcome.Status == 0 {
		return gateway.Granted(), nil
	}
	return f.Outcome, nil
}

// FetchLatest implements gateway.Gateway.
func (f *Fake) FetchLatest(ctx context.Context, m metric.Metric) gateway.Result[float64] {
	if err := f.enter(ctx, m, "latest"); err != nil {
		return gateway.Fail[float64](err)
	}
	if r, ok := f.Quantities[m]; ok {
		return r
	}
	return gateway.Fail[float64](gateway.ErrNoRecord)
}

// FetchAggregateToday implements gateway.Gateway.
func (f *Fake) FetchAggregateToday(ctx context.Context, m metric.Metric) gateway.Result[float64] {
	if err := f.enter(ctx, m, "aggregate"); err != nil {
		return gateway.Fail[float64](err)
	}
	if r, ok := f.Quantities[m]; ok {
		return r
	}
	return gateway.Fail[float64](gateway.ErrNoRecord)
}

// FetchCharacteristic implements gateway.Gateway.
func (f *Fake) FetchCharacteristic(ctx context.Context, m metric.Metric) gateway.Result[gateway.Characteristic] {
	if err := f.enter(ctx, m, "characteristic"); err != nil {
		return gateway.Fail[gateway.Characteristic](err)
	}
	if r, ok := f.Characteristics[m]; ok {
		return r
	}
	return gateway.Fail[gateway.Characteristic](gateway.ErrNoRecord)
}

func (f *Fake) enter(ctx context.Context, m metric.Metric, op string) error {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[metric.Metric]int)
		f.ops = make(map[metric.Metric]string)
	}
	f.calls[m]++
	f.ops[m] = op
	f.mu.Unlock()

	if d := f.Delays[m]; d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.FetchGate != nil {
		select {
		case <-f.FetchGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return ctx.Err()
}

// AuthCalls returns how many times RequestAuthorization ran.
func (f *Fake) AuthCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls
}

// LastRequest returns the metrics of the latest authorization request.
func (f *Fake) LastRequest() []metric.Metric {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]metric.Metric(nil), f.lastRequest...)
}

// FetchCalls returns how many fetches ran for m.
func (f *Fake) FetchCalls(m metric.Metric) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[m]
}

// TotalFetchCalls returns how many fetches ran in total.
func (f *Fake) TotalFetchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Operation returns the fetch operation last used for m: "latest",
// "aggregate", "characteristic", or "" if never fetched.
func (f *Fake) Operation(m metric.Metric) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ops[m]
}

// Ensure Fake implements gateway.Gateway
var _ gateway.Gateway = (*Fake)(nil)
