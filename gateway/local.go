package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/healthaccess/metric"
)

// ConsentFunc decides an authorization request on the user's behalf.
type ConsentFunc func(ctx context.Context, metrics []metric.Metric) Authorization

// GrantAll is a ConsentFunc that grants every request.
func GrantAll(context.Context, []metric.Metric) Authorization {
	return Granted()
}

// DenyAll returns a ConsentFunc that declines every request with reason.
func DenyAll(reason string) ConsentFunc {
	return func(context.Context, []metric.Metric) Authorization {
		return Denied(reason)
	}
}

// LocalConfig configures a Local gateway.
type LocalConfig struct {
	// Unavailable reports the store as missing, as on a build without one.
	// Default: false
	Unavailable bool

	// Unsupported lists metrics this platform cannot represent.
	// Default: none
	Unsupported []metric.Metric

	// Consent decides authorization requests.
	// Default: GrantAll
	Consent ConsentFunc

	// Now returns the current time.
	// Default: time.Now
	Now func() time.Time

	// Location is the calendar used for "today" and ages.
	// Default: time.Local
	Location *time.Location
}

// Local is a Gateway backed by a SampleStore.
type Local struct {
	store       SampleStore
	config      LocalConfig
	unsupported map[metric.Metric]bool

	mu      sync.RWMutex
	granted map[metric.Metric]bool
}

// NewLocal creates a gateway reading from store.
func NewLocal(store SampleStore, config LocalConfig) *Local {
	// Apply defaults
	if config.Consent == nil {
		config.Consent = GrantAll
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	unsupported := make(map[metric.Metric]bool, len(config.Unsupported))
	for _, m := range config.Unsupported {
		unsupported[m.Canonical()] = true
	}

	return &Local{
		store:       store,
		config:      config,
		unsupported: unsupported,
		granted:     make(map[metric.Metric]bool),
	}
}

// IsAvailable implements Gateway.
func (g *Local) IsAvailable() bool {
	return !g.config.Unavailable && g.store != nil
}

// RequestAuthorization implements Gateway. Metrics the platform cannot
// represent are left out of the request; fetching them later reports
// ErrTypeUnavailable.
func (g *Local) RequestAuthorization(ctx context.Context, metrics []metric.Metric) (Authorization, error) {
	if err := ctx.Err(); err != nil {
		return Authorization{}, err
	}
	if !g.IsAvailable() {
		return Unavailable(), nil
	}

	requested := make([]metric.Metric, 0, len(metrics))
	for _, m := range metrics {
		m = m.Canonical()
		if !m.Valid() || g.unsupported[m] {
			continue
		}
		requested = append(requested, m)
	}

	decision := g.config.Consent(ctx, requested)
	if decision.Status != AuthGranted {
		return decision, nil
	}

	g.mu.Lock()
	for _, m := range requested {
		g.granted[m] = true
	}
	g.mu.Unlock()

	return decision, nil
}

// Revoke withdraws access to metrics, as a user would in system settings.
func (g *Local) Revoke(metrics ...metric.Metric) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range metrics {
		delete(g.granted, m.Canonical())
	}
}

// FetchLatest implements Gateway.
func (g *Local) FetchLatest(ctx context.Context, m metric.Metric) Result[float64] {
	m = m.Canonical()
	if err := g.check(ctx, m, metric.KindPoint); err != nil {
		return Fail[float64](err)
	}

	sample, ok, err := g.store.Latest(ctx, m, g.config.Now())
	if err != nil {
		return Fail[float64](fmt.Errorf("gateway: query %s: %w", m, err))
	}
	if !ok {
		return Fail[float64](ErrNoRecord)
	}
	return Succeed(sample.Value, m.Unit())
}

// FetchAggregateToday implements Gateway.
func (g *Local) FetchAggregateToday(ctx context.Context, m metric.Metric) Result[float64] {
	m = m.Canonical()
	if err := g.check(ctx, m, metric.KindCumulative); err != nil {
		return Fail[float64](err)
	}

	now := g.config.Now().In(g.config.Location)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, g.config.Location)

	total, count, err := g.store.Sum(ctx, m, midnight, now)
	if err != nil {
		return Fail[float64](fmt.Errorf("gateway: query %s: %w", m, err))
	}
	if count == 0 {
		return Fail[float64](ErrNoRecord)
	}
	return Succeed(total, m.Unit())
}

// FetchCharacteristic implements Gateway.
func (g *Local) FetchCharacteristic(ctx context.Context, m metric.Metric) Result[Characteristic] {
	if err := g.check(ctx, m, metric.KindCharacteristic); err != nil {
		return Fail[Characteristic](err)
	}

	p, err := g.store.Profile(ctx)
	if err != nil {
		return Fail[Characteristic](fmt.Errorf("gateway: query %s: %w", m, err))
	}

	c := Characteristic{Metric: m}
	switch m {
	case metric.Sex:
		c.Sex = p.Sex
	case metric.BloodType:
		c.BloodType = p.BloodType
	case metric.DateOfBirth:
		if p.BirthDate.IsZero() {
			return Fail[Characteristic](ErrNoRecord)
		}
		c.Age = AgeInYears(p.BirthDate, g.config.Now(), g.config.Location)
	}
	return Succeed(c, m.Unit())
}

func (g *Local) check(ctx context.Context, m metric.Metric, kind metric.Kind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !g.IsAvailable() {
		return ErrUnavailable
	}
	if m.Kind() != kind {
		return ErrWrongKind
	}
	if g.unsupported[m] {
		return ErrTypeUnavailable
	}

	g.mu.RLock()
	granted := g.granted[m]
	g.mu.RUnlock()
	if !granted {
		return ErrNotAuthorized
	}
	return nil
}

// Ensure Local implements Gateway
var _ Gateway = (*Local)(nil)
