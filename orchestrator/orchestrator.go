package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/healthaccess/gateway"
	"github.com/jonwraymond/healthaccess/metric"
	"github.com/jonwraymond/healthaccess/observe"
	"github.com/jonwraymond/healthaccess/permission"
)

// State is the phase of the current authorization and fetch cycle.
type State int

const (
	StateIdle State = iota
	StateAuthorizing
	StateAuthorizationFailed
	StateAuthorized
	StateFetching
	StateCompleted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAuthorizing:
		return "authorizing"
	case StateAuthorizationFailed:
		return "authorization_failed"
	case StateAuthorized:
		return "authorized"
	case StateFetching:
		return "fetching"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Config configures an Orchestrator.
type Config struct {
	// MaxConcurrent bounds in-flight fetches within one FetchAll.
	// Default: 0 (one goroutine per metric)
	MaxConcurrent int `yaml:"max_concurrent"`
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidConcurrency, c.MaxConcurrent)
	}
	return nil
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConfig sets the orchestrator configuration.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) {
		o.config = cfg
	}
}

// WithLogger sets the logger used for cycle events.
// Default: observe.NopLogger()
func WithLogger(l observe.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// Orchestrator requests authorization for a permission set and fans out
// one fetch per granted metric.
//
// Contract:
//   - Concurrency: all methods are safe for concurrent use.
//   - Context: Authorize and FetchAll honor cancellation.
//   - Errors: cycle-level failures are returned from Authorize; metric-level
//     failures travel in Reading.Err wrapped in *gateway.MetricError.
type Orchestrator struct {
	gw     gateway.Gateway
	config Config
	logger observe.Logger
	flight singleflight.Group

	mu      sync.Mutex
	state   State
	cycleID string
	granted map[metric.Metric]struct{}
}

// New creates an Orchestrator over gw.
func New(gw gateway.Gateway, opts ...Option) (*Orchestrator, error) {
	if gw == nil {
		return nil, ErrNilGateway
	}

	o := &Orchestrator{
		gw:      gw,
		logger:  observe.NopLogger(),
		granted: make(map[metric.Metric]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// State returns the phase of the current cycle.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// CycleID returns the identifier of the most recent authorization cycle,
// or "" before the first Authorize.
func (o *Orchestrator) CycleID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cycleID
}

// Authorize requests read access for every metric in set.
//
// An empty set fails with ErrEmptyRequest without touching the gateway. An
// unavailable health store yields an Unavailable outcome and
// gateway.ErrUnavailable; a declined request yields a Denied outcome and an
// error matching gateway.ErrAuthorizationDenied. Concurrent calls for the
// same set share a single gateway request.
func (o *Orchestrator) Authorize(ctx context.Context, set *permission.Set) (gateway.Authorization, error) {
	if set == nil || set.IsEmpty() {
		return gateway.Authorization{}, ErrEmptyRequest
	}
	return o.authorizeSnapshot(ctx, set.Snapshot())
}

func (o *Orchestrator) authorizeSnapshot(ctx context.Context, metrics []metric.Metric) (gateway.Authorization, error) {
	if len(metrics) == 0 {
		return gateway.Authorization{}, ErrEmptyRequest
	}

	key := permission.New(metrics...).Key()
	v, err, _ := o.flight.Do(key, func() (any, error) {
		return o.authorize(ctx, metrics)
	})
	auth, _ := v.(gateway.Authorization)
	return auth, err
}

func (o *Orchestrator) authorize(ctx context.Context, metrics []metric.Metric) (gateway.Authorization, error) {
	id := uuid.NewString()
	o.mu.Lock()
	o.state = StateAuthorizing
	o.cycleID = id
	o.mu.Unlock()

	ctx = observe.WithCycleID(ctx, id)
	o.logger.Info(ctx, "authorization requested", observe.Field{Key: "metrics.requested", Value: len(metrics)})

	if !o.gw.IsAvailable() {
		o.setState(StateAuthorizationFailed)
		o.logger.Warn(ctx, "health store not available")
		return gateway.Unavailable(), gateway.ErrUnavailable
	}

	auth, err := o.gw.RequestAuthorization(ctx, metrics)
	if err != nil {
		o.setState(StateAuthorizationFailed)
		o.logger.Error(ctx, "authorization request failed", observe.Field{Key: "error", Value: err.Error()})
		return gateway.Authorization{}, fmt.Errorf("orchestrator: request authorization: %w", err)
	}
	if err := auth.Err(); err != nil {
		o.setState(StateAuthorizationFailed)
		o.logger.Warn(ctx, "authorization not granted",
			observe.Field{Key: "auth.status", Value: auth.Status.String()},
			observe.Field{Key: "auth.reason", Value: auth.Reason},
		)
		return auth, err
	}

	o.mu.Lock()
	for _, m := range metrics {
		o.granted[m.Canonical()] = struct{}{}
	}
	o.state = StateAuthorized
	o.mu.Unlock()

	o.logger.Info(ctx, "authorization granted", observe.Field{Key: "metrics.granted", Value: len(metrics)})
	return auth, nil
}

// FetchAll returns a sequence yielding exactly one Reading per metric in set,
// in completion order. The set is snapshotted when FetchAll is called; no
// gateway work starts until the sequence is first ranged over. The sequence
// can be ranged over once; later iterations yield nothing.
//
// Metrics that were never granted by Authorize yield gateway.ErrNotAuthorized
// without reaching the gateway. After ctx is canceled or the caller stops
// iterating, no further readings are delivered.
func (o *Orchestrator) FetchAll(ctx context.Context, set *permission.Set) iter.Seq2[metric.Metric, Reading] {
	var metrics []metric.Metric
	if set != nil {
		metrics = set.Snapshot()
	}
	return o.fetchSnapshot(ctx, metrics)
}

func (o *Orchestrator) fetchSnapshot(ctx context.Context, metrics []metric.Metric) iter.Seq2[metric.Metric, Reading] {
	var consumed atomic.Bool

	return func(yield func(metric.Metric, Reading) bool) {
		if !consumed.CompareAndSwap(false, true) || len(metrics) == 0 {
			return
		}

		o.mu.Lock()
		o.state = StateFetching
		id := o.cycleID
		granted := make(map[metric.Metric]bool, len(metrics))
		for _, m := range metrics {
			_, ok := o.granted[m]
			granted[m] = ok
		}
		o.mu.Unlock()
		defer o.setState(StateCompleted)

		ctx, cancel := context.WithCancel(observe.WithCycleID(ctx, id))
		defer cancel()

		// Sized so that senders never block once the consumer has gone.
		results := make(chan Reading, len(metrics))
		go o.dispatch(ctx, metrics, granted, results)

		for range metrics {
			select {
			case <-ctx.Done():
				return
			case r := <-results:
				if ctx.Err() != nil {
					return
				}
				if !yield(r.Metric, r) {
					return
				}
			}
		}
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, metrics []metric.Metric, granted map[metric.Metric]bool, results chan<- Reading) {
	var g errgroup.Group
	if o.config.MaxConcurrent > 0 {
		g.SetLimit(o.config.MaxConcurrent)
	}

	for _, m := range metrics {
		if ctx.Err() != nil {
			break
		}
		if !granted[m] {
			results <- Reading{Metric: m, Err: &gateway.MetricError{Metric: m, Err: gateway.ErrNotAuthorized}}
			continue
		}
		g.Go(func() error {
			results <- o.fetch(ctx, m)
			return nil
		})
	}
	_ = g.Wait()
}

// fetch routes m to the gateway operation serving its kind.
func (o *Orchestrator) fetch(ctx context.Context, m metric.Metric) Reading {
	start := time.Now()
	r := Reading{Metric: m, Unit: m.Unit()}

	switch m.Kind() {
	case metric.KindPoint:
		res := o.gw.FetchLatest(ctx, m)
		r.Quantity, r.Err = res.Value, res.Err
		if res.Unit != "" {
			r.Unit = res.Unit
		}
	case metric.KindCumulative:
		res := o.gw.FetchAggregateToday(ctx, m)
		r.Quantity, r.Err = res.Value, res.Err
		if res.Unit != "" {
			r.Unit = res.Unit
		}
	case metric.KindCharacteristic:
		res := o.gw.FetchCharacteristic(ctx, m)
		r.Characteristic, r.Err = res.Value, res.Err
	default:
		r.Err = gateway.ErrWrongKind
	}
	r.Duration = time.Since(start)

	if r.Err != nil {
		var me *gateway.MetricError
		if !errors.As(r.Err, &me) {
			r.Err = &gateway.MetricError{Metric: m, Err: r.Err}
		}
		r.Quantity = 0
		r.Characteristic = gateway.Characteristic{}
		o.logger.WithFetch(observe.FetchMeta{Operation: operationFor(m), Metric: m}).
			Warn(ctx, "metric fetch failed", observe.Field{Key: "error", Value: r.Err.Error()})
	}
	return r
}

// Run performs a full cycle: Authorize, then FetchAll with fn called for
// each reading. It returns the cycle-level error from Authorize, if any, in
// which case fn is never called. A non-nil ctx error is returned if the
// cycle was canceled before every reading was delivered.
func (o *Orchestrator) Run(ctx context.Context, set *permission.Set, fn func(metric.Metric, Reading)) error {
	if set == nil || set.IsEmpty() {
		return ErrEmptyRequest
	}
	metrics := set.Snapshot()

	if _, err := o.authorizeSnapshot(ctx, metrics); err != nil {
		return err
	}

	delivered := 0
	for m, r := range o.fetchSnapshot(ctx, metrics) {
		fn(m, r)
		delivered++
	}
	if delivered < len(metrics) {
		return ctx.Err()
	}
	return nil
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func operationFor(m metric.Metric) string {
	switch m.Kind() {
	case metric.KindPoint:
		return observe.OpLatest
	case metric.KindCumulative:
		return observe.OpAggregateToday
	default:
		return observe.OpCharacteristic
	}
}
