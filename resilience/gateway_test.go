package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/healthaccess/gateway"
	"github.com/jonwraymond/healthaccess/gateway/gatewaytest"
	"github.com/jonwraymond/healthaccess/metric"
)

// flakyGateway fails the first n fetches with a store error.
type flakyGateway struct {
	*gatewaytest.Fake
	failures atomic.Int32
}

var errStoreBusy = errors.New("database is locked")

func (g *flakyGateway) FetchLatest(ctx context.Context, m metric.Metric) gateway.Result[float64] {
	if g.failures.Add(-1) >= 0 {
		return gateway.Fail[float64](errStoreBusy)
	}
	return g.Fake.FetchLatest(ctx, m)
}

func TestWrapGateway_NilExecutor(t *testing.T) {
	fake := gatewaytest.New()
	if got := WrapGateway(fake, nil); got != gateway.Gateway(fake) {
		t.Error("WrapGateway(gw, nil) should return gw unchanged")
	}
}

func TestWrapGateway_PassesThroughSuccess(t *testing.T) {
	fake := gatewaytest.New().
		SetQuantity(metric.Steps, 4231).
		SetCharacteristic(gateway.Characteristic{Metric: metric.BloodType, BloodType: gateway.BloodABNegative})
	gw := WrapGateway(fake, NewExecutorFromConfig(Config{Timeout: time.Second, MaxAttempts: 3}))
	ctx := context.Background()

	steps := gw.FetchAggregateToday(ctx, metric.Steps)
	if !steps.OK() || steps.Value != 4231 || steps.Unit != metric.UnitCount {
		t.Errorf("FetchAggregateToday = %+v", steps)
	}

	blood := gw.FetchCharacteristic(ctx, metric.BloodType)
	if !blood.OK() || blood.Value.BloodType != gateway.BloodABNegative {
		t.Errorf("FetchCharacteristic = %+v", blood)
	}
	if fake.Operation(metric.Steps) != "aggregate" {
		t.Errorf("Operation(Steps) = %q, want aggregate", fake.Operation(metric.Steps))
	}
}

func TestWrapGateway_NoRecordNotRetried(t *testing.T) {
	fake := gatewaytest.New()
	gw := WrapGateway(fake, NewExecutor(WithRetry(NewRetry(RetryConfig{
		MaxAttempts:  4,
		InitialDelay: time.Millisecond,
	}))))

	res := gw.FetchLatest(context.Background(), metric.Height)
	if !errors.Is(res.Err, gateway.ErrNoRecord) {
		t.Fatalf("err = %v, want ErrNoRecord", res.Err)
	}
	if errors.Is(res.Err, ErrMaxRetriesExceeded) {
		t.Error("metric-level error should not be reported as exhausted retries")
	}
	if n := fake.FetchCalls(metric.Height); n != 1 {
		t.Errorf("FetchCalls = %d, want 1", n)
	}
}

func TestWrapGateway_RetriesStoreFailure(t *testing.T) {
	g := &flakyGateway{Fake: gatewaytest.New().SetQuantity(metric.HeartRate, 72)}
	g.failures.Store(2)
	gw := WrapGateway(g, NewExecutor(WithRetry(NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Jitter:       false,
	}))))

	res := gw.FetchLatest(context.Background(), metric.HeartRate)
	if !res.OK() || res.Value != 72 {
		t.Errorf("FetchLatest = %+v, want 72 after retries", res)
	}
}

func TestWrapGateway_TimeoutIsPerMetric(t *testing.T) {
	fake := gatewaytest.New().
		SetQuantity(metric.BodyMass, 70.5).
		SetQuantity(metric.Steps, 100)
	fake.Delays[metric.Steps] = time.Second
	gw := WrapGateway(fake, NewExecutor(WithTimeout(20*time.Millisecond)))
	ctx := context.Background()

	steps := gw.FetchAggregateToday(ctx, metric.Steps)
	if !errors.Is(steps.Err, ErrTimeout) {
		t.Errorf("Steps err = %v, want ErrTimeout", steps.Err)
	}
	if steps.Value != 0 {
		t.Errorf("Steps value = %v, want 0 on failure", steps.Value)
	}

	mass := gw.FetchLatest(ctx, metric.BodyMass)
	if !mass.OK() || mass.Value != 70.5 {
		t.Errorf("BodyMass = %+v, want 70.5", mass)
	}
}

func TestWrapGateway_RateLimitedIsPerMetric(t *testing.T) {
	fake := gatewaytest.New().SetQuantity(metric.HeartRate, 60)
	gw := WrapGateway(fake, NewExecutor(WithRateLimiter(NewRateLimiter(RateLimiterConfig{
		Rate:  0.001,
		Burst: 1,
	}))))
	ctx := context.Background()

	if res := gw.FetchLatest(ctx, metric.HeartRate); !res.OK() {
		t.Fatalf("first fetch err = %v", res.Err)
	}
	res := gw.FetchLatest(ctx, metric.HeartRate)
	if !errors.Is(res.Err, ErrRateLimited) {
		t.Errorf("second fetch err = %v, want ErrRateLimited", res.Err)
	}
	if n := fake.FetchCalls(metric.HeartRate); n != 1 {
		t.Errorf("FetchCalls = %d, want 1", n)
	}
}

func TestWrapGateway_CircuitOpensOnStoreFailures(t *testing.T) {
	g := &flakyGateway{Fake: gatewaytest.New().SetQuantity(metric.HeartRate, 60)}
	g.failures.Store(100)
	gw := WrapGateway(g, NewExecutor(WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Minute,
	}))))
	ctx := context.Background()

	for range 2 {
		if res := gw.FetchLatest(ctx, metric.HeartRate); !errors.Is(res.Err, errStoreBusy) {
			t.Fatalf("err = %v, want store error", res.Err)
		}
	}
	if res := gw.FetchLatest(ctx, metric.HeartRate); !errors.Is(res.Err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", res.Err)
	}
}

func TestWrapGateway_DenialIsNotAnError(t *testing.T) {
	fake := gatewaytest.New()
	fake.Outcome = gateway.Denied("user declined")
	gw := WrapGateway(fake, NewExecutorFromConfig(Config{MaxAttempts: 3}))

	auth, err := gw.RequestAuthorization(context.Background(), []metric.Metric{metric.Steps})
	if err != nil {
		t.Fatalf("RequestAuthorization() error = %v", err)
	}
	if auth.Status != gateway.AuthDenied {
		t.Errorf("Status = %v, want denied", auth.Status)
	}
	if fake.AuthCalls() != 1 {
		t.Errorf("AuthCalls = %d, want 1", fake.AuthCalls())
	}
}

func TestWrapGateway_AuthorizationErrorRetried(t *testing.T) {
	fake := gatewaytest.New()
	fake.AuthErr = errStoreBusy
	gw := WrapGateway(fake, NewExecutor(WithRetry(NewRetry(RetryConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
	}))))

	_, err := gw.RequestAuthorization(context.Background(), []metric.Metric{metric.Steps})
	if !errors.Is(err, errStoreBusy) || !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("err = %v, want store error after exhausted retries", err)
	}
	if fake.AuthCalls() != 2 {
		t.Errorf("AuthCalls = %d, want 2", fake.AuthCalls())
	}
}

func TestWrapGateway_Availability(t *testing.T) {
	fake := gatewaytest.New()
	fake.Unavailable = true
	gw := WrapGateway(fake, NewExecutor())
	if gw.IsAvailable() {
		t.Error("IsAvailable() = true, want false")
	}
}
