package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/healthaccess/gateway"
	"github.com/jonwraymond/healthaccess/metric"
)

// failFirst returns an op that fails n times with err, then succeeds.
func failFirst(n int, err error) (func(context.Context) error, *int) {
	calls := 0
	return func(context.Context) error {
		calls++
		if calls <= n {
			return err
		}
		return nil
	}, &calls
}

func fastRetry(attempts int) *Retry {
	return NewRetry(RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond})
}

func TestNewRetry_Defaults(t *testing.T) {
	cfg := NewRetry(RetryConfig{}).Config()
	if cfg.MaxAttempts != 3 || cfg.InitialDelay != 100*time.Millisecond ||
		cfg.MaxDelay != 30*time.Second || cfg.Multiplier != 2 || cfg.RetryIf == nil {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestRetry_Execute(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		err       error
		attempts  int
		wantCalls int
		wantErr   []error
	}{
		{"first attempt", 0, errLocked, 3, 1, nil},
		{"recovers on third", 2, errLocked, 3, 3, nil},
		{"exhausted", 5, errLocked, 3, 3, []error{errLocked, ErrMaxRetriesExceeded}},
		{"single attempt is bare", 5, errLocked, 1, 1, []error{errLocked}},
		{"no record is final", 5, gateway.ErrNoRecord, 3, 1, []error{gateway.ErrNoRecord}},
		{"circuit open is final", 5, ErrCircuitOpen, 3, 1, []error{ErrCircuitOpen}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, calls := failFirst(tt.failures, tt.err)
			err := fastRetry(tt.attempts).Execute(context.Background(), op)

			if *calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", *calls, tt.wantCalls)
			}
			if len(tt.wantErr) == 0 && err != nil {
				t.Errorf("error = %v, want nil", err)
			}
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("error = %v, want match for %v", err, want)
				}
			}
			if tt.attempts == 1 && errors.Is(err, ErrMaxRetriesExceeded) {
				t.Error("a single attempt should not report exhausted retries")
			}
		})
	}
}

func TestRetry_CancelDuringBackoff(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	op, calls := failFirst(10, errLocked)
	err := r.Execute(ctx, op)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if *calls != 1 {
		t.Errorf("calls = %d, want 1", *calls)
	}
}

func TestRetry_RetryIfAndOnRetry(t *testing.T) {
	errPermanent := errors.New("schema mismatch")
	var seen []int
	r := NewRetry(RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		RetryIf:      func(err error) bool { return !errors.Is(err, errPermanent) },
		OnRetry:      func(attempt int, err error, d time.Duration) { seen = append(seen, attempt) },
	})

	calls := 0
	err := r.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errLocked
		}
		return errPermanent
	})
	if !errors.Is(err, errPermanent) || errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("error = %v, want bare permanent error", err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("OnRetry attempts = %v, want [1 2]", seen)
	}
}

func TestRetry_Delay(t *testing.T) {
	base := RetryConfig{InitialDelay: 10 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	tests := []struct {
		name     string
		strategy BackoffStrategy
		attempt  int
		want     time.Duration
	}{
		{"exponential", BackoffExponential, 3, 40 * time.Millisecond},
		{"linear", BackoffLinear, 3, 30 * time.Millisecond},
		{"constant", BackoffConstant, 3, 10 * time.Millisecond},
		{"capped", BackoffExponential, 20, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.Strategy = tt.strategy
			if got := NewRetry(cfg).Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestRetry_DelayJitterBounded(t *testing.T) {
	r := NewRetry(RetryConfig{InitialDelay: 100 * time.Millisecond, Strategy: BackoffConstant, Jitter: true})
	for range 50 {
		if d := r.Delay(1); d < 100*time.Millisecond || d >= 125*time.Millisecond {
			t.Fatalf("Delay = %v, want within [100ms, 125ms)", d)
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errLocked, true},
		{context.DeadlineExceeded, true},
		{ErrTimeout, true},
		{context.Canceled, false},
		{ErrCircuitOpen, false},
		{gateway.ErrNoRecord, false},
		{&gateway.MetricError{Metric: metric.Steps, Err: gateway.ErrNotAuthorized}, false},
	}
	for _, tt := range tests {
		if got := Retryable(tt.err); got != tt.want {
			t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
