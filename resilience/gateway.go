package resilience

import (
	"context"
	"sync"

	"github.com/jonwraymond/healthaccess/gateway"
	"github.com/jonwraymond/healthaccess/metric"
)

// WrapGateway returns a gateway whose calls run through exec. Failures
// introduced by exec, such as ErrTimeout or ErrRateLimited, surface as the
// Result's error for the affected metric only.
func WrapGateway(gw gateway.Gateway, exec *Executor) gateway.Gateway {
	if exec == nil {
		return gw
	}
	return &resilientGateway{next: gw, exec: exec}
}

type resilientGateway struct {
	next gateway.Gateway
	exec *Executor
}

func (g *resilientGateway) IsAvailable() bool {
	return g.next.IsAvailable()
}

// RequestAuthorization is guarded by the executor, but a denial is an
// outcome, not an error, and is never retried.
func (g *resilientGateway) RequestAuthorization(ctx context.Context, metrics []metric.Metric) (gateway.Authorization, error) {
	var (
		mu   sync.Mutex
		auth gateway.Authorization
	)
	err := g.exec.Execute(ctx, func(ctx context.Context) error {
		a, err := g.next.RequestAuthorization(ctx, metrics)
		if err != nil {
			return err
		}
		mu.Lock()
		auth = a
		mu.Unlock()
		return nil
	})
	if err != nil {
		return gateway.Authorization{}, err
	}

	mu.Lock()
	defer mu.Unlock()
	return auth, nil
}

func (g *resilientGateway) FetchLatest(ctx context.Context, m metric.Metric) gateway.Result[float64] {
	return execResult(ctx, g.exec, func(ctx context.Context) gateway.Result[float64] {
		return g.next.FetchLatest(ctx, m)
	})
}

func (g *resilientGateway) FetchAggregateToday(ctx context.Context, m metric.Metric) gateway.Result[float64] {
	return execResult(ctx, g.exec, func(ctx context.Context) gateway.Result[float64] {
		return g.next.FetchAggregateToday(ctx, m)
	})
}

func (g *resilientGateway) FetchCharacteristic(ctx context.Context, m metric.Metric) gateway.Result[gateway.Characteristic] {
	return execResult(ctx, g.exec, func(ctx context.Context) gateway.Result[gateway.Characteristic] {
		return g.next.FetchCharacteristic(ctx, m)
	})
}

// execResult runs fetch under exec. An attempt abandoned by a timeout may
// still finish later, so only successful results are published, under mu.
func execResult[T any](ctx context.Context, exec *Executor, fetch func(context.Context) gateway.Result[T]) gateway.Result[T] {
	var (
		mu  sync.Mutex
		out gateway.Result[T]
	)
	err := exec.Execute(ctx, func(ctx context.Context) error {
		res := fetch(ctx)
		if res.Err != nil {
			return res.Err
		}
		mu.Lock()
		out = res
		mu.Unlock()
		return nil
	})
	if err != nil {
		return gateway.Fail[T](err)
	}

	mu.Lock()
	defer mu.Unlock()
	return out
}

var _ gateway.Gateway = (*resilientGateway)(nil)
