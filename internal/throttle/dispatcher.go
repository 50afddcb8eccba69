// Package throttle executes batch work in order at a bounded rate.
package throttle

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

type Result[T any] struct {
	Item T
	Err  error
}

// Dispatcher — последовательное выполнение с паузой не меньше interval
// между элементами. Первый элемент идёт сразу.
type Dispatcher struct {
	interval time.Duration
}

func NewDispatcher(interval time.Duration) *Dispatcher {
	return &Dispatcher{interval: interval}
}

func (d *Dispatcher) limiter() *rate.Limiter {
	if d == nil || d.interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d.interval), 1)
}

// Run calls fn for every item in order and waits for each call to finish.
// After ctx is cancelled the remaining items are reported with ctx's error.
func Run[T any](ctx context.Context, d *Dispatcher, items []T, fn func(ctx context.Context, item T) error) []Result[T] {
	lim := d.limiter()
	out := make([]Result[T], 0, len(items))
	for i, it := range items {
		if err := lim.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			for _, rest := range items[i:] {
				out = append(out, Result[T]{Item: rest, Err: fmt.Errorf("cancelled: %w", err)})
			}
			return out
		}
		out = append(out, Result[T]{Item: it, Err: fn(ctx, it)})
	}
	return out
}
