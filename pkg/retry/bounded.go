package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDeadline is returned by Bounded when work does not finish inside its
// budget.
var ErrDeadline = errors.New("deadline exceeded")

// Bounded runs work on its own goroutine and blocks the caller for at most
// budget. The work receives a child context whose deadline matches the
// budget so it can stop cooperatively; if it does not, the goroutine is
// abandoned and its eventual result discarded. This is best-effort
// cancellation, not preemption: work that ignores its context keeps running
// (and holding resources) after the caller has moved on.
func Bounded[T any](ctx context.Context, budget time.Duration, work func(context.Context) (T, error)) (T, error) {
	var zero T

	workCtx, cancel := context.WithTimeout(ctx, budget)

	type outcome struct {
		value T
		err   error
	}
	// Buffered so an abandoned worker can complete its send and exit.
	done := make(chan outcome, 1)

	go func() {
		defer cancel()
		value, err := work(workCtx)
		done <- outcome{value: value, err: err}
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-timer.C:
		return zero, fmt.Errorf("%w after %s", ErrDeadline, budget)
	}
}
