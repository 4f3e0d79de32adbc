package execution

import (
	"context"
	"errors"
	"time"
)

// errBudgetExhausted reports that a polling loop ran out of its time
// budget before fn reported done.
var errBudgetExhausted = errors.New("execution: time budget exhausted")

// pollUntil invokes fn immediately and then once per interval until fn
// reports done, the budget expires, or ctx is cancelled. fn errors abort
// the loop; transient conditions are fn's to swallow.
func pollUntil(ctx context.Context, interval, budget time.Duration, fn func(ctx context.Context) (bool, error)) error {
	deadline := time.NewTimer(budget)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return errBudgetExhausted
		case <-ticker.C:
		}
	}
}
