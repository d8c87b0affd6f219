package browser

import (
	"context"
	"time"
)

// DefaultPollInterval is how often Poll re-evaluates its condition.
const DefaultPollInterval = 250 * time.Millisecond

// Poll evaluates cond immediately and then on every interval tick until it
// reports true, the timeout elapses or ctx is done.
func Poll(ctx context.Context, interval, timeout time.Duration, cond func(context.Context) bool) bool {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if cond(ctx) {
		return true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if cond(ctx) {
				return true
			}
		}
	}
}

// AnyPresent returns a condition that holds once any locator matches within scope.
func AnyPresent(scope Scope, locs ...Locator) func(context.Context) bool {
	return func(ctx context.Context) bool {
		for _, loc := range locs {
			els, err := scope.FindAll(ctx, loc)
			if err == nil && len(els) > 0 {
				return true
			}
		}
		return false
	}
}
