// File: internal/browser/waits.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/veraqa/shoptest/api/schemas"
)

// pollInterval is the wait cadence. Conditions are re-checked at least 10
// times a second.
const pollInterval = 100 * time.Millisecond

// Prober resolves a locator against the current DOM and reports what it sees.
// Probe errors (stale document, navigation in flight) are transient; the wait
// loop swallows them and keeps polling until the deadline. A poisoned session
// is the exception: it fails the wait immediately.
type Prober interface {
	Probe(ctx context.Context, loc schemas.Locator) (Observation, error)
}

// WaitFor polls the prober until the condition is satisfied or the budget
// expires. A zero budget performs exactly one probe, which pages use for fast
// negative checks. On success the returned Observation is the one that
// satisfied the condition; on expiry it is the last one taken, so callers can
// distinguish an absent element from one that never reached the condition.
//
// On expiry the error wraps schemas.ErrTimeout and carries the locator, the
// condition name and the last probe error observed, if any.
func WaitFor(ctx context.Context, p Prober, loc schemas.Locator, cond Condition, budget time.Duration) (Observation, error) {
	deadline := time.Now().Add(budget)
	var lastObs Observation
	var lastErr error

	for {
		obs, err := p.Probe(ctx, loc)
		if err != nil {
			// A dead session never recovers within the budget; retrying it
			// would only bury the fatal kind under a timeout.
			if errors.Is(err, schemas.ErrSessionPoisoned) {
				return lastObs, fmt.Errorf("wait for %s on %s: %w", cond.Name, loc, err)
			}
			lastErr = err
		} else {
			lastObs = obs
			if cond.Check(obs) {
				return obs, nil
			}
		}

		if budget == 0 || !time.Now().Before(deadline) {
			break
		}

		select {
		case <-ctx.Done():
			return lastObs, fmt.Errorf("wait for %s on %s: %w", cond.Name, loc, ctx.Err())
		case <-time.After(pollInterval):
		}
	}

	if lastErr != nil {
		return lastObs, fmt.Errorf("wait for %s on %s (last error: %v): %w", cond.Name, loc, lastErr, schemas.ErrTimeout)
	}
	return lastObs, fmt.Errorf("wait for %s on %s: %w", cond.Name, loc, schemas.ErrTimeout)
}
