// File: internal/browser/driver.go
package browser

import (
	"context"
	"time"

	"github.com/veraqa/shoptest/api/schemas"
)

// Driver is the capability set page objects consume. Session implements it
// against a live browser; page tests implement it in-process. Reads and
// visibility checks are expressed through WaitFor so that every operation
// re-resolves its element.
type Driver interface {
	Prober

	// Navigate loads the URL and blocks until the main document committed.
	Navigate(ctx context.Context, url string) error
	// CurrentURL reports the top frame's URL.
	CurrentURL(ctx context.Context) (string, error)
	// WaitFor polls the locator until the condition holds or budget expires.
	WaitFor(ctx context.Context, loc schemas.Locator, cond Condition, budget time.Duration) (Observation, error)
	// Fill clears the element and types the value into it.
	Fill(ctx context.Context, loc schemas.Locator, value string) error
	// Click clicks the element once it is clickable.
	Click(ctx context.Context, loc schemas.Locator) error
}
