// File: internal/browser/waits_test.go
package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veraqa/shoptest/api/schemas"
)

// scriptedProber replays a fixed sequence of probe results. The last entry
// repeats once the script is exhausted.
type scriptedProber struct {
	script []func() (Observation, error)
	calls  int
}

func (p *scriptedProber) Probe(ctx context.Context, loc schemas.Locator) (Observation, error) {
	i := p.calls
	if i >= len(p.script) {
		i = len(p.script) - 1
	}
	p.calls++
	return p.script[i]()
}

func obs(found, visible bool) func() (Observation, error) {
	return func() (Observation, error) {
		return Observation{Found: found, Visible: visible, Enabled: true}, nil
	}
}

func probeErr(err error) func() (Observation, error) {
	return func() (Observation, error) { return Observation{}, err }
}

func TestWaitForSatisfiedAfterRetries(t *testing.T) {
	p := &scriptedProber{script: []func() (Observation, error){
		obs(false, false),
		obs(true, false),
		obs(true, true),
	}}

	got, err := WaitFor(context.Background(), p, schemas.ID("welcome"), Visible(), 2*time.Second)
	require.NoError(t, err)
	assert.True(t, got.Visible)
	assert.Equal(t, 3, p.calls)
}

func TestWaitForTimesOut(t *testing.T) {
	p := &scriptedProber{script: []func() (Observation, error){obs(false, false)}}

	start := time.Now()
	_, err := WaitFor(context.Background(), p, schemas.ID("missing"), Present(), 250*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrTimeout)
	assert.Contains(t, err.Error(), "id=missing")
	assert.Contains(t, err.Error(), "present")
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
}

func TestWaitForZeroBudgetProbesOnce(t *testing.T) {
	p := &scriptedProber{script: []func() (Observation, error){obs(false, false)}}

	_, err := WaitFor(context.Background(), p, schemas.ID("absent"), Visible(), 0)
	require.ErrorIs(t, err, schemas.ErrTimeout)
	assert.Equal(t, 1, p.calls)
}

func TestWaitForZeroBudgetImmediateHit(t *testing.T) {
	p := &scriptedProber{script: []func() (Observation, error){obs(true, true)}}

	got, err := WaitFor(context.Background(), p, schemas.ID("present"), Visible(), 0)
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, 1, p.calls)
}

func TestWaitForSwallowsTransientProbeErrors(t *testing.T) {
	stale := errors.New("stale document")
	p := &scriptedProber{script: []func() (Observation, error){
		probeErr(stale),
		probeErr(stale),
		obs(true, true),
	}}

	got, err := WaitFor(context.Background(), p, schemas.CSS(".banner"), Visible(), 2*time.Second)
	require.NoError(t, err)
	assert.True(t, got.Visible)
}

func TestWaitForFailsFastOnPoisonedSession(t *testing.T) {
	p := &scriptedProber{script: []func() (Observation, error){
		probeErr(schemas.ErrSessionPoisoned),
	}}

	start := time.Now()
	_, err := WaitFor(context.Background(), p, schemas.ID("welcome"), Visible(), 5*time.Second)
	require.Error(t, err)

	// The fatal kind must surface untouched: no retries burning the budget,
	// no timeout wrapper hiding it from Classify.
	assert.ErrorIs(t, err, schemas.ErrSessionPoisoned)
	assert.NotErrorIs(t, err, schemas.ErrTimeout)
	assert.Equal(t, 1, p.calls)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, schemas.KindSessionPoisoned, schemas.Classify(err))
	assert.True(t, schemas.Classify(err).Fatal())
}

func TestWaitForReportsLastProbeErrorOnTimeout(t *testing.T) {
	stale := errors.New("stale document")
	p := &scriptedProber{script: []func() (Observation, error){probeErr(stale)}}

	_, err := WaitFor(context.Background(), p, schemas.CSS(".banner"), Visible(), 150*time.Millisecond)
	require.ErrorIs(t, err, schemas.ErrTimeout)
	assert.Contains(t, err.Error(), "stale document")
}

func TestWaitForReturnsLastObservationOnTimeout(t *testing.T) {
	// Element is found but never clickable; the caller uses the returned
	// observation to distinguish this from an absent element.
	p := &scriptedProber{script: []func() (Observation, error){
		func() (Observation, error) {
			return Observation{Found: true, Visible: true, Enabled: false}, nil
		},
	}}

	got, err := WaitFor(context.Background(), p, schemas.ID("submit"), Clickable(), 150*time.Millisecond)
	require.ErrorIs(t, err, schemas.ErrTimeout)
	assert.True(t, got.Found)
	assert.False(t, got.Enabled)
}

func TestWaitForHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &scriptedProber{script: []func() (Observation, error){obs(false, false)}}

	_, err := WaitFor(ctx, p, schemas.ID("anything"), Present(), 5*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConditions(t *testing.T) {
	full := Observation{
		Found: true, Visible: true, Enabled: true,
		Text:  "Welcome back",
		Attrs: map[string]string{"type": "password"},
	}

	assert.True(t, Present().Check(full))
	assert.True(t, Visible().Check(full))
	assert.True(t, Clickable().Check(full))
	assert.True(t, TextEquals("Welcome back").Check(full))
	assert.True(t, TextContains("Welcome").Check(full))
	assert.True(t, AttributeEquals("type", "password").Check(full))

	hidden := Observation{Found: true}
	assert.True(t, Present().Check(hidden))
	assert.False(t, Visible().Check(hidden))
	assert.False(t, Clickable().Check(hidden))

	covered := Observation{Found: true, Visible: true, Enabled: true, Covered: true}
	assert.False(t, Clickable().Check(covered))

	assert.True(t, AnyOf(Visible(), Present()).Check(hidden))
	assert.False(t, AnyOf(Visible(), Clickable()).Check(hidden))
	assert.True(t, NoneOf(Visible(), Clickable()).Check(hidden))
	assert.False(t, NoneOf(Present()).Check(hidden))
}
