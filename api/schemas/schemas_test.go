// File: api/schemas/schemas_test.go
package schemas

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorString(t *testing.T) {
	assert.Equal(t, "id=login-button", ID("login-button").String())
	assert.Equal(t, "css=.alert-danger", CSS(".alert-danger").String())
	assert.Equal(t, "xpath=//a[1]", XPath("//a[1]").String())
	assert.Equal(t, "link-text=Logout", LinkText("Logout").String())
}

func TestClassifyMapsWrappedSentinels(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
	}{
		{fmt.Errorf("wait for visible: %w", ErrTimeout), KindTimeout},
		{fmt.Errorf("page: %w", ErrElementNotFound), KindElementNotFound},
		{fmt.Errorf("click: %w", ErrElementNotInteractable), KindElementNotInteractable},
		{Mismatch("error text", "a", "b"), KindAssertionMismatch},
		{fmt.Errorf("profile: %w", ErrUnauthorized), KindUnauthorized},
		{fmt.Errorf("decode: %w", ErrMalformedResponse), KindMalformedResponse},
		{fmt.Errorf("ping: %w", ErrDbUnavailable), KindDbUnavailable},
		{fmt.Errorf("rows: %w", ErrCountMismatch), KindCountMismatch},
		{fmt.Errorf("rows: %w", ErrUnexpectedRow), KindUnexpectedRow},
		{fmt.Errorf("stat: %w", ErrLogUnavailable), KindLogUnavailable},
		{fmt.Errorf("scan: %w", ErrLogEntryMissing), KindLogEntryMissing},
		{fmt.Errorf("driver: %w", ErrSessionPoisoned), KindSessionPoisoned},
		{fmt.Errorf("key: %w", ErrConfigMissing), KindConfigMissing},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, Classify(tc.err), tc.err.Error())
	}
}

func TestClassifyUnknownAndNil(t *testing.T) {
	assert.Equal(t, KindNone, Classify(nil))
	assert.Equal(t, KindNone, Classify(errors.New("something else entirely")))
}

func TestFatalKinds(t *testing.T) {
	assert.True(t, KindSessionPoisoned.Fatal())
	assert.True(t, KindConfigMissing.Fatal())
	assert.True(t, KindDbUnavailable.Fatal())

	assert.False(t, KindTimeout.Fatal())
	assert.False(t, KindAssertionMismatch.Fatal())
	// A missing log file fails its step; only a ContinueOnError flag decides
	// whether the scenario goes on.
	assert.False(t, KindLogUnavailable.Fatal())
	assert.False(t, KindLogEntryMissing.Fatal())
	assert.False(t, KindNone.Fatal())
}

func TestMismatchCarriesValues(t *testing.T) {
	err := Mismatch("login error text", "Invalid email or password", "Server Error")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAssertionMismatch)
	assert.Contains(t, err.Error(), "Invalid email or password")
	assert.Contains(t, err.Error(), "Server Error")
}

func TestCookieBagNameMatching(t *testing.T) {
	bag := CookieBag{
		{Name: "JSESSIONID", Value: "abc"},
		{Name: "csrf_token", Value: "def"},
	}
	assert.True(t, bag.HasNameContaining("session"))
	assert.True(t, bag.HasNameContaining("CSRF"))
	assert.False(t, bag.HasNameContaining("remember"))
	assert.Equal(t, []string{"JSESSIONID", "csrf_token"}, bag.Names())

	assert.False(t, CookieBag(nil).HasNameContaining("session"))
}

func TestScenarioResultPassed(t *testing.T) {
	now := time.Now()
	r := ScenarioResult{
		RunID:      "r1",
		ScenarioID: "login-valid",
		StartedAt:  now,
		FinishedAt: now,
		Outcomes: []StepOutcome{
			{StepID: "a", Status: StepPass},
			{StepID: "b", Status: StepSkipped},
		},
	}
	assert.True(t, r.Passed())

	r.Outcomes = append(r.Outcomes, StepOutcome{StepID: "c", Status: StepFail, ErrorKind: KindAssertionMismatch})
	assert.False(t, r.Passed())

	r.Outcomes = []StepOutcome{{StepID: "a", Status: StepError, ErrorKind: KindTimeout}}
	assert.False(t, r.Passed())
}
