package schemas

import (
	"errors"
	"fmt"
)

// ErrorKind classifies step failures for the runner's report. Every step
// converts lower-level errors into one of these kinds before returning; no
// raw driver, HTTP or database error escapes a step.
type ErrorKind string

const (
	KindNone                   ErrorKind = ""
	KindTimeout                ErrorKind = "Timeout"
	KindElementNotFound        ErrorKind = "ElementNotFound"
	KindElementNotInteractable ErrorKind = "ElementNotInteractable"
	KindAssertionMismatch      ErrorKind = "AssertionMismatch"
	KindUnauthorized           ErrorKind = "Unauthorized"
	KindForbidden              ErrorKind = "Forbidden"
	KindMalformedResponse      ErrorKind = "MalformedResponse"
	KindDbUnavailable          ErrorKind = "DbUnavailable"
	KindCountMismatch          ErrorKind = "CountMismatch"
	KindUnexpectedRow          ErrorKind = "UnexpectedRow"
	KindLogUnavailable         ErrorKind = "LogUnavailable"
	KindLogEntryMissing        ErrorKind = "LogEntryMissing"
	KindSessionPoisoned        ErrorKind = "SessionPoisoned"
	KindConfigMissing          ErrorKind = "ConfigMissing"
)

// Sentinel errors carried (wrapped) by the packages that produce them.
// Classify() maps them back to an ErrorKind at the step boundary.
var (
	ErrTimeout                = errors.New("bounded wait expired")
	ErrElementNotFound        = errors.New("element not found")
	ErrElementNotInteractable = errors.New("element not interactable")
	ErrAssertionMismatch      = errors.New("assertion mismatch")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrMalformedResponse      = errors.New("malformed response")
	ErrDbUnavailable          = errors.New("database unavailable")
	ErrCountMismatch          = errors.New("row count mismatch")
	ErrUnexpectedRow          = errors.New("unexpected row present")
	ErrLogUnavailable         = errors.New("log file unavailable")
	ErrLogEntryMissing        = errors.New("expected log entry missing")
	ErrSessionPoisoned        = errors.New("browser session poisoned")
	ErrConfigMissing          = errors.New("required configuration key missing")
)

var kindBySentinel = []struct {
	err  error
	kind ErrorKind
}{
	{ErrTimeout, KindTimeout},
	{ErrElementNotFound, KindElementNotFound},
	{ErrElementNotInteractable, KindElementNotInteractable},
	{ErrAssertionMismatch, KindAssertionMismatch},
	{ErrUnauthorized, KindUnauthorized},
	{ErrForbidden, KindForbidden},
	{ErrMalformedResponse, KindMalformedResponse},
	{ErrDbUnavailable, KindDbUnavailable},
	{ErrCountMismatch, KindCountMismatch},
	{ErrUnexpectedRow, KindUnexpectedRow},
	{ErrLogUnavailable, KindLogUnavailable},
	{ErrLogEntryMissing, KindLogEntryMissing},
	{ErrSessionPoisoned, KindSessionPoisoned},
	{ErrConfigMissing, KindConfigMissing},
}

// Classify maps an error chain to its ErrorKind. Unrecognized errors are
// classified as assertion mismatches only if they carry no sentinel at all;
// they fall back to KindNone so callers can treat them as step errors.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, m := range kindBySentinel {
		if errors.Is(err, m.err) {
			return m.kind
		}
	}
	return KindNone
}

// Fatal reports whether the kind must abort the whole scenario rather than
// just fail the current step. A missing log file is deliberately not here: it
// kills its own step, but a diagnostic log check must not take the scenario
// down with it.
func (k ErrorKind) Fatal() bool {
	switch k {
	case KindSessionPoisoned, KindConfigMissing, KindDbUnavailable:
		return true
	}
	return false
}

// Mismatch builds an assertion error carrying the expected and observed
// values, so the step can copy them into its evidence map.
func Mismatch(what string, expected, observed any) error {
	return fmt.Errorf("%s: expected %v, observed %v: %w", what, expected, observed, ErrAssertionMismatch)
}
