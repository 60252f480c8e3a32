// Package schemas holds the data model shared between the browser layer, the
// page objects, the collaborators (HTTP, DB, logs) and the orchestrator.
package schemas

import (
	"time"
)

// Strategy identifies how a Locator value is resolved against the DOM.
type Strategy string

const (
	ByID       Strategy = "id"
	ByCSS      Strategy = "css"
	ByXPath    Strategy = "xpath"
	ByLinkText Strategy = "link-text"
)

// Locator is an immutable (strategy, value) pair owned by the declaring page.
type Locator struct {
	Strategy Strategy `json:"strategy"`
	Value    string   `json:"value"`
}

// ID builds an id locator.
func ID(v string) Locator { return Locator{Strategy: ByID, Value: v} }

// CSS builds a css selector locator.
func CSS(v string) Locator { return Locator{Strategy: ByCSS, Value: v} }

// XPath builds an xpath locator.
func XPath(v string) Locator { return Locator{Strategy: ByXPath, Value: v} }

// LinkText builds a locator matching the exact visible text of an anchor.
func LinkText(v string) Locator { return Locator{Strategy: ByLinkText, Value: v} }

// String renders the locator for logs and timeout errors.
func (l Locator) String() string {
	return string(l.Strategy) + "=" + l.Value
}

// StepStatus is the outcome classification of a single scenario step.
type StepStatus string

const (
	StepPass    StepStatus = "pass"
	StepFail    StepStatus = "fail"
	StepSkipped StepStatus = "skipped"
	StepError   StepStatus = "error"
)

// Evidence is the structured payload attached to a step outcome. Values are
// restricted to the scalar kinds the report format supports: string, int64,
// bool and []string.
type Evidence map[string]any

// StepOutcome records what a single step observed. Failed steps carry both the
// expected and observed values in Evidence so the runner's report is
// actionable without re-running the scenario.
type StepOutcome struct {
	StepID    string     `json:"step_id"`
	Status    StepStatus `json:"status"`
	Evidence  Evidence   `json:"evidence,omitempty"`
	ErrorKind ErrorKind  `json:"error_kind,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// OverallStatus is the scenario-level verdict surfaced to the runner.
type OverallStatus string

const (
	OverallPass OverallStatus = "pass"
	OverallFail OverallStatus = "fail"
)

// ScenarioResult is the ordered, append-only record a scenario emits. Once
// returned to the runner it must not be mutated.
type ScenarioResult struct {
	RunID      string        `json:"run_id"`
	ScenarioID string        `json:"scenario_id"`
	Outcomes   []StepOutcome `json:"outcomes"`
	Overall    OverallStatus `json:"overall"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Passed reports whether every non-skipped step passed.
func (r *ScenarioResult) Passed() bool {
	for _, o := range r.Outcomes {
		if o.Status == StepSkipped {
			continue
		}
		if o.Status != StepPass {
			return false
		}
	}
	return true
}
