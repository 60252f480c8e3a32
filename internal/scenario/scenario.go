// File: internal/scenario/scenario.go

// Package scenario declares the step model and the catalogue of end-to-end
// scenarios. A scenario is an ordered sequence of steps over a shared
// environment; the runner executes it fail-fast, marking the successors of
// the first failed step as skipped.
package scenario

import (
	"context"

	"go.uber.org/zap"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/apiclient"
	"github.com/veraqa/shoptest/internal/browser"
	"github.com/veraqa/shoptest/internal/config"
	"github.com/veraqa/shoptest/internal/dbverify"
	"github.com/veraqa/shoptest/internal/logscan"
	"github.com/veraqa/shoptest/internal/pages"
)

// Browser is the session surface scenarios consume: driving plus the session
// controls used by the persistence scenarios. The orchestrator's session
// handle implements it so a recycle swaps the underlying process without
// invalidating page objects.
type Browser interface {
	browser.Driver
	SnapshotCookies(ctx context.Context) (schemas.CookieBag, error)
	RestoreCookies(ctx context.Context, bag schemas.CookieBag) error
	Recycle(ctx context.Context) error
}

// Env carries the collaborators a scenario's steps run against. Fields the
// scenario did not declare in its Needs are nil.
type Env struct {
	Cfg     *config.Config
	Log     *zap.Logger
	Browser Browser
	Pages   *pages.Registry
	API     *apiclient.API
	DB      *dbverify.Verifier
	Logs    *logscan.Scanner
}

// Needs declares which collaborators a scenario requires. The orchestrator
// constructs only these; a UI-free scenario never launches a browser.
type Needs struct {
	Browser bool
	API     bool
	DB      bool
	Logs    bool
}

// Step is one unit of a scenario. Run returns the evidence gathered so far
// even on failure, so a mismatch report carries the observed values.
type Step struct {
	ID string
	// ContinueOnError lets diagnostic steps fail without halting the
	// scenario. Fatal error kinds halt regardless.
	ContinueOnError bool
	Run             func(ctx context.Context) (schemas.Evidence, error)
}

// Scenario is one catalogue entry.
type Scenario struct {
	ID    string
	Title string
	Needs Needs
	Build func(env *Env) []Step
}

// statusFor maps error kinds that represent a checked expectation not
// holding to fail; everything else is an infrastructure error.
func statusFor(kind schemas.ErrorKind) schemas.StepStatus {
	switch kind {
	case schemas.KindAssertionMismatch, schemas.KindCountMismatch,
		schemas.KindUnexpectedRow, schemas.KindLogEntryMissing:
		return schemas.StepFail
	}
	return schemas.StepError
}

// RunSteps executes the steps in order under the fail-fast policy and returns
// one outcome per step. Once a step fails or errors, later steps are recorded
// as skipped without running; a step marked ContinueOnError keeps the run
// going unless its error kind is fatal. Context cancellation skips all
// remaining steps.
func RunSteps(ctx context.Context, logger *zap.Logger, steps []Step) []schemas.StepOutcome {
	outcomes := make([]schemas.StepOutcome, 0, len(steps))
	halted := false

	for _, st := range steps {
		if halted || ctx.Err() != nil {
			outcomes = append(outcomes, schemas.StepOutcome{StepID: st.ID, Status: schemas.StepSkipped})
			continue
		}

		ev, err := st.Run(ctx)
		if err == nil {
			logger.Debug("step passed", zap.String("step", st.ID))
			outcomes = append(outcomes, schemas.StepOutcome{
				StepID:   st.ID,
				Status:   schemas.StepPass,
				Evidence: ev,
			})
			continue
		}

		kind := schemas.Classify(err)
		status := statusFor(kind)
		logger.Warn("step did not pass",
			zap.String("step", st.ID),
			zap.String("status", string(status)),
			zap.String("kind", string(kind)),
			zap.Error(err))
		outcomes = append(outcomes, schemas.StepOutcome{
			StepID:    st.ID,
			Status:    status,
			Evidence:  ev,
			ErrorKind: kind,
			Message:   err.Error(),
		})

		if kind.Fatal() || !st.ContinueOnError {
			halted = true
		}
	}
	return outcomes
}
