// File: internal/orchestrator/orchestrator.go

// Package orchestrator resolves scenario ids, builds the collaborators each
// scenario declares, runs the steps under the fail-fast policy and emits the
// scenario result. Teardown of the browser session and the database pool runs
// on every exit path, cancellation included.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/apiclient"
	"github.com/veraqa/shoptest/internal/config"
	"github.com/veraqa/shoptest/internal/dbverify"
	"github.com/veraqa/shoptest/internal/logscan"
	"github.com/veraqa/shoptest/internal/observability"
	"github.com/veraqa/shoptest/internal/pages"
	"github.com/veraqa/shoptest/internal/scenario"
)

// setupStepID is the synthetic outcome id recorded when collaborator
// construction fails before any declared step could run.
const setupStepID = "setup-collaborators"

// Orchestrator runs catalogue scenarios against one configuration. It is
// stateless across runs; every Run builds and tears down its own
// collaborators, so scenarios can execute in parallel at the process level.
type Orchestrator struct {
	cfg *config.Config
	log *zap.Logger
}

// New builds an orchestrator bound to a validated configuration.
func New(cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		cfg: cfg,
		log: observability.GetLogger().Named("orchestrator"),
	}
}

// Run resolves the scenario id, executes it and returns its result. An
// unknown id is the only error return; every runtime failure is reported
// inside the result itself.
func (o *Orchestrator) Run(ctx context.Context, scenarioID string) (schemas.ScenarioResult, error) {
	sc, err := scenario.Lookup(scenarioID)
	if err != nil {
		return schemas.ScenarioResult{}, err
	}

	result := schemas.ScenarioResult{
		RunID:      uuid.NewString(),
		ScenarioID: sc.ID,
		StartedAt:  time.Now().UTC(),
	}
	log := o.log.With(zap.String("run_id", result.RunID), zap.String("scenario", sc.ID))
	log.Info("scenario starting", zap.String("title", sc.Title))

	env, teardown, err := o.buildEnv(ctx, sc.Needs, log)
	defer teardown()
	if err != nil {
		kind := schemas.Classify(err)
		result.Outcomes = append(result.Outcomes, schemas.StepOutcome{
			StepID:    setupStepID,
			Status:    schemas.StepError,
			ErrorKind: kind,
			Message:   err.Error(),
		})
		result.Overall = schemas.OverallFail
		result.FinishedAt = time.Now().UTC()
		log.Error("scenario setup failed", zap.Error(err))
		return result, nil
	}

	result.Outcomes = scenario.RunSteps(ctx, log, sc.Build(env))
	if result.Passed() {
		result.Overall = schemas.OverallPass
	} else {
		result.Overall = schemas.OverallFail
	}
	result.FinishedAt = time.Now().UTC()

	log.Info("scenario finished",
		zap.String("overall", string(result.Overall)),
		zap.Duration("took", result.FinishedAt.Sub(result.StartedAt)))
	return result, nil
}

// buildEnv constructs exactly the collaborators the scenario declared. The
// returned teardown is always safe to call, also when construction failed
// half-way.
func (o *Orchestrator) buildEnv(ctx context.Context, needs scenario.Needs, log *zap.Logger) (*scenario.Env, func(), error) {
	env := &scenario.Env{Cfg: o.cfg, Log: log}

	var handle *sessionHandle
	var verifier *dbverify.Verifier
	teardown := func() {
		if handle != nil {
			handle.Close()
		}
		if verifier != nil {
			verifier.Close()
		}
	}

	if needs.Browser {
		var err error
		handle, err = newSessionHandle(ctx, o.cfg.Browser, o.cfg.Timeouts.Wait, log)
		if err != nil {
			return nil, teardown, err
		}
		env.Browser = handle
		env.Pages = pages.NewRegistry(handle, o.cfg, log)
	}

	if needs.API {
		client := apiclient.New(o.cfg.Timeouts.HTTP, log)
		env.API = apiclient.NewAPI(client, o.cfg.AUT)
	}

	if needs.DB {
		var err error
		verifier, err = dbverify.Connect(ctx, o.cfg.DB.DSN(), o.cfg.Timeouts.DB, log)
		if err != nil {
			return nil, teardown, err
		}
		env.DB = verifier
	}

	if needs.Logs {
		env.Logs = logscan.New(log)
	}

	return env, teardown, nil
}
