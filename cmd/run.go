// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/observability"
	"github.com/veraqa/shoptest/internal/orchestrator"
	"github.com/veraqa/shoptest/internal/scenario"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errScenariosFailed signals a clean run whose scenarios did not all pass.
var errScenariosFailed = errors.New("one or more scenarios failed")

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [scenario-ids...]",
		Short: "Runs the named scenarios, or the whole catalogue when none are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			parallel, _ := cmd.Flags().GetInt("parallel")
			asJSON, _ := cmd.Flags().GetBool("json")
			output, _ := cmd.Flags().GetString("output")

			// errgroup.SetLimit(0) would block every Go call forever.
			if parallel < 1 {
				return fmt.Errorf("--parallel must be at least 1, got %d", parallel)
			}

			ids := args
			if len(ids) == 0 {
				for _, s := range scenario.List() {
					ids = append(ids, s.ID)
				}
			}
			// Validate up front so a typo fails before any browser launches.
			for _, id := range ids {
				if _, err := scenario.Lookup(id); err != nil {
					return err
				}
			}

			logger.Info("Starting scenario run",
				zap.Strings("scenarios", ids),
				zap.Int("parallel", parallel))

			orch := orchestrator.New(cfg)

			var mu sync.Mutex
			results := make([]schemas.ScenarioResult, 0, len(ids))

			// Scenarios are independent; each owns its session, client and
			// pool, so the only shared state here is the result slice.
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(parallel)
			for _, id := range ids {
				id := id
				g.Go(func() error {
					result, err := orch.Run(gctx, id)
					if err != nil {
						return err
					}
					mu.Lock()
					results = append(results, result)
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Warn("Run aborted by user signal")
				}
				return err
			}

			if err := emitResults(cmd, results, asJSON, output); err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Overall != schemas.OverallPass {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios: %w", failed, len(results), errScenariosFailed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nAll %d scenarios passed.\n", len(results))
			return nil
		},
	}

	runCmd.Flags().IntP("parallel", "j", 1, "Number of scenarios to run concurrently.")
	runCmd.Flags().Bool("json", false, "Print the scenario results as JSON.")
	runCmd.Flags().StringP("output", "o", "", "Write the JSON results to a file instead of stdout.")

	return runCmd
}

func emitResults(cmd *cobra.Command, results []schemas.ScenarioResult, asJSON bool, output string) error {
	if output != "" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		return nil
	}

	if asJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %s (%s)\n", r.ScenarioID, r.Overall, r.FinishedAt.Sub(r.StartedAt).Round(10*time.Millisecond))
		for _, o := range r.Outcomes {
			line := fmt.Sprintf("  [%s] %s", o.Status, o.StepID)
			if o.Message != "" {
				line += " - " + o.Message
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
	}
	return nil
}
