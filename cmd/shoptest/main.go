// File: cmd/shoptest/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/veraqa/shoptest/cmd"
	"github.com/veraqa/shoptest/internal/observability"
)

const panicLogFile = "panic.log"

// osExit allows mocking os.Exit in tests.
var osExit = os.Exit

func main() {
	defer handlePanic()

	// Listen for interrupt signals so an aborted run still tears its browser
	// sessions down.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			osExit(0)
		}
		osExit(1)
	}
}

// handlePanic writes the panic and stack to a dedicated file so a crashed run
// leaves evidence even when stderr is lost to the CI harness.
func handlePanic() {
	if r := recover(); r != nil {
		observability.Sync()

		panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
		if err := os.WriteFile(panicLogFile, []byte(panicMessage), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
			fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
			osExit(1)
			return
		}
		fmt.Fprintf(os.Stderr, "CRASH DETECTED. Details logged to %s\n", panicLogFile)
		osExit(1)
	}
}
