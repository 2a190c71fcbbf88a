// File: cmd/atesim/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/atesim/cmd"
	"github.com/xkilldash9x/atesim/internal/observability"
)

// osExit is a variable so tests can intercept the exit path.
var osExit = os.Exit

func main() {
	// Listen for interrupt signals so a long repetition loop can be
	// abandoned cleanly with Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			osExit(130)
		}
		osExit(1)
	}
}
