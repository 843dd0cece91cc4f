package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kcaldas/linenoise/pkg/logging"
	"github.com/kcaldas/linenoise/pkg/terminal"
)

// Execute runs the CLI with all commands
func Execute() {
	// A panic must not leave the terminal in raw mode.
	defer func() {
		if r := recover(); r != nil {
			_ = terminal.RestoreAll()
			panic(r)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		_ = terminal.RestoreAll()
		logging.Error("command failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
