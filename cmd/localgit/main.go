// Command localgit serves build branches from a fleet of git mirrors.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		clog.ErrorContextf(ctx, "localgit: %v", err)
		cancel()
		os.Exit(1)
	}
}
