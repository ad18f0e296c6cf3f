// Command healthetl reconciles health indicator tables into one analysis
// table.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"healthetl/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
