package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/payout-harvest/internal/cli"
)

func main() {
	// Interrupts cancel the run so deferred closes flush the output file.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
