// Pump generates synthetic byte streams and writes them to a file,
// directory, or standard output under size, time, rate, memory, and
// disk guardrails.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/filepump/pump/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
