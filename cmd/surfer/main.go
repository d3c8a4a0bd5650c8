// Package main provides the surfer command: a multimodal agent that browses
// the web on the user's behalf, one browser action per turn.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/surfer/pkg/logging"
)

const version = "0.1.0" // Version of the surfer agent

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	_ = logging.Shutdown()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
