package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// newCommandContext cancels on SIGINT/SIGTERM so a running batch stops
// between items and still reports what it finished.
func newCommandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
