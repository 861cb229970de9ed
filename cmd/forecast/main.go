package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yanqian/nutriforecast/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(logger.NewStderr())
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
