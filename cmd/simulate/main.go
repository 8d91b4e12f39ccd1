package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/powerstream/internal/simulator"
	"github.com/okian/powerstream/pkg/logger"
)

func main() {
	cfg, err := simulator.ParseFlags("simulate", os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, simulator.ErrHelp) {
			return
		}
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(2)
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if cfg.Verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := simulator.Run(ctx, cfg, logger.Named("simulator")); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		os.Exit(1)
	}
}
