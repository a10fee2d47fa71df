package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/unidine-backend/internal/app"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}

	if err := a.Start(); err != nil {
		a.Log.Error("Failed to start workers", "error", err)
		a.Close()
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	select {
	case <-ctx.Done():
		a.Log.Info("Shutting down...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			a.Log.Error("Server failed", "error", err)
			a.Close()
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		a.Log.Warn("Graceful shutdown incomplete", "error", err)
	}
}
