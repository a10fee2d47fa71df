package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/yungbote/unidine-backend/internal/cli"
)

// Set via ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
