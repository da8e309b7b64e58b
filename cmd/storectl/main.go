// Command storectl is the operator CLI for the store tier service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/store-tier-service/internal/cli"
	"github.com/couchcryptid/store-tier-service/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadEnvFile()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "storectl:", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
