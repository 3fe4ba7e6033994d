package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lorrc/ticket-insights/internal/adapters/primary/cli"
	"github.com/lorrc/ticket-insights/internal/config"
)

func main() {
	// A .env file is optional for the CLI; it only matters for `insights token`.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewCLI(cli.Options{Config: config.FromEnv()})
	if err := app.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
