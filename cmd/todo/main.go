// Package main is the entry point for the todo CLI.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"todo/internal/backend/googlesignin"
	"todo/internal/backend/todoapi"
	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/service"
	"todo/internal/session"
)

func main() {
	// A .env in the working directory may set TODO_* variables.
	_ = godotenv.Load()

	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := func(ctx context.Context, cfg *config.Config, store session.Store, logger *slog.Logger) (service.Service, error) {
		return todoapi.New(cfg, store, logger)
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory, cli.Options{
		GoogleSignIn: googleSignIn,
		In:           os.Stdin,
	})

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func googleSignIn(ctx context.Context, cfg *config.Config, prompt io.Writer, logger *slog.Logger) (service.GoogleIdentity, error) {
	oc, err := googlesignin.LoadConfig(cfg.GoogleClientPath())
	if err != nil {
		return service.GoogleIdentity{}, err
	}
	return googlesignin.New(oc, prompt, logger).Run(ctx)
}
