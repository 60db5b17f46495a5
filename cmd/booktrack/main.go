// Package main is the entry point for the booktrack CLI.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"booktrack/internal/backend/bookapi"
	"booktrack/internal/cli"
	"booktrack/internal/commands"
	"booktrack/internal/config"
	"booktrack/internal/service"
)

func main() {
	// Variables from .env never override the real environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create service factory
	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		if !cfg.HasSession() {
			return nil, service.ErrUnauthenticated
		}
		return bookapi.NewFromConfig(cfg, commands.UserAgent())
	}

	// Create dispatcher
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
