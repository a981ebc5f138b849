// Package main is the entry point for the BOOPING server.
//
// The main package stays minimal:
//  1. Read configuration (environment, optional .env file)
//  2. Create the logger
//  3. Build and start the server
//
// Everything else lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/booping/internal/config"
	"github.com/sakif/booping/internal/server"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if cfg.SecretKey == config.DefaultSecretKey {
		logger.Warn("SECRET_KEY is the development default, set it before deploying")
	}

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
