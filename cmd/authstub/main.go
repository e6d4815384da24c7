// Package main содержит точку входа для дев-стаба бэкенда аутентификации.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/meteoboard/meteoboard-client/internal/app/authstub"
	"github.com/meteoboard/meteoboard-client/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting auth stub", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := authstub.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize auth stub", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("auth stub stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("auth stub stopped gracefully")
}
