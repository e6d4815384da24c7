// Package main содержит демонстрационный прогон клиентского ядра:
// логин, снимок сессии, защищенный запрос данных, решения шлюза и выход.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	clientapp "github.com/meteoboard/meteoboard-client/internal/app/client"
	"github.com/meteoboard/meteoboard-client/internal/authz"
	"github.com/meteoboard/meteoboard-client/internal/config"
	"github.com/meteoboard/meteoboard-client/internal/lib/sl"
	"github.com/meteoboard/meteoboard-client/internal/session"
	"github.com/meteoboard/meteoboard-client/internal/tier"
	"github.com/meteoboard/meteoboard-client/internal/transport"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting meteoboard client", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := clientapp.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize client core", sl.Err(err))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close session store", sl.Err(err))
		}
	}()

	if err := run(ctx, app, logger); err != nil {
		logger.Error("client run failed", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("meteoboard client finished")
}

func run(ctx context.Context, app *clientapp.App, logger *slog.Logger) error {
	mgr := app.Manager()

	unsubscribe := mgr.Subscribe(func(snap session.Snapshot) {
		logger.Debug("session snapshot changed",
			slog.Bool("authenticated", snap.IsAuthenticated),
			slog.Bool("loading", snap.IsLoading),
			slog.String("tier", string(snap.Tier)))
	})
	defer unsubscribe()

	email := os.Getenv("METEOBOARD_EMAIL")
	password := os.Getenv("METEOBOARD_PASSWORD")

	if snap := mgr.Snapshot(); snap.IsAuthenticated {
		logger.Info("restored previous session",
			slog.String("username", snap.User.Username),
			slog.String("tier", string(snap.Tier)))
	} else {
		if email == "" || password == "" {
			logger.Error("no stored session and no credentials; set METEOBOARD_EMAIL and METEOBOARD_PASSWORD")
			return nil
		}
		user, err := mgr.Login(ctx, email, password)
		if err != nil {
			if transport.IsKind(err, transport.KindInvalidCredentials) {
				logger.Error("credentials rejected", slog.String("email", email))
				return nil
			}
			return err
		}
		logger.Info("logged in",
			slog.String("username", user.Username),
			slog.String("tier", string(user.Tier)),
			slog.Bool("is_admin", user.IsAdmin))
	}

	var observations []map[string]any
	err := app.API().CallJSON(ctx, transport.Request{
		Method:      http.MethodGet,
		Path:        "/api/v1/observations",
		RequireAuth: true,
	}, &observations)
	if err != nil {
		return err
	}
	logger.Info("fetched observations", slog.Int("count", len(observations)))

	for _, gate := range []struct {
		name string
		gate authz.Gate
	}{
		{"radar-overlay", authz.Gate{Feature: "radar_overlay", Log: logger}},
		{"lightning-alerts", authz.Gate{MinTier: tier.Professional, Flag: "lightning_alerts", Log: logger}},
		{"raw-station-export", authz.Gate{MinTier: tier.Researcher, Log: logger}},
	} {
		logger.Info("gate decision",
			slog.String("gate", gate.name),
			slog.Bool("allowed", gate.gate.Allowed(mgr)))
	}

	adminGuard := authz.Guard{RequireAdmin: true}
	logger.Info("admin panel guard", slog.String("state", adminGuard.Evaluate(mgr.Snapshot()).String()))

	if err := mgr.Logout(ctx); err != nil {
		return err
	}
	logger.Info("logged out")
	return nil
}
