// Package authstub собирает и запускает дев-стаб бэкенда аутентификации.
package authstub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/meteoboard/meteoboard-client/internal/authstub"
	"github.com/meteoboard/meteoboard-client/internal/config"
)

type App struct {
	server *http.Server
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	stub := authstub.New(logger, cfg.JWTSecretKey, cfg.TokenTTL)

	srv := &http.Server{
		Addr:         cfg.AddressStub,
		Handler:      stub.Router(),
		ReadTimeout:  cfg.TimeoutStub,
		WriteTimeout: cfg.TimeoutStub,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("auth stub starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return a.server.Shutdown(timeoutCtx)
	}
}
