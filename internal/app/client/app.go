// Package client собирает клиентское ядро: хранилище сессии, транспортный
// клиент и менеджер сессии, связанные коллбеком истечения.
package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meteoboard/meteoboard-client/internal/config"
	"github.com/meteoboard/meteoboard-client/internal/session"
	"github.com/meteoboard/meteoboard-client/internal/sessionstore"
	"github.com/meteoboard/meteoboard-client/internal/transport"
)

// App держит собранное клиентское ядро и его зависимости.
type App struct {
	manager *session.Manager
	api     *transport.Client
	store   sessionstore.Store
	logger  *slog.Logger
}

// New собирает ядро по конфигу: хранилище по выбранному бэкенду,
// транспорт с таймаутом и лимитером, менеджер с восстановлением сессии.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.client.New"

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	opts := []transport.Option{transport.WithTimeout(cfg.TimeoutAPI)}
	if cfg.RateLimit > 0 {
		opts = append(opts, transport.WithRateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	api := transport.New(cfg.BaseURL, store, logger, opts...)

	manager := session.NewManager(store, api, logger)
	api.OnSessionExpired(manager.SessionExpired)

	return &App{
		manager: manager,
		api:     api,
		store:   store,
		logger:  logger,
	}, nil
}

// Manager возвращает менеджер сессии.
func (a *App) Manager() *session.Manager {
	return a.manager
}

// API возвращает транспортный клиент для запросов данных.
func (a *App) API() *transport.Client {
	return a.api
}

// Close освобождает ресурсы хранилища.
func (a *App) Close() error {
	if closer, ok := a.store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func newStore(ctx context.Context, cfg *config.Config) (sessionstore.Store, error) {
	switch cfg.SessionStore.Backend {
	case "file":
		return sessionstore.NewFile(cfg.FilePath)
	case "redis":
		return sessionstore.NewRedis(ctx, cfg.RedisConnection)
	case "memory":
		return sessionstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown session store backend: %q", cfg.SessionStore.Backend)
	}
}
