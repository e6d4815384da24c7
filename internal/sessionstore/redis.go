package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/meteoboard/meteoboard-client/internal/config"
	"github.com/meteoboard/meteoboard-client/internal/models"
)

// sessionKey — единственный ключ, под которым лежит сессия.
// Один ключ дает атомарную запись и очистку одной командой.
const sessionKey = "meteoboard:session"

// RedisStore хранит сессию в redis. Используется в безголовых
// развертываниях клиента, где локального диска нет.
type RedisStore struct {
	db *redis.Client
}

// NewRedis подключается к redis по настройкам из конфига.
func NewRedis(ctx context.Context, cfg config.RedisConnection) (*RedisStore, error) {
	const op = "sessionstore.NewRedis"

	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RedisStore{db: db}, nil
}

// Read читает сессию. Отсутствующий ключ или испорченный JSON дают пустой результат.
func (r *RedisStore) Read() (models.Session, bool) {
	var session models.Session

	val, err := r.db.Get(context.Background(), sessionKey).Result()
	if err != nil {
		return models.Session{}, false
	}
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return models.Session{}, false
	}
	if !session.Valid() {
		return models.Session{}, false
	}
	return session, true
}

// Write сохраняет сессию одной командой SET.
func (r *RedisStore) Write(session models.Session) error {
	const op = "sessionstore.RedisStore.Write"

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := r.db.Set(context.Background(), sessionKey, data, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Clear удаляет ключ сессии. DEL несуществующего ключа не является ошибкой.
func (r *RedisStore) Clear() error {
	const op = "sessionstore.RedisStore.Clear"

	if err := r.db.Del(context.Background(), sessionKey).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает подключение к redis.
func (r *RedisStore) Close() error {
	return r.db.Close()
}
