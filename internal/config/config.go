// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек клиентского ядра.
type Config struct {
	Env             string `yaml:"env" env-default:"local"`
	APIClient       `yaml:"api_client"`
	SessionStore    `yaml:"session_store"`
	RedisConnection `yaml:"redis_connection"`
	StubServer      `yaml:"stub_server"`
	JWTToken        `yaml:"jwttoken"`
}

// APIClient структура для настройки транспортного клиента.
type APIClient struct {
	BaseURL    string        `yaml:"base_url"`
	TimeoutAPI time.Duration `yaml:"timeoutapi" env-default:"10s"`
	RateLimit  float64       `yaml:"rate_limit"`
	RateBurst  int           `yaml:"rate_burst"`
}

// SessionStore структура для выбора бэкенда хранилища сессии.
type SessionStore struct {
	Backend  string `yaml:"backend" env-default:"file"` // file, redis или memory
	FilePath string `yaml:"file_path"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// StubServer структура для настройки дев-стаба бэкенда аутентификации.
type StubServer struct {
	AddressStub string        `yaml:"addressstub"`
	TimeoutStub time.Duration `yaml:"timeoutstub"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// JWTToken структура для выпуска токенов дев-стабом.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"APIClient:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"  RateLimit: %.1f\n"+
			"  RateBurst: %d\n"+
			"SessionStore:\n"+
			"  Backend: %s\n"+
			"  FilePath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"StubServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n",
		c.Env,
		c.BaseURL,
		c.TimeoutAPI,
		c.RateLimit,
		c.RateBurst,
		c.Backend,
		c.FilePath,
		c.AddressRedis,
		c.DB,
		c.AddressStub,
		c.TimeoutStub,
		c.IdleTimeout,
		c.TokenTTL,
	)
}
