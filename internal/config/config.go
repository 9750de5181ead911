package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath  = "config.toml"
	DefaultHTTPAddr    = ":8080"
	DefaultJWTExpires  = "24h"
	DefaultPGHost      = "127.0.0.1"
	DefaultPGPort      = 5432
	DefaultPGUser      = "postgres"
	DefaultPGDatabase  = "zaptalk"
	DefaultPGSSLMode   = "disable"
	DefaultMediaRoot   = "data/media"
	DefaultPublicBase  = "/media"
	DefaultGatewayBase = "https://gateway.zaptalk.internal"
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Postgres PostgresConfig `toml:"postgres"`
	Storage  StorageConfig  `toml:"storage"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Ingest   IngestConfig   `toml:"ingest"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// DSN returns the connection string in URL form.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

type StorageConfig struct {
	// MediaRoot is the directory where cached media objects are stored.
	MediaRoot string `toml:"media_root"`
	// PublicBase is the URL prefix under which stored objects are served.
	PublicBase string `toml:"public_base"`
	// MaxBytes caps a single cached object. Zero means the built-in limit.
	MaxBytes int64 `toml:"max_bytes"`
}

type GatewayConfig struct {
	// BaseURL of the upstream WhatsApp gateway API, used for the
	// authenticated download-by-message-id fallback.
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type IngestConfig struct {
	// EagerTimeoutSeconds bounds the synchronous media-cache attempt made
	// before the webhook is acknowledged.
	EagerTimeoutSeconds int `toml:"eager_timeout_seconds"`
	// Workers and QueueSize shape the background media-cache pool.
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
	// PlaceholderWindowSeconds is the trailing window in which an
	// optimistic outbound placeholder may be reconciled.
	PlaceholderWindowSeconds int `toml:"placeholder_window_seconds"`
	// RingSize bounds the in-memory diagnostic event buffer.
	RingSize int `toml:"ring_size"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpires,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Storage: StorageConfig{
			MediaRoot:  DefaultMediaRoot,
			PublicBase: DefaultPublicBase,
		},
		Gateway: GatewayConfig{
			BaseURL:        DefaultGatewayBase,
			TimeoutSeconds: 30,
		},
		Ingest: IngestConfig{
			EagerTimeoutSeconds:      4,
			Workers:                  4,
			QueueSize:                256,
			PlaceholderWindowSeconds: 90,
			RingSize:                 200,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
