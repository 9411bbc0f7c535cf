// Package config loads application settings from the environment.
//
// A .env file in the working directory is loaded first when present;
// real environment variables always win over it.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Upload   UploadConfig
	Cache    CacheConfig
	Email    EmailConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Host        string   `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port        int      `env:"SERVER_PORT" envDefault:"9090"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

type DatabaseConfig struct {
	Path string `env:"DATABASE_PATH" envDefault:"./data/lectern.db"`
}

type JWTConfig struct {
	Secret             string `env:"JWT_SECRET,required,notEmpty"`
	AccessTokenExpiry  int    `env:"JWT_ACCESS_EXPIRY_MINUTES" envDefault:"15"`
	RefreshTokenExpiry int    `env:"JWT_REFRESH_EXPIRY_DAYS" envDefault:"7"`
}

type UploadConfig struct {
	Dir     string `env:"UPLOAD_DIR" envDefault:"./data/uploads"`
	MaxSize int64  `env:"UPLOAD_MAX_SIZE" envDefault:"26214400"` // 25MB
}

// CacheConfig selects the catalog cache backend. TTL belongs to the backend:
// the catalog service never picks an expiry itself.
type CacheConfig struct {
	Backend  string        `env:"CACHE_BACKEND" envDefault:"memory"` // memory or redis
	TTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	RedisURL string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	Prefix   string        `env:"CACHE_PREFIX" envDefault:"lectern:"`
}

// EmailConfig is optional; mail is disabled unless all three are set.
type EmailConfig struct {
	ResendAPIKey string `env:"RESEND_API_KEY"`
	FromEmail    string `env:"RESEND_FROM"`
	AppURL       string `env:"APP_URL"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // text or json
}

type MetricsConfig struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

// Load reads .env (if any) and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.Server.Port)
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("invalid CACHE_BACKEND %q: want memory or redis", c.Cache.Backend)
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("invalid UPLOAD_MAX_SIZE: %d", c.Upload.MaxSize)
	}
	return nil
}

// Addr returns the listen address, e.g. "0.0.0.0:9090".
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EmailEnabled reports whether outgoing mail is configured.
func (e *EmailConfig) EmailEnabled() bool {
	return e.ResendAPIKey != "" && e.FromEmail != "" && e.AppURL != ""
}

// NewLogger builds the process logger from LogConfig.
func (l *LogConfig) NewLogger() *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if l.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
