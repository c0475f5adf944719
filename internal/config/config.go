package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

const (
	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"
)

const (
	// MissedNotify fires reminders that came due while the process was down.
	MissedNotify = "notify"
	// MissedSkip drops them with a log line instead.
	MissedSkip = "skip"
)

type Config struct {
	BotToken        string
	AppEnv          string
	LogLevel        string
	DataDir         string
	StoreBackend    string
	MissedReminders string
	OpsPort         string
	DB              DBConfig
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if _, err := strconv.Atoi(c.OpsPort); err != nil {
		return fmt.Errorf("invalid OPS_PORT %q: %w", c.OpsPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	switch c.StoreBackend {
	case StoreBackendFile, StoreBackendPostgres:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: must be file or postgres", c.StoreBackend)
	}
	switch c.MissedReminders {
	case MissedNotify, MissedSkip:
	default:
		return fmt.Errorf("invalid MISSED_REMINDERS %q: must be notify or skip", c.MissedReminders)
	}
	if c.StoreBackend == StoreBackendFile && c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required when STORE_BACKEND is file")
	}
	return nil
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

func Load() Config {
	return Config{
		BotToken:        os.Getenv("BOT_TOKEN"),
		AppEnv:          envOrDefault("APP_ENV", "local"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		DataDir:         envOrDefault("DATA_DIR", "./data"),
		StoreBackend:    envOrDefault("STORE_BACKEND", StoreBackendFile),
		MissedReminders: envOrDefault("MISSED_REMINDERS", MissedNotify),
		OpsPort:         envOrDefault("OPS_PORT", "8080"),
		DB: DBConfig{
			Host:     envOrDefault("DB_HOST", "localhost"),
			Port:     envOrDefault("DB_PORT", "5432"),
			User:     envOrDefault("DB_USER", "reminder"),
			Password: envOrDefault("DB_PASSWORD", "reminder"),
			Name:     envOrDefault("DB_NAME", "reminder"),
			SSLMode:  envOrDefault("DB_SSLMODE", "disable"),
		},
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
