package config

import (
	"log/slog"
	"os"
	"strings"
)

const (
	defaultDBPath    = "./dev.db"
	defaultPort      = "8080"
	defaultUploadDir = "./uploads"
	defaultEnv       = "dev"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env         string
	DBPath      string
	Port        string
	UploadDir   string
	LogLevel    string
	LogFormat   string
	PricingFile string
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: load local dev environment variables.
	// A missing file is fine; production should use real env injection.
	if err := loadDotEnv(".env"); err != nil {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg := Config{
		Env:         os.Getenv("APP_ENV"),
		DBPath:      os.Getenv("DB_PATH"),
		Port:        os.Getenv("PORT"),
		UploadDir:   os.Getenv("UPLOAD_DIR"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   os.Getenv("LOG_FORMAT"),
		PricingFile: os.Getenv("PRICING_FILE"),
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = defaultUploadDir
	}
	if cfg.LogFormat == "" {
		if cfg.IsDev() {
			cfg.LogFormat = "console"
		} else {
			cfg.LogFormat = "json"
		}
	}

	return cfg
}

// IsDev reports whether the service runs in a local development environment.
func (c Config) IsDev() bool {
	return strings.EqualFold(c.Env, "dev") || strings.EqualFold(c.Env, "development")
}
