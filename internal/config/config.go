// Package config loads service settings from configs/.env and the process environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port          string        `mapstructure:"PORT"`
	GinMode       string        `mapstructure:"GIN_MODE"`
	DBHost        string        `mapstructure:"DB_HOST"`
	DBPort        string        `mapstructure:"DB_PORT"`
	DBUser        string        `mapstructure:"DB_USER"`
	DBPassword    string        `mapstructure:"DB_PASSWORD"`
	DBName        string        `mapstructure:"DB_NAME"`
	DBSSLMode     string        `mapstructure:"DB_SSLMODE"`
	StoreDriver   string        `mapstructure:"STORE_DRIVER"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	NotifyTimeout time.Duration `mapstructure:"NOTIFY_TIMEOUT"`
	CORSOrigins   []string      `mapstructure:"CORS_ORIGINS"`
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	TokenTTL      time.Duration `mapstructure:"TOKEN_TTL"`
	AdminEmail    string        `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string        `mapstructure:"ADMIN_PASSWORD"`
}

var defaults = map[string]interface{}{
	"PORT":           "8080",
	"GIN_MODE":       "debug",
	"DB_HOST":        "localhost",
	"DB_PORT":        "5432",
	"DB_USER":        "postgres",
	"DB_PASSWORD":    "postgres",
	"DB_NAME":        "postgres",
	"DB_SSLMODE":     "disable",
	"STORE_DRIVER":   StoreDriverPostgres,
	"JWT_SECRET":     "",
	"NOTIFY_TIMEOUT": "5s",
	"CORS_ORIGINS":   "http://localhost:5173,http://127.0.0.1:5173",
	"LOG_LEVEL":      "info",
	"TOKEN_TTL":      "24h",
	"ADMIN_EMAIL":    "",
	"ADMIN_PASSWORD": "",
}

// Load reads envFile if it exists (a missing file is not an error), then
// overlays the process environment on the defaults.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive, got %s", c.NotifyTimeout)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.AdminEmail != "" && len(c.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters when ADMIN_EMAIL is set")
	}
	if c.GinMode == "release" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in release mode")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func (c Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
