package cliparse

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Supported database types
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

type Config struct {
	Port                 int
	DatabaseURL          string
	DatabaseType         string
	TokenSecret          string
	ZaidelServiceURL     string
	ZaidelTimeout        time.Duration
	SettingsCacheTTL     time.Duration
	ComparisonLockWindow time.Duration
	LogLevel             slog.Level
}

// DriverName returns the database/sql driver registered for DatabaseType
func (c Config) DriverName() string {
	if c.DatabaseType == DatabasePostgres {
		return "postgres"
	}
	return "sqlite"
}

// ParseFlags parses CLI flags, falling back to environment variables and
// then to defaults. Flags win over env.
func ParseFlags(args []string) (Config, error) {
	fs := pflag.NewFlagSet("researches", pflag.ContinueOnError)

	// Network and storage (can be CLI args or env)
	fs.IntP("port", "p", 3000, "Server port")
	fs.StringP("database-url", "d", "", "Database URL")
	fs.StringP("database-type", "t", DatabaseSQLite, "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.String("token-secret", "", "JWT shared secret (prefer env)")

	// External analysis service
	fs.String("zaidel-service-url", "", "Base URL of the zaidel analysis service")
	fs.Duration("zaidel-timeout", 30*time.Second, "Timeout for zaidel calls")
	fs.Duration("settings-cache-ttl", 5*time.Minute, "How long default settings are cached")
	fs.Duration("comparison-lock-window", 24*time.Hour, "Minimum time between comparison re-triggers")

	fs.String("log-level", "info", "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := Config{
		Port:                 v.GetInt("port"),
		DatabaseURL:          v.GetString("database-url"),
		DatabaseType:         strings.ToLower(v.GetString("database-type")),
		TokenSecret:          v.GetString("token-secret"),
		ZaidelServiceURL:     strings.TrimRight(v.GetString("zaidel-service-url"), "/"),
		ZaidelTimeout:        v.GetDuration("zaidel-timeout"),
		SettingsCacheTTL:     v.GetDuration("settings-cache-ttl"),
		ComparisonLockWindow: v.GetDuration("comparison-lock-window"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, errors.New("invalid PORT")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if cfg.DatabaseType != DatabaseSQLite && cfg.DatabaseType != DatabasePostgres {
		return Config{}, fmt.Errorf("unsupported DATABASE_TYPE %q", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	if cfg.TokenSecret == "" {
		return Config{}, errors.New("TOKEN_SECRET required")
	}
	if cfg.ZaidelServiceURL == "" {
		return Config{}, errors.New("ZAIDEL_SERVICE_URL required")
	}

	if cfg.ZaidelTimeout <= 0 {
		return Config{}, errors.New("ZAIDEL_TIMEOUT must be positive")
	}
	if cfg.ComparisonLockWindow <= 0 {
		return Config{}, errors.New("COMPARISON_LOCK_WINDOW must be positive")
	}

	return cfg, nil
}
