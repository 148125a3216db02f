package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseRedis    = "redis"
)

type Config struct {
	HTTPAddr          string        `env:"VOTAPP_HTTP_ADDR" envDefault:":8080"`
	AuthorityURL      string        `env:"VOTAPP_AUTHORITY_URL" envDefault:"http://localhost:3001/api"`
	AuthorityTimeout  time.Duration `env:"VOTAPP_AUTHORITY_TIMEOUT" envDefault:"10s"`
	ReconcileInterval time.Duration `env:"VOTAPP_RECONCILE_INTERVAL" envDefault:"30s"`
	ReconcileTimeout  time.Duration `env:"VOTAPP_RECONCILE_TIMEOUT" envDefault:"10s"`
	DatabaseType      string        `env:"VOTAPP_DATABASE_TYPE" envDefault:"sqlite"`
	DatabaseURL       string        `env:"VOTAPP_DATABASE_URL" envDefault:"votapp.db"`
	SessionTTL        time.Duration `env:"VOTAPP_SESSION_TTL" envDefault:"168h"`
	CookieSecure      bool          `env:"VOTAPP_COOKIE_SECURE" envDefault:"false"`
}

// Load reads a .env file when present, then the environment, then the
// command-line flags in args. Flags win over the environment.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("votapp", flag.ContinueOnError)
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.AuthorityURL, "authority", cfg.AuthorityURL, "Base URL of the voting authority")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Session store type (sqlite, postgres or redis)")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	fs.DurationVar(&cfg.ReconcileInterval, "reconcile-interval", cfg.ReconcileInterval, "Interval between reconciliation passes")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.AuthorityURL == "" {
		return errors.New("authority URL required (use -authority or VOTAPP_AUTHORITY_URL)")
	}
	switch c.DatabaseType {
	case DatabaseSQLite, DatabasePostgres, DatabaseRedis:
	default:
		return fmt.Errorf("unsupported database type %q", c.DatabaseType)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or VOTAPP_DATABASE_URL)")
	}
	if c.AuthorityTimeout <= 0 {
		return errors.New("VOTAPP_AUTHORITY_TIMEOUT must be positive")
	}
	return nil
}

// DriverName is the database/sql driver registered for DatabaseType. It is
// meaningless for redis.
func (c Config) DriverName() string {
	if c.DatabaseType == DatabasePostgres {
		return "postgres"
	}
	return "sqlite"
}
