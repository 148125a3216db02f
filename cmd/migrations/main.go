package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/vncsmyrnk/votapp/internal/adapters/repository/sqlstore"
	"github.com/vncsmyrnk/votapp/internal/config"
)

// Creates the session store schema without starting the server.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.DatabaseType == config.DatabaseRedis {
		slog.Info("redis session store needs no schema")
		return
	}

	db, err := sqlstore.Open(context.Background(), cfg.DriverName(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("schema created", "type", cfg.DatabaseType)
}
