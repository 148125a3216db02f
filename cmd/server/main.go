package main

import (
	"context"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vncsmyrnk/votapp/internal/adapters/cache/memory"
	"github.com/vncsmyrnk/votapp/internal/adapters/gateway/rest"
	"github.com/vncsmyrnk/votapp/internal/adapters/handler/http"
	"github.com/vncsmyrnk/votapp/internal/adapters/repository/redisstore"
	"github.com/vncsmyrnk/votapp/internal/adapters/repository/sqlstore"
	"github.com/vncsmyrnk/votapp/internal/config"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
	"github.com/vncsmyrnk/votapp/internal/core/services"
	"github.com/vncsmyrnk/votapp/internal/jobs"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		slog.Error("session store setup failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()
	slog.Info("session store ready", "type", cfg.DatabaseType)

	client := rest.NewClient(cfg.AuthorityURL, cfg.AuthorityTimeout)
	pollGateway := rest.NewPollGateway(client)
	voteGateway := rest.NewVoteGateway(client)
	authGateway := rest.NewAuthGateway(client)

	caches := memory.NewPollCaches()
	authService := services.NewAuthService(authGateway, store, caches, logger)
	votingService := services.NewVotingService(pollGateway, voteGateway, caches, authService, logger)
	reconcileService := services.NewReconcileService(pollGateway, caches, authService, logger)

	jobs.StartReconcileJob(ctx, reconcileService, authService.Sessions, cfg.ReconcileInterval, cfg.ReconcileTimeout, logger)

	handler := http.NewHandler(authService,
		http.NewAuthHandler(authService, cfg.CookieSecure),
		http.NewPollHandler(votingService, reconcileService),
		http.NewVoteHandler(votingService),
	)
	server := &stdhttp.Server{Addr: cfg.HTTPAddr, Handler: handler}

	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr, "authority", cfg.AuthorityURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}

func openSessionStore(ctx context.Context, cfg config.Config) (ports.SessionStore, func() error, error) {
	if cfg.DatabaseType == config.DatabaseRedis {
		client, err := redisstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.NewSessionStore(client, cfg.SessionTTL), client.Close, nil
	}

	db, err := sqlstore.Open(ctx, cfg.DriverName(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return sqlstore.NewSessionStore(db), db.Close, nil
}
