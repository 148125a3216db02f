package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

// StartReconcileJob runs a reconciliation pass for every live session on
// each tick until ctx is done.
func StartReconcileJob(ctx context.Context, reconciler ports.ReconcileService, sessions func() []*domain.Session, interval, timeout time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if reconciler == nil || sessions == nil {
		logger.Info("reconcile job disabled")
		return
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				RunReconcile(ctx, reconciler, sessions(), timeout, logger)
			}
		}
	}()
}

// RunReconcile performs one pass over sessions. Each session gets its own
// timeout.
func RunReconcile(ctx context.Context, reconciler ports.ReconcileService, sessions []*domain.Session, timeout time.Duration, logger *slog.Logger) {
	for _, sess := range sessions {
		if !sess.Authenticated() {
			continue
		}
		tickCtx, cancel := context.WithTimeout(ctx, timeout)
		report, err := reconciler.Reconcile(tickCtx, sess)
		cancel()
		if err != nil {
			logger.Warn("reconcile job error", "session", sess.Key(), "error", err)
			continue
		}
		if len(report.Promoted) > 0 || len(report.Failed) > 0 {
			logger.Info("reconcile job pass",
				"session", sess.Key(), "promoted", len(report.Promoted), "failed", len(report.Failed))
		}
	}
}
