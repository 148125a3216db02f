package ports

import (
	"context"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
)

// ReconcileReport lists the poll ids a reconciliation pass handled. A
// promoted LocalOnly poll is reported under its new authority id.
type ReconcileReport struct {
	Promoted []string `json:"promoted"`
	Failed   []string `json:"failed"`
}

type ReconcileService interface {
	Reconcile(ctx context.Context, sess *domain.Session) (*ReconcileReport, error)
}
