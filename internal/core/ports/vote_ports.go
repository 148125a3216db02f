package ports

import (
	"context"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
)

// VoteGateway is the authority's vote API.
type VoteGateway interface {
	CastVote(ctx context.Context, vote domain.Vote) error
	ResultsByCode(ctx context.Context, code string) (*domain.VoteResults, error)
	HasVoted(ctx context.Context, pollID string) (bool, error)
}
