package ports

import (
	"context"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
)

// PollGateway is the authority's poll API.
type PollGateway interface {
	CreatePoll(ctx context.Context, input CreatePollInput) (*domain.Poll, error)
	UpdatePoll(ctx context.Context, id string, update domain.PollUpdate) (*domain.Poll, error)
	ClosePoll(ctx context.Context, id string) (*domain.Poll, error)
	DeletePoll(ctx context.Context, id string) error
	GetPollByCode(ctx context.Context, code string) (*domain.Poll, error)
	ListPolls(ctx context.Context) ([]*domain.Poll, error)
}

// PollCache holds the polls one session has touched. Implementations hand
// out copies; callers never mutate cached records in place.
type PollCache interface {
	Get(id string) (*domain.Poll, bool)
	GetByCode(code string) (*domain.Poll, bool)
	Upsert(poll *domain.Poll)
	Remove(id string) bool
	MutateOption(pollID, optionID string, delta int64) (*domain.Poll, error)
	List() []*domain.Poll
	ListBySync(state domain.SyncState) []*domain.Poll
	CodeExists(code string) bool
}

// PollCaches hands out the PollCache of a session. Drop discards it when the
// session ends.
type PollCaches interface {
	For(sessionKey string) PollCache
	Drop(sessionKey string)
}

type CreatePollInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Options     []string `json:"options"`
}

type VotingService interface {
	CreatePoll(ctx context.Context, sess *domain.Session, input CreatePollInput) (*domain.Poll, error)
	UpdatePoll(ctx context.Context, sess *domain.Session, id string, update domain.PollUpdate) (*domain.Poll, error)
	ClosePoll(ctx context.Context, sess *domain.Session, id string) (*domain.Poll, error)
	DeletePoll(ctx context.Context, sess *domain.Session, id string) error
	FindPollByCode(ctx context.Context, sess *domain.Session, code string) (*domain.Poll, error)
	ListPolls(ctx context.Context, sess *domain.Session) ([]*domain.Poll, error)
	CastVote(ctx context.Context, sess *domain.Session, pollID, optionID string) error
	HasVoted(ctx context.Context, sess *domain.Session, pollID string) (bool, error)
	Results(ctx context.Context, sess *domain.Session, code string) (*domain.VoteResults, error)
}
