package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

type voteGateway struct {
	client *Client
}

func NewVoteGateway(client *Client) ports.VoteGateway {
	return &voteGateway{
		client: client,
	}
}

// CastVote sends the vote. A 409 from the authority means the identity has
// already voted in the poll and is reported as domain.ErrAlreadyVoted.
func (g *voteGateway) CastVote(ctx context.Context, vote domain.Vote) error {
	body := struct {
		PollID   string `json:"votingId"`
		OptionID string `json:"optionId"`
	}{vote.PollID, vote.OptionID}

	err := g.client.do(ctx, "cast vote", http.MethodPost, "/votes", body, nil)
	var authErr *domain.AuthorityError
	if errors.As(err, &authErr) && authErr.StatusCode == http.StatusConflict {
		authErr.Err = domain.ErrAlreadyVoted
	}
	return err
}

func (g *voteGateway) ResultsByCode(ctx context.Context, code string) (*domain.VoteResults, error) {
	var results domain.VoteResults
	if err := g.client.do(ctx, "results", http.MethodGet, "/votes/voting/code/"+url.PathEscape(code)+"/results", nil, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// HasVoted accepts the answer either as a bare boolean or wrapped as
// {"hasVoted": bool}.
func (g *voteGateway) HasVoted(ctx context.Context, pollID string) (bool, error) {
	var raw json.RawMessage
	if err := g.client.do(ctx, "has voted", http.MethodGet, "/votes/user/"+url.PathEscape(pollID)+"/has-voted", nil, &raw); err != nil {
		return false, err
	}
	if len(raw) == 0 {
		return false, nil
	}

	var voted bool
	if err := json.Unmarshal(raw, &voted); err == nil {
		return voted, nil
	}
	var wrapped struct {
		HasVoted *bool `json:"hasVoted"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.HasVoted == nil {
		return false, &domain.AuthorityError{Op: "has voted", Kind: domain.Unreachable, StatusCode: http.StatusOK,
			Err: fmt.Errorf("undecodable data: %s", raw)}
	}
	return *wrapped.HasVoted, nil
}
