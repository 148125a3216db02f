package rest

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

type pollGateway struct {
	client *Client
}

func NewPollGateway(client *Client) ports.PollGateway {
	return &pollGateway{
		client: client,
	}
}

func (g *pollGateway) CreatePoll(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	var poll domain.Poll
	if err := g.client.do(ctx, "create poll", http.MethodPost, "/votings", input, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

func (g *pollGateway) UpdatePoll(ctx context.Context, id string, update domain.PollUpdate) (*domain.Poll, error) {
	var poll domain.Poll
	if err := g.client.do(ctx, "update poll", http.MethodPut, "/votings/"+url.PathEscape(id), update, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

func (g *pollGateway) ClosePoll(ctx context.Context, id string) (*domain.Poll, error) {
	var poll domain.Poll
	if err := g.client.do(ctx, "close poll", http.MethodPatch, "/votings/"+url.PathEscape(id)+"/close", nil, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

func (g *pollGateway) DeletePoll(ctx context.Context, id string) error {
	return g.client.do(ctx, "delete poll", http.MethodDelete, "/votings/"+url.PathEscape(id), nil, nil)
}

func (g *pollGateway) GetPollByCode(ctx context.Context, code string) (*domain.Poll, error) {
	var poll domain.Poll
	if err := g.client.do(ctx, "get poll by code", http.MethodGet, "/votings/code/"+url.PathEscape(code), nil, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

func (g *pollGateway) ListPolls(ctx context.Context) ([]*domain.Poll, error) {
	var polls []*domain.Poll
	if err := g.client.do(ctx, "list polls", http.MethodGet, "/votings", nil, &polls); err != nil {
		return nil, err
	}
	return polls, nil
}
