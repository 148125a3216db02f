package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

type authGateway struct {
	client *Client
}

func NewAuthGateway(client *Client) ports.AuthGateway {
	return &authGateway{
		client: client,
	}
}

type loginResponse struct {
	Token string          `json:"token"`
	User  domain.Identity `json:"user"`
}

func (g *authGateway) Login(ctx context.Context, name, password string) (string, *domain.Identity, error) {
	body := map[string]string{"name": name, "password": password}

	var resp loginResponse
	if err := g.client.do(ctx, "login", http.MethodPost, "/auth/login", body, &resp); err != nil {
		return "", nil, err
	}
	if resp.Token == "" {
		return "", nil, &domain.AuthorityError{Op: "login", Kind: domain.Rejected, Err: errors.New("no credential in response")}
	}
	return resp.Token, &resp.User, nil
}

func (g *authGateway) Me(ctx context.Context) (*domain.Identity, error) {
	var identity domain.Identity
	if err := g.client.do(ctx, "me", http.MethodGet, "/auth/me", nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (g *authGateway) Logout(ctx context.Context) error {
	return g.client.do(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil)
}
