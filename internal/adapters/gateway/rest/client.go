package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

const maxResponseBytes = 1 << 20

// Client talks to the voting authority's JSON API. Every response is
// wrapped in the {success, data, message} envelope.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// do sends one request and decodes the envelope's data into out. Every
// failure comes back as a *domain.AuthorityError.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential := ports.CredentialFromContext(ctx); credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.AuthorityError{Op: op, Kind: domain.Unreachable, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &domain.AuthorityError{Op: op, Kind: domain.Unreachable, StatusCode: resp.StatusCode, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(op, resp.StatusCode, env.Message)
	}
	if decodeErr != nil {
		return &domain.AuthorityError{Op: op, Kind: domain.Unreachable, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("undecodable response: %w", decodeErr)}
	}
	if !env.Success {
		return &domain.AuthorityError{Op: op, Kind: domain.Rejected, StatusCode: resp.StatusCode, Reason: env.Message}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &domain.AuthorityError{Op: op, Kind: domain.Unreachable, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("undecodable data: %w", err)}
	}
	return nil
}

func statusError(op string, status int, message string) *domain.AuthorityError {
	authErr := &domain.AuthorityError{Op: op, StatusCode: status, Reason: message}
	switch {
	case status == http.StatusUnauthorized:
		authErr.Kind = domain.Unauthorized
	case status == http.StatusNotFound:
		authErr.Kind = domain.Rejected
		authErr.Err = domain.ErrPollNotFound
	case status >= http.StatusInternalServerError:
		authErr.Kind = domain.Unreachable
	default:
		authErr.Kind = domain.Rejected
	}
	return authErr
}
