package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

type sessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) ports.SessionStore {
	return &sessionStore{
		db: db,
	}
}

func (s *sessionStore) Save(ctx context.Context, session *domain.StoredSession) error {
	identity, err := json.Marshal(session.Identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	query := `
		INSERT INTO client_session (session_key, identity, credential, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_key) DO UPDATE
		SET identity = excluded.identity,
		    credential = excluded.credential,
		    saved_at = excluded.saved_at
	`
	_, err = s.db.ExecContext(ctx, query, session.Key, string(identity), session.Credential, session.SavedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns nil and no error when key is unknown.
func (s *sessionStore) Load(ctx context.Context, key string) (*domain.StoredSession, error) {
	query := `
		SELECT session_key, identity, credential, saved_at
		FROM client_session
		WHERE session_key = $1
	`
	var (
		stored   domain.StoredSession
		identity string
	)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&stored.Key, &identity, &stored.Credential, &stored.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if err := json.Unmarshal([]byte(identity), &stored.Identity); err != nil {
		return nil, fmt.Errorf("failed to decode identity: %w", err)
	}
	return &stored, nil
}

func (s *sessionStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM client_session WHERE session_key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
