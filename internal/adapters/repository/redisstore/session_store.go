package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

type sessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore keeps sessions in redis. Records expire ttl after their
// last save; zero keeps them until deleted.
func NewSessionStore(client *redis.Client, ttl time.Duration) ports.SessionStore {
	return &sessionStore{
		client: client,
		ttl:    ttl,
	}
}

type sessionRecord struct {
	Identity   domain.Identity `json:"identity"`
	Credential string          `json:"credential"`
	SavedAt    int64           `json:"saved_at"`
}

func (s *sessionStore) Save(ctx context.Context, session *domain.StoredSession) error {
	data, err := json.Marshal(sessionRecord{
		Identity:   session.Identity,
		Credential: session.Credential,
		SavedAt:    session.SavedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.Key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *sessionStore) Load(ctx context.Context, key string) (*domain.StoredSession, error) {
	value, err := s.client.Get(ctx, sessionKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &domain.StoredSession{
		Key:        key,
		Identity:   record.Identity,
		Credential: record.Credential,
		SavedAt:    time.UnixMilli(record.SavedAt).UTC(),
	}, nil
}

func (s *sessionStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, sessionKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(key string) string {
	return fmt.Sprintf("votapp:session:%s", key)
}

// Open connects to the redis instance at url (redis://host:port/db).
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
