package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

// AuthService owns the live sessions of the process, their persisted copies
// and the lifetime of their poll caches.
type AuthService struct {
	gateway ports.AuthGateway
	store   ports.SessionStore
	caches  ports.PollCaches
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewAuthService(gateway ports.AuthGateway, store ports.SessionStore, caches ports.PollCaches, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		gateway:  gateway,
		store:    store,
		caches:   caches,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*domain.Session),
	}
}

func (s *AuthService) Login(ctx context.Context, name, password string) (*domain.Session, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateUserName(name); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, &domain.ValidationError{Field: "password", Reason: "password is required"}
	}

	credential, identity, err := s.gateway.Login(ctx, name, password)
	if err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if identity == nil || !identity.Role.Valid() {
		return nil, fmt.Errorf("failed to login: authority returned an invalid identity")
	}

	sess := domain.NewSession(uuid.NewString())
	sess.Login(*identity, credential)
	s.register(sess)

	if err := s.Persist(ctx, sess); err != nil {
		s.logger.Warn("failed to persist session", "session", sess.Key(), "error", err)
	}
	s.logger.Info("user logged in", "user_id", identity.ID, "role", identity.Role)
	return sess, nil
}

// Session returns the live session registered under key, restoring it from
// the store when the process does not hold it. Stored credentials that are
// JWTs past their expiry are discarded.
func (s *AuthService) Session(ctx context.Context, key string) (*domain.Session, error) {
	if key == "" {
		return nil, domain.ErrNotAuthenticated
	}

	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok && sess.Authenticated() {
		return sess, nil
	}
	if s.store == nil {
		return nil, domain.ErrNotAuthenticated
	}

	stored, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if stored == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if s.credentialExpired(stored.Credential) {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete expired session", "session", key, "error", err)
		}
		return nil, domain.ErrNotAuthenticated
	}

	sess = domain.NewSession(key)
	sess.Login(stored.Identity, stored.Credential)
	s.register(sess)
	s.logger.Info("session restored", "session", key, "user_id", stored.Identity.ID)
	return sess, nil
}

// Refresh reloads the identity from the authority, keeping the voted-in
// polls already recorded locally.
func (s *AuthService) Refresh(ctx context.Context, sess *domain.Session) (domain.Identity, error) {
	current, ok := sess.Identity()
	if !ok {
		return domain.Identity{}, domain.ErrNotAuthenticated
	}
	credential := sess.Credential()

	identity, err := s.gateway.Me(ports.ContextWithCredential(ctx, credential))
	if err != nil {
		if domain.IsUnauthorized(err) {
			s.Terminate(ctx, sess)
		}
		return current, fmt.Errorf("failed to refresh identity: %w", err)
	}

	identity.VotedIn = append(identity.VotedIn, current.VotedIn...)
	sess.Login(*identity, credential)
	if err := s.Persist(ctx, sess); err != nil {
		s.logger.Warn("failed to persist session", "session", sess.Key(), "error", err)
	}
	refreshed, _ := sess.Identity()
	return refreshed, nil
}

func (s *AuthService) Persist(ctx context.Context, sess *domain.Session) error {
	if s.store == nil {
		return nil
	}
	identity, ok := sess.Identity()
	if !ok {
		return nil
	}
	return s.store.Save(ctx, &domain.StoredSession{
		Key:        sess.Key(),
		Identity:   identity,
		Credential: sess.Credential(),
		SavedAt:    s.now(),
	})
}

// Terminate ends a session locally: identity, voted-in set and poll cache
// are cleared and the persisted copy removed. The authority is not
// contacted.
func (s *AuthService) Terminate(ctx context.Context, sess *domain.Session) {
	sess.Logout()

	s.mu.Lock()
	delete(s.sessions, sess.Key())
	s.mu.Unlock()

	if s.caches != nil {
		s.caches.Drop(sess.Key())
	}

	if s.store != nil {
		if err := s.store.Delete(ctx, sess.Key()); err != nil {
			s.logger.Warn("failed to delete session", "session", sess.Key(), "error", err)
		}
	}
	s.logger.Info("session ended", "session", sess.Key())
}

func (s *AuthService) Logout(ctx context.Context, sess *domain.Session) error {
	if !sess.Authenticated() {
		return domain.ErrNotAuthenticated
	}
	if err := s.gateway.Logout(ports.ContextWithCredential(ctx, sess.Credential())); err != nil {
		s.logger.Warn("authority logout failed", "session", sess.Key(), "error", err)
	}
	s.Terminate(ctx, sess)
	return nil
}

// Sessions returns the authenticated sessions currently held.
func (s *AuthService) Sessions() []*domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.Authenticated() {
			list = append(list, sess)
		}
	}
	return list
}

func (s *AuthService) register(sess *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Key()] = sess
}

// credentialExpired reports whether credential is a JWT whose exp claim has
// passed. Opaque credentials are never considered expired here.
func (s *AuthService) credentialExpired(credential string) bool {
	if credential == "" {
		return true
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(credential, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(s.now())
}
