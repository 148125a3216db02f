package ports

import (
	"context"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
)

type AuthGateway interface {
	Login(ctx context.Context, name, password string) (string, *domain.Identity, error) // returns credential, identity, error
	Me(ctx context.Context) (*domain.Identity, error)
	Logout(ctx context.Context) error
}

// SessionStore persists the last known identity and credential of a
// session so it can be restored after a restart.
type SessionStore interface {
	Save(ctx context.Context, session *domain.StoredSession) error
	Load(ctx context.Context, key string) (*domain.StoredSession, error)
	Delete(ctx context.Context, key string) error
}

// SessionLifecycle is what the voting service needs from the auth side:
// persisting an updated session and tearing down one the authority refused.
type SessionLifecycle interface {
	Persist(ctx context.Context, sess *domain.Session) error
	Terminate(ctx context.Context, sess *domain.Session)
}

type AuthService interface {
	SessionLifecycle
	Login(ctx context.Context, name, password string) (*domain.Session, error)
	Session(ctx context.Context, key string) (*domain.Session, error)
	Sessions() []*domain.Session
	Refresh(ctx context.Context, sess *domain.Session) (domain.Identity, error)
	Logout(ctx context.Context, sess *domain.Session) error
}

type credentialKey struct{}

// ContextWithCredential attaches the bearer credential gateways send with
// authenticated calls.
func ContextWithCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, credentialKey{}, credential)
}

func CredentialFromContext(ctx context.Context) string {
	credential, _ := ctx.Value(credentialKey{}).(string)
	return credential
}
