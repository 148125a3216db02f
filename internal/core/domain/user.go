package domain

import "time"

type Role string

const (
	RoleVoter Role = "voter"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleVoter || r == RoleAdmin
}

// Identity is the user record the authority returns at login.
type Identity struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email,omitempty"`
	Role    Role     `json:"role"`
	VotedIn []string `json:"votedIn"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// StoredSession is the persisted form of a session.
type StoredSession struct {
	Key        string    `json:"key"`
	Identity   Identity  `json:"identity"`
	Credential string    `json:"-"`
	SavedAt    time.Time `json:"saved_at"`
}
