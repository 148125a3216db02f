package domain

import (
	"sort"
	"sync"
)

// Session holds the identity of one logged-in context and the polls that
// identity has voted in. A Session is never shared across identities.
type Session struct {
	key string

	mu         sync.RWMutex
	identity   *Identity
	credential string
	votedIn    map[string]struct{}
}

func NewSession(key string) *Session {
	return &Session{
		key:     key,
		votedIn: make(map[string]struct{}),
	}
}

// Key is the handle the session is registered and persisted under.
func (s *Session) Key() string {
	return s.key
}

// Login replaces the current identity and seeds the voted-in set from the
// identity record.
func (s *Session) Login(identity Identity, credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := identity
	id.VotedIn = nil
	s.identity = &id
	s.credential = credential
	s.votedIn = make(map[string]struct{}, len(identity.VotedIn))
	for _, pollID := range identity.VotedIn {
		s.votedIn[pollID] = struct{}{}
	}
}

func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = nil
	s.credential = ""
	s.votedIn = make(map[string]struct{})
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// Identity returns a copy of the current identity with its voted-in set
// sorted, or false when nobody is logged in.
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity == nil {
		return Identity{}, false
	}
	id := *s.identity
	id.VotedIn = make([]string, 0, len(s.votedIn))
	for pollID := range s.votedIn {
		id.VotedIn = append(id.VotedIn, pollID)
	}
	sort.Strings(id.VotedIn)
	return id, true
}

func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

func (s *Session) HasVoted(pollID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.votedIn[pollID]
	return ok
}

// RecordVote adds pollID to the voted-in set. Recording the same poll twice
// has no further effect. It reports whether the set changed.
func (s *Session) RecordVote(pollID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return false
	}
	if _, ok := s.votedIn[pollID]; ok {
		return false
	}
	s.votedIn[pollID] = struct{}{}
	return true
}
