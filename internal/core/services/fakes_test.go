package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func unreachable(op string) error {
	return &domain.AuthorityError{Op: op, Kind: domain.Unreachable, Err: fmt.Errorf("connection refused")}
}

func rejected(op string) error {
	return &domain.AuthorityError{Op: op, Kind: domain.Rejected, StatusCode: 422, Reason: "rejected"}
}

func unauthorized(op string) error {
	return &domain.AuthorityError{Op: op, Kind: domain.Unauthorized, StatusCode: 401}
}

func notFound(op string) error {
	return &domain.AuthorityError{Op: op, Kind: domain.Rejected, StatusCode: 404, Err: domain.ErrPollNotFound}
}

// fakePollGateway is an in-memory authority. Setting err makes every call
// fail with it. When block is set CreatePoll waits on it after signalling
// entered.
type fakePollGateway struct {
	mu       sync.Mutex
	polls    map[string]*domain.Poll
	creators map[string]string
	seq      int
	err      error
	calls    map[string]int

	entered chan struct{}
	block   chan struct{}
}

func newFakePollGateway() *fakePollGateway {
	return &fakePollGateway{
		polls:    make(map[string]*domain.Poll),
		creators: make(map[string]string),
		calls:    make(map[string]int),
	}
}

// createdWith returns the credential poll id was created with.
func (g *fakePollGateway) createdWith(id string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.creators[id]
}

func (g *fakePollGateway) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *fakePollGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *fakePollGateway) put(p *domain.Poll) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.polls[p.ID] = p.Clone()
}

func (g *fakePollGateway) get(id string) (*domain.Poll, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.polls[id]
	return p.Clone(), ok
}

func (g *fakePollGateway) begin(op string) error {
	g.calls[op]++
	return g.err
}

func (g *fakePollGateway) CreatePoll(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	g.mu.Lock()
	entered, block := g.entered, g.block
	g.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("create"); err != nil {
		return nil, err
	}
	g.seq++
	p := &domain.Poll{
		ID:          fmt.Sprintf("remote-%d", g.seq),
		Title:       input.Title,
		Description: input.Description,
		Code:        fmt.Sprintf("RMT%03d", g.seq),
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	for i, text := range input.Options {
		p.Options = append(p.Options, domain.PollOption{ID: fmt.Sprintf("%s-opt-%d", p.ID, i), Text: text})
	}
	g.polls[p.ID] = p
	g.creators[p.ID] = ports.CredentialFromContext(ctx)
	return p.Clone(), nil
}

func (g *fakePollGateway) UpdatePoll(ctx context.Context, id string, update domain.PollUpdate) (*domain.Poll, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("update"); err != nil {
		return nil, err
	}
	p, ok := g.polls[id]
	if !ok {
		return nil, notFound("update poll")
	}
	p.Apply(update)
	return p.Clone(), nil
}

func (g *fakePollGateway) ClosePoll(ctx context.Context, id string) (*domain.Poll, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("close"); err != nil {
		return nil, err
	}
	p, ok := g.polls[id]
	if !ok {
		return nil, notFound("close poll")
	}
	now := time.Now()
	p.IsActive = false
	p.ClosedAt = &now
	return p.Clone(), nil
}

func (g *fakePollGateway) DeletePoll(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("delete"); err != nil {
		return err
	}
	if _, ok := g.polls[id]; !ok {
		return notFound("delete poll")
	}
	delete(g.polls, id)
	return nil
}

func (g *fakePollGateway) GetPollByCode(ctx context.Context, code string) (*domain.Poll, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("get_by_code"); err != nil {
		return nil, err
	}
	for _, p := range g.polls {
		if strings.EqualFold(p.Code, code) {
			return p.Clone(), nil
		}
	}
	return nil, notFound("get poll by code")
}

func (g *fakePollGateway) ListPolls(ctx context.Context) ([]*domain.Poll, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("list"); err != nil {
		return nil, err
	}
	list := make([]*domain.Poll, 0, len(g.polls))
	for _, p := range g.polls {
		list = append(list, p.Clone())
	}
	return list, nil
}

// fakeVoteGateway keeps the ledger of accepted votes per poll and user.
// When block is set CastVote waits on it after signalling entered.
type fakeVoteGateway struct {
	mu      sync.Mutex
	ledger  map[string]map[string]string
	results map[string]*domain.VoteResults
	voted   map[string]bool
	err     error
	casts   int

	entered chan struct{}
	block   chan struct{}
}

func newFakeVoteGateway() *fakeVoteGateway {
	return &fakeVoteGateway{
		ledger:  make(map[string]map[string]string),
		results: make(map[string]*domain.VoteResults),
		voted:   make(map[string]bool),
	}
}

func (g *fakeVoteGateway) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *fakeVoteGateway) castCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.casts
}

func (g *fakeVoteGateway) CastVote(ctx context.Context, vote domain.Vote) error {
	g.mu.Lock()
	g.casts++
	entered, block := g.entered, g.block
	g.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	if _, ok := g.ledger[vote.PollID][vote.UserID]; ok {
		return &domain.AuthorityError{Op: "cast vote", Kind: domain.Rejected, StatusCode: 409, Err: domain.ErrAlreadyVoted}
	}
	if g.ledger[vote.PollID] == nil {
		g.ledger[vote.PollID] = make(map[string]string)
	}
	g.ledger[vote.PollID][vote.UserID] = vote.OptionID
	return nil
}

func (g *fakeVoteGateway) ResultsByCode(ctx context.Context, code string) (*domain.VoteResults, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	r, ok := g.results[code]
	if !ok {
		return nil, notFound("results")
	}
	return r, nil
}

func (g *fakeVoteGateway) HasVoted(ctx context.Context, pollID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	return g.voted[pollID], nil
}

type fakeLifecycle struct {
	mu         sync.Mutex
	persisted  int
	terminated int
}

func (l *fakeLifecycle) Persist(ctx context.Context, sess *domain.Session) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.persisted++
	return nil
}

func (l *fakeLifecycle) Terminate(ctx context.Context, sess *domain.Session) {
	l.mu.Lock()
	l.terminated++
	l.mu.Unlock()
	sess.Logout()
}

func (l *fakeLifecycle) terminations() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.terminated
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.StoredSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*domain.StoredSession)}
}

func (s *fakeSessionStore) Save(ctx context.Context, session *domain.StoredSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.Key] = &cp
	return nil
}

func (s *fakeSessionStore) Load(ctx context.Context, key string) (*domain.StoredSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[key]
	if !ok {
		return nil, nil
	}
	cp := *stored
	return &cp, nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

type fakeAuthGateway struct {
	identity   *domain.Identity
	credential string
	err        error
	meErr      error
	loggedOut  bool
}

func (g *fakeAuthGateway) Login(ctx context.Context, name, password string) (string, *domain.Identity, error) {
	if g.err != nil {
		return "", nil, g.err
	}
	id := *g.identity
	id.Name = name
	return g.credential, &id, nil
}

func (g *fakeAuthGateway) Me(ctx context.Context) (*domain.Identity, error) {
	if g.meErr != nil {
		return nil, g.meErr
	}
	if ports.CredentialFromContext(ctx) != g.credential {
		return nil, unauthorized("me")
	}
	id := *g.identity
	return &id, nil
}

func (g *fakeAuthGateway) Logout(ctx context.Context) error {
	g.loggedOut = true
	return nil
}
