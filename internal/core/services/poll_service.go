package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
	"github.com/vncsmyrnk/votapp/internal/metrics"
)

const maxCodeAttempts = 16

// votingService coordinates the session's poll cache, the session and the
// authority. It is the only writer of the caches.
type votingService struct {
	polls    ports.PollGateway
	votes    ports.VoteGateway
	caches   ports.PollCaches
	sessions ports.SessionLifecycle
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	inflight map[voteKey]struct{}
}

func NewVotingService(polls ports.PollGateway, votes ports.VoteGateway, caches ports.PollCaches, sessions ports.SessionLifecycle, logger *slog.Logger) ports.VotingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &votingService{
		polls:    polls,
		votes:    votes,
		caches:   caches,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
		inflight: make(map[voteKey]struct{}),
	}
}

func (s *votingService) CreatePoll(ctx context.Context, sess *domain.Session, input ports.CreatePollInput) (*domain.Poll, error) {
	title := strings.TrimSpace(input.Title)
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}
	options, err := domain.NormalizeOptions(input.Options)
	if err != nil {
		return nil, err
	}

	ctx, err = authorize(ctx, sess)
	if err != nil {
		return nil, err
	}

	input = ports.CreatePollInput{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Options:     options,
	}

	cache := s.caches.For(sess.Key())
	poll, err := s.polls.CreatePoll(ctx, input)
	if err == nil {
		poll.Sync = domain.Synced
		cache.Upsert(poll)
		s.logger.Info("poll created", "poll_id", poll.ID, "code", poll.Code)
		return poll, nil
	}
	if !domain.IsUnreachable(err) || !managesPolls(sess) {
		return nil, s.authorityFailure(ctx, sess, fmt.Errorf("failed to create poll: %w", err))
	}

	poll, localErr := s.localPoll(cache, sess, input)
	if localErr != nil {
		return nil, fmt.Errorf("failed to create poll locally: %w", localErr)
	}
	cache.Upsert(poll)
	metrics.LocalFallbacks.WithLabelValues("create").Inc()
	s.logger.Warn("authority unreachable, poll created locally",
		"poll_id", poll.ID, "code", poll.Code, "error", err)
	return poll, nil
}

// localPoll builds the poll the authority would have returned: fresh ids,
// a code unused in the cache, zeroed counters.
func (s *votingService) localPoll(cache ports.PollCache, sess *domain.Session, input ports.CreatePollInput) (*domain.Poll, error) {
	code, err := uniqueCode(cache)
	if err != nil {
		return nil, err
	}

	poll := &domain.Poll{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Code:        code,
		IsActive:    true,
		CreatedAt:   s.now(),
		Sync:        domain.LocalOnly,
	}
	if identity, ok := sess.Identity(); ok {
		poll.CreatedBy = identity.ID
	}
	for _, text := range input.Options {
		poll.Options = append(poll.Options, domain.PollOption{
			ID:   uuid.NewString(),
			Text: text,
		})
	}
	return poll, nil
}

func uniqueCode(cache ports.PollCache) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := domain.GenerateCode()
		if err != nil {
			return "", err
		}
		if !cache.CodeExists(code) {
			return code, nil
		}
	}
	return "", errors.New("could not generate an unused poll code")
}

func (s *votingService) UpdatePoll(ctx context.Context, sess *domain.Session, id string, update domain.PollUpdate) (*domain.Poll, error) {
	if update.IsEmpty() {
		return nil, &domain.ValidationError{Field: "update", Reason: "no fields to update"}
	}
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if err := domain.ValidateTitle(title); err != nil {
			return nil, err
		}
		update.Title = &title
	}

	return s.applyUpdate(ctx, sess, id, update, "update", func(ctx context.Context) (*domain.Poll, error) {
		return s.polls.UpdatePoll(ctx, id, update)
	})
}

func (s *votingService) ClosePoll(ctx context.Context, sess *domain.Session, id string) (*domain.Poll, error) {
	inactive := false
	closedAt := s.now()
	update := domain.PollUpdate{IsActive: &inactive, ClosedAt: &closedAt}

	return s.applyUpdate(ctx, sess, id, update, "close", func(ctx context.Context) (*domain.Poll, error) {
		return s.polls.ClosePoll(ctx, id)
	})
}

// applyUpdate sends an update through call and merges the answer into the
// cache. When the authority is unreachable the requested fields are applied
// locally and the poll is marked Diverged until reconciled.
func (s *votingService) applyUpdate(ctx context.Context, sess *domain.Session, id string, update domain.PollUpdate, op string, call func(context.Context) (*domain.Poll, error)) (*domain.Poll, error) {
	ctx, err := authorize(ctx, sess)
	if err != nil {
		return nil, err
	}

	cache := s.caches.For(sess.Key())
	cached, cachedOK := cache.Get(id)
	if cachedOK && cached.Sync == domain.LocalOnly {
		if !managesPolls(sess) {
			return nil, domain.ErrForbidden
		}
		// The authority has never seen this poll; reconciliation sends the
		// final state when it creates it.
		cached.Apply(update)
		cache.Upsert(cached)
		return cached, nil
	}

	remote, err := call(ctx)
	if err == nil {
		poll := remote
		if cachedOK {
			cached.Merge(remote)
			poll = cached
		}
		poll.Sync = domain.Synced
		cache.Upsert(poll)
		s.logger.Info("poll "+op+"d", "poll_id", poll.ID)
		return poll, nil
	}
	if !domain.IsUnreachable(err) || !managesPolls(sess) {
		return nil, s.authorityFailure(ctx, sess, fmt.Errorf("failed to %s poll %s: %w", op, id, err))
	}
	if !cachedOK {
		return nil, fmt.Errorf("failed to %s poll %s: %w", op, id, errors.Join(domain.ErrPollNotFound, err))
	}

	cached.Apply(update)
	cached.Sync = domain.Diverged
	cache.Upsert(cached)
	metrics.LocalFallbacks.WithLabelValues(op).Inc()
	s.logger.Warn("authority unreachable, poll "+op+"d locally", "poll_id", id, "error", err)
	return cached, nil
}

// DeletePoll removes the poll only once the authority confirms it. A poll
// that exists only locally is dropped without a remote call.
func (s *votingService) DeletePoll(ctx context.Context, sess *domain.Session, id string) error {
	ctx, err := authorize(ctx, sess)
	if err != nil {
		return err
	}

	cache := s.caches.For(sess.Key())
	if cached, ok := cache.Get(id); ok && cached.Sync == domain.LocalOnly {
		if !managesPolls(sess) {
			return domain.ErrForbidden
		}
		cache.Remove(id)
		s.logger.Info("local poll deleted", "poll_id", id)
		return nil
	}

	if err := s.polls.DeletePoll(ctx, id); err != nil {
		return s.authorityFailure(ctx, sess, fmt.Errorf("failed to delete poll %s: %w", id, err))
	}
	cache.Remove(id)
	s.logger.Info("poll deleted", "poll_id", id)
	return nil
}

// FindPollByCode asks the authority first and falls back to the cache. It
// never changes cached state. A closed poll is returned together with
// domain.ErrVotingClosed.
func (s *votingService) FindPollByCode(ctx context.Context, sess *domain.Session, code string) (*domain.Poll, error) {
	normalized, err := domain.NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	ctx, err = authorize(ctx, sess)
	if err != nil {
		return nil, err
	}

	cache := s.caches.For(sess.Key())
	poll, err := s.polls.GetPollByCode(ctx, normalized)
	switch {
	case err == nil:
	case domain.IsUnauthorized(err):
		return nil, s.authorityFailure(ctx, sess, fmt.Errorf("failed to find poll %s: %w", normalized, err))
	case errors.Is(err, domain.ErrPollNotFound):
		// Polls created during an outage are unknown remotely until
		// reconciled.
		cached, ok := cache.GetByCode(normalized)
		if !ok || cached.Sync != domain.LocalOnly {
			return nil, domain.ErrPollNotFound
		}
		poll = cached
	default:
		cached, ok := cache.GetByCode(normalized)
		if !ok {
			s.logger.Warn("authority lookup failed and poll not cached", "code", normalized, "error", err)
			return nil, domain.ErrPollNotFound
		}
		s.logger.Warn("authority lookup failed, using cached poll", "code", normalized, "error", err)
		metrics.LocalFallbacks.WithLabelValues("find").Inc()
		poll = cached
	}

	if !poll.IsActive {
		return poll, domain.ErrVotingClosed
	}
	return poll, nil
}

// ListPolls replaces the session's synced polls with the authority's list.
// Polls with unconfirmed local changes keep their local state.
func (s *votingService) ListPolls(ctx context.Context, sess *domain.Session) ([]*domain.Poll, error) {
	ctx, err := authorize(ctx, sess)
	if err != nil {
		return nil, err
	}

	cache := s.caches.For(sess.Key())
	remote, err := s.polls.ListPolls(ctx)
	if err != nil {
		if domain.IsUnauthorized(err) {
			return nil, s.authorityFailure(ctx, sess, fmt.Errorf("failed to list polls: %w", err))
		}
		s.logger.Warn("authority list failed, using cached polls", "error", err)
		metrics.LocalFallbacks.WithLabelValues("list").Inc()
		return cache.List(), nil
	}

	listed := make(map[string]struct{}, len(remote))
	for _, poll := range remote {
		listed[poll.ID] = struct{}{}
		cached, ok := cache.Get(poll.ID)
		if ok && cached.Sync != domain.Synced {
			continue
		}
		if ok {
			cached.Merge(poll)
			poll = cached
		}
		poll.Sync = domain.Synced
		cache.Upsert(poll)
	}
	// Synced polls the authority no longer lists were deleted elsewhere.
	for _, poll := range cache.ListBySync(domain.Synced) {
		if _, ok := listed[poll.ID]; !ok {
			cache.Remove(poll.ID)
		}
	}
	return cache.List(), nil
}

func (s *votingService) Results(ctx context.Context, sess *domain.Session, code string) (*domain.VoteResults, error) {
	normalized, err := domain.NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	ctx, err = authorize(ctx, sess)
	if err != nil {
		return nil, err
	}

	results, err := s.votes.ResultsByCode(ctx, normalized)
	if err == nil {
		return results, nil
	}
	if domain.IsUnauthorized(err) {
		return nil, s.authorityFailure(ctx, sess, fmt.Errorf("failed to get results for %s: %w", normalized, err))
	}

	cached, ok := s.caches.For(sess.Key()).GetByCode(normalized)
	if !ok {
		if errors.Is(err, domain.ErrPollNotFound) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get results for %s: %w", normalized, err)
	}
	s.logger.Warn("authority results failed, computing from cache", "code", normalized, "error", err)
	metrics.LocalFallbacks.WithLabelValues("results").Inc()
	return domain.ComputeResults(cached), nil
}

// authorityFailure tears the session down when the authority refused its
// credential and returns err unchanged.
func (s *votingService) authorityFailure(ctx context.Context, sess *domain.Session, err error) error {
	var authErr *domain.AuthorityError
	if errors.As(err, &authErr) {
		metrics.AuthorityErrors.WithLabelValues(authErr.Kind.String()).Inc()
	}
	if domain.IsUnauthorized(err) && s.sessions != nil {
		s.logger.Warn("credential refused by authority, ending session", "session", sess.Key())
		s.sessions.Terminate(ctx, sess)
	}
	return err
}

// managesPolls reports whether sess may change polls without the
// authority's confirmation.
func managesPolls(sess *domain.Session) bool {
	identity, ok := sess.Identity()
	return ok && identity.IsAdmin()
}

func authorize(ctx context.Context, sess *domain.Session) (context.Context, error) {
	if sess == nil || !sess.Authenticated() {
		return ctx, domain.ErrNotAuthenticated
	}
	return ports.ContextWithCredential(ctx, sess.Credential()), nil
}
