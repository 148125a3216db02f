package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
	"github.com/vncsmyrnk/votapp/internal/metrics"
)

type reconcileService struct {
	polls    ports.PollGateway
	caches   ports.PollCaches
	sessions ports.SessionLifecycle
	logger   *slog.Logger

	mu      sync.Mutex
	claimed map[claimKey]struct{}
}

// claimKey marks one poll of one session as being reconciled.
type claimKey struct {
	sessionKey string
	pollID     string
}

func NewReconcileService(polls ports.PollGateway, caches ports.PollCaches, sessions ports.SessionLifecycle, logger *slog.Logger) ports.ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &reconcileService{
		polls:    polls,
		caches:   caches,
		sessions: sessions,
		logger:   logger,
		claimed:  make(map[claimKey]struct{}),
	}
}

type reconcileOutcome struct {
	localID  string
	remoteID string
	skipped  bool
	err      error
}

// Reconcile retries every LocalOnly and Diverged poll of the session against
// the authority and promotes the ones it accepts to Synced. Polls another
// pass is already handling are left to it.
func (s *reconcileService) Reconcile(ctx context.Context, sess *domain.Session) (*ports.ReconcileReport, error) {
	ctx, err := authorize(ctx, sess)
	if err != nil {
		return nil, err
	}

	cache := s.caches.For(sess.Key())
	pending := append(cache.ListBySync(domain.LocalOnly), cache.ListBySync(domain.Diverged)...)
	report := &ports.ReconcileReport{Promoted: []string{}, Failed: []string{}}
	if len(pending) == 0 {
		return report, nil
	}

	var wg sync.WaitGroup
	outcomes := make(chan reconcileOutcome, len(pending))

	for _, poll := range pending {
		wg.Add(1)
		go func(p *domain.Poll) {
			defer wg.Done()
			outcomes <- s.reconcileOne(ctx, cache, sess.Key(), p.ID)
		}(poll)
	}

	wg.Wait()
	close(outcomes)

	var unauthorized error
	for o := range outcomes {
		if o.skipped {
			continue
		}
		if o.err != nil {
			report.Failed = append(report.Failed, o.localID)
			if domain.IsUnauthorized(o.err) {
				unauthorized = o.err
			}
			s.logger.Warn("poll reconciliation failed", "poll_id", o.localID, "error", o.err)
			continue
		}
		report.Promoted = append(report.Promoted, o.remoteID)
	}
	metrics.Reconciled.WithLabelValues("promoted").Add(float64(len(report.Promoted)))
	metrics.Reconciled.WithLabelValues("failed").Add(float64(len(report.Failed)))
	sort.Strings(report.Promoted)
	sort.Strings(report.Failed)

	if unauthorized != nil {
		if s.sessions != nil {
			s.sessions.Terminate(ctx, sess)
		}
		return report, fmt.Errorf("failed to reconcile polls: %w", unauthorized)
	}
	if len(report.Promoted) > 0 {
		s.logger.Info("polls reconciled", "promoted", len(report.Promoted), "failed", len(report.Failed))
	}
	return report, nil
}

// reconcileOne claims the poll and re-reads it under the claim, so a poll
// promoted by a concurrent pass is never sent twice.
func (s *reconcileService) reconcileOne(ctx context.Context, cache ports.PollCache, sessionKey, pollID string) reconcileOutcome {
	outcome := reconcileOutcome{localID: pollID}

	release, ok := s.claim(claimKey{sessionKey: sessionKey, pollID: pollID})
	if !ok {
		outcome.skipped = true
		return outcome
	}
	defer release()

	p, ok := cache.Get(pollID)
	if !ok {
		outcome.skipped = true
		return outcome
	}
	switch p.Sync {
	case domain.LocalOnly:
		outcome.remoteID, outcome.err = s.promoteLocal(ctx, cache, p)
	case domain.Diverged:
		outcome.remoteID, outcome.err = s.pushChanges(ctx, cache, p)
	default:
		outcome.skipped = true
	}
	return outcome
}

func (s *reconcileService) claim(key claimKey) (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.claimed[key]; busy {
		return nil, false
	}
	s.claimed[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.claimed, key)
		s.mu.Unlock()
	}, true
}

// promoteLocal creates p at the authority and swaps the local record for
// the authoritative one, which carries the authority's id and code.
func (s *reconcileService) promoteLocal(ctx context.Context, cache ports.PollCache, p *domain.Poll) (string, error) {
	texts := make([]string, 0, len(p.Options))
	for _, opt := range p.Options {
		texts = append(texts, opt.Text)
	}

	remote, err := s.polls.CreatePoll(ctx, ports.CreatePollInput{
		Title:       p.Title,
		Description: p.Description,
		Options:     texts,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create poll %s: %w", p.ID, err)
	}
	remote.Sync = domain.Synced

	if !p.IsActive {
		closed, err := s.polls.ClosePoll(ctx, remote.ID)
		if err != nil {
			// Created but still open remotely; the next pass retries the close.
			inactive := false
			remote.Apply(domain.PollUpdate{IsActive: &inactive, ClosedAt: p.ClosedAt})
			remote.Sync = domain.Diverged
		} else {
			closed.Sync = domain.Synced
			remote = closed
		}
	}

	cache.Remove(p.ID)
	cache.Upsert(remote)
	return remote.ID, nil
}

func (s *reconcileService) pushChanges(ctx context.Context, cache ports.PollCache, p *domain.Poll) (string, error) {
	update := domain.PollUpdate{
		Title:       &p.Title,
		Description: &p.Description,
		IsActive:    &p.IsActive,
		ClosedAt:    p.ClosedAt,
	}
	remote, err := s.polls.UpdatePoll(ctx, p.ID, update)
	if err != nil {
		return "", fmt.Errorf("failed to update poll %s: %w", p.ID, err)
	}

	current, ok := cache.Get(p.ID)
	if !ok {
		// Deleted while the update was in flight.
		return remote.ID, nil
	}
	current.Merge(remote)
	current.Sync = domain.Synced
	cache.Upsert(current)
	return current.ID, nil
}
