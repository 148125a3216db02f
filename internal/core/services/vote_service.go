package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/metrics"
)

type voteKey struct {
	identityID string
	pollID     string
}

// CastVote records one vote of the session's identity. Nothing is mutated
// unless the authority accepts the vote.
func (s *votingService) CastVote(ctx context.Context, sess *domain.Session, pollID, optionID string) error {
	if sess == nil {
		return domain.ErrNotAuthenticated
	}
	identity, ok := sess.Identity()
	if !ok {
		return domain.ErrNotAuthenticated
	}
	if sess.HasVoted(pollID) {
		return domain.ErrAlreadyVoted
	}
	cache := s.caches.For(sess.Key())
	if cached, ok := cache.Get(pollID); ok && !cached.IsActive {
		return domain.ErrVotingClosed
	}

	release, err := s.acquireVote(voteKey{identityID: identity.ID, pollID: pollID})
	if err != nil {
		return err
	}
	defer release()

	// A vote that finished while we waited for the token already counts.
	if sess.HasVoted(pollID) {
		return domain.ErrAlreadyVoted
	}

	ctx, err = authorize(ctx, sess)
	if err != nil {
		return err
	}

	err = s.votes.CastVote(ctx, domain.Vote{
		PollID:    pollID,
		OptionID:  optionID,
		UserID:    identity.ID,
		Timestamp: s.now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyVoted) {
			// The authority is the ledger; align the local set with it.
			if sess.RecordVote(pollID) {
				s.persist(ctx, sess)
			}
			return domain.ErrAlreadyVoted
		}
		return s.authorityFailure(ctx, sess, fmt.Errorf("failed to cast vote: %w", err))
	}

	sess.RecordVote(pollID)
	if _, err := cache.MutateOption(pollID, optionID, 1); err != nil && !errors.Is(err, domain.ErrPollNotFound) {
		s.logger.Warn("vote accepted but cached tally not updated",
			"poll_id", pollID, "option_id", optionID, "error", err)
	}
	s.persist(ctx, sess)

	metrics.VotesCast.Inc()
	s.logger.Info("vote cast", "poll_id", pollID, "user_id", identity.ID)
	return nil
}

// HasVoted answers from the session first and asks the authority only when
// the local set has no record.
func (s *votingService) HasVoted(ctx context.Context, sess *domain.Session, pollID string) (bool, error) {
	ctx, err := authorize(ctx, sess)
	if err != nil {
		return false, err
	}
	if sess.HasVoted(pollID) {
		return true, nil
	}

	voted, err := s.votes.HasVoted(ctx, pollID)
	if err != nil {
		if domain.IsUnauthorized(err) {
			return false, s.authorityFailure(ctx, sess, fmt.Errorf("failed to check vote: %w", err))
		}
		s.logger.Warn("authority vote check failed, using session", "poll_id", pollID, "error", err)
		return false, nil
	}
	if voted && sess.RecordVote(pollID) {
		s.persist(ctx, sess)
	}
	return voted, nil
}

// acquireVote takes the in-flight token for key. The returned func releases
// it.
func (s *votingService) acquireVote(key voteKey) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[key]; busy {
		return nil, domain.ErrVoteInProgress
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}, nil
}

func (s *votingService) persist(ctx context.Context, sess *domain.Session) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.Persist(ctx, sess); err != nil {
		s.logger.Warn("failed to persist session", "session", sess.Key(), "error", err)
	}
}
