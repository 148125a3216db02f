package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPollNotFound     = errors.New("poll not found")
	ErrInvalidOption    = errors.New("invalid option for this poll")
	ErrAlreadyVoted     = errors.New("user has already voted")
	ErrVotingClosed     = errors.New("voting is closed for this poll")
	ErrVoteInProgress   = errors.New("a vote for this poll is already in progress")
	ErrNotAuthenticated = errors.New("no authenticated identity")
	ErrForbidden        = errors.New("identity is not allowed to manage polls")
)

// ValidationError reports input rejected before any call to the authority.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type AuthorityErrorKind int

const (
	// Unreachable covers transport failures, timeouts and 5xx answers.
	Unreachable AuthorityErrorKind = iota
	// Rejected means the authority answered and refused the request.
	Rejected
	// Unauthorized means the credential was refused; the session is no
	// longer valid.
	Unauthorized
)

func (k AuthorityErrorKind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case Rejected:
		return "rejected"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// AuthorityError is returned by gateways for every failed call.
type AuthorityError struct {
	Op         string
	Kind       AuthorityErrorKind
	StatusCode int
	Reason     string
	Err        error
}

func (e *AuthorityError) Error() string {
	msg := fmt.Sprintf("authority %s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthorityError) Unwrap() error {
	return e.Err
}

func authorityKind(err error) (AuthorityErrorKind, bool) {
	var authErr *AuthorityError
	if errors.As(err, &authErr) {
		return authErr.Kind, true
	}
	return 0, false
}

func IsUnreachable(err error) bool {
	kind, ok := authorityKind(err)
	return ok && kind == Unreachable
}

func IsRejected(err error) bool {
	kind, ok := authorityKind(err)
	return ok && kind == Rejected
}

func IsUnauthorized(err error) bool {
	kind, ok := authorityKind(err)
	return ok && kind == Unauthorized
}

func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
