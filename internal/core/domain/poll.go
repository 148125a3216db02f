package domain

import "time"

// SyncState tells whether a cached poll matches what the authority holds.
type SyncState int

const (
	// Synced polls were last written from an authority response.
	Synced SyncState = iota
	// LocalOnly polls were created while the authority was unreachable and
	// do not exist remotely yet.
	LocalOnly
	// Diverged polls exist remotely but carry local changes the authority
	// never confirmed.
	Diverged
)

func (s SyncState) String() string {
	switch s {
	case Synced:
		return "synced"
	case LocalOnly:
		return "local_only"
	case Diverged:
		return "diverged"
	default:
		return "unknown"
	}
}

type Poll struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Code        string       `json:"code"`
	Options     []PollOption `json:"options"`
	IsActive    bool         `json:"isActive"`
	CreatedAt   time.Time    `json:"createdAt"`
	ClosedAt    *time.Time   `json:"closedAt,omitempty"`
	CreatedBy   string       `json:"createdBy,omitempty"`
	Sync        SyncState    `json:"-"`
}

type PollOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int64  `json:"votes"`
}

// PollUpdate carries the fields of a partial update. Nil fields are left
// untouched by Apply.
type PollUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	IsActive    *bool      `json:"isActive,omitempty"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
}

func (u PollUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.IsActive == nil && u.ClosedAt == nil
}

// TotalVotes sums the option counters.
func (p *Poll) TotalVotes() int64 {
	var total int64
	for _, opt := range p.Options {
		total += opt.Votes
	}
	return total
}

// Clone returns a deep copy so callers never share option slices or
// timestamps with the cache.
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Options = append([]PollOption(nil), p.Options...)
	if p.ClosedAt != nil {
		closedAt := *p.ClosedAt
		cp.ClosedAt = &closedAt
	}
	return &cp
}

// Apply overwrites the fields set in u.
func (p *Poll) Apply(u PollUpdate) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
		if p.IsActive {
			p.ClosedAt = nil
		}
	}
	if u.ClosedAt != nil {
		closedAt := *u.ClosedAt
		p.ClosedAt = &closedAt
	}
}

// Merge overwrites p with the authoritative fields of remote. Option
// counters only move forward: a stale remote tally never lowers a counter
// the client has already observed.
func (p *Poll) Merge(remote *Poll) {
	if remote.ID != "" {
		p.ID = remote.ID
	}
	if remote.Title != "" {
		p.Title = remote.Title
	}
	p.Description = remote.Description
	if remote.Code != "" {
		p.Code = remote.Code
	}
	p.IsActive = remote.IsActive
	p.ClosedAt = remote.ClosedAt
	if !remote.CreatedAt.IsZero() {
		p.CreatedAt = remote.CreatedAt
	}
	if remote.CreatedBy != "" {
		p.CreatedBy = remote.CreatedBy
	}
	if len(remote.Options) == 0 {
		return
	}

	previous := make(map[string]int64, len(p.Options))
	for _, opt := range p.Options {
		previous[opt.ID] = opt.Votes
	}
	merged := make([]PollOption, 0, len(remote.Options))
	for _, opt := range remote.Options {
		if seen, ok := previous[opt.ID]; ok && seen > opt.Votes {
			opt.Votes = seen
		}
		merged = append(merged, opt)
	}
	p.Options = merged
}
