package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

type pollCache struct {
	mu     sync.RWMutex
	polls  map[string]*domain.Poll
	byCode map[string]string
}

func NewPollCache() ports.PollCache {
	return &pollCache{
		polls:  make(map[string]*domain.Poll),
		byCode: make(map[string]string),
	}
}

func (c *pollCache) Get(id string) (*domain.Poll, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	poll, ok := c.polls[id]
	if !ok {
		return nil, false
	}
	return poll.Clone(), true
}

func (c *pollCache) GetByCode(code string) (*domain.Poll, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byCode[codeKey(code)]
	if !ok {
		return nil, false
	}
	poll, ok := c.polls[id]
	if !ok {
		return nil, false
	}
	return poll.Clone(), true
}

// Upsert stores a copy of poll, replacing any record with the same id.
func (c *pollCache) Upsert(poll *domain.Poll) {
	if poll == nil || poll.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.polls[poll.ID]; ok {
		c.dropCode(prev)
	}
	stored := poll.Clone()
	c.polls[stored.ID] = stored
	if stored.Code != "" {
		c.byCode[codeKey(stored.Code)] = stored.ID
	}
}

func (c *pollCache) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	poll, ok := c.polls[id]
	if !ok {
		return false
	}
	c.dropCode(poll)
	delete(c.polls, id)
	return true
}

// MutateOption adds delta to one option counter. A counter never goes below
// zero.
func (c *pollCache) MutateOption(pollID, optionID string, delta int64) (*domain.Poll, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	poll, ok := c.polls[pollID]
	if !ok {
		return nil, domain.ErrPollNotFound
	}

	updated := poll.Clone()
	for i := range updated.Options {
		if updated.Options[i].ID != optionID {
			continue
		}
		if updated.Options[i].Votes+delta < 0 {
			return nil, fmt.Errorf("option %s would drop below zero votes", optionID)
		}
		updated.Options[i].Votes += delta
		c.polls[pollID] = updated
		return updated.Clone(), nil
	}
	return nil, domain.ErrInvalidOption
}

// List returns every cached poll, oldest first.
func (c *pollCache) List() []*domain.Poll {
	return c.filter(func(*domain.Poll) bool { return true })
}

func (c *pollCache) ListBySync(state domain.SyncState) []*domain.Poll {
	return c.filter(func(p *domain.Poll) bool { return p.Sync == state })
}

func (c *pollCache) CodeExists(code string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byCode[codeKey(code)]
	return ok
}

func (c *pollCache) filter(keep func(*domain.Poll) bool) []*domain.Poll {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := []*domain.Poll{}
	for _, p := range c.polls {
		if keep(p) {
			list = append(list, p.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// dropCode removes the code index entry of poll if it still points at it.
// Callers hold the write lock.
func (c *pollCache) dropCode(poll *domain.Poll) {
	key := codeKey(poll.Code)
	if c.byCode[key] == poll.ID {
		delete(c.byCode, key)
	}
}

func codeKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
