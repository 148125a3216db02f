package memory

import (
	"sync"

	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

// pollCaches keeps one PollCache per session key, created on first use.
type pollCaches struct {
	mu     sync.Mutex
	caches map[string]ports.PollCache
}

func NewPollCaches() ports.PollCaches {
	return &pollCaches{
		caches: make(map[string]ports.PollCache),
	}
}

func (c *pollCaches) For(sessionKey string) ports.PollCache {
	c.mu.Lock()
	defer c.mu.Unlock()

	cache, ok := c.caches[sessionKey]
	if !ok {
		cache = NewPollCache()
		c.caches[sessionKey] = cache
	}
	return cache
}

func (c *pollCaches) Drop(sessionKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.caches, sessionKey)
}
