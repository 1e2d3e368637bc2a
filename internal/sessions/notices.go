// Package sessions runs the cart store and checkout workflow on behalf of
// authenticated API users.
package sessions

import (
	"sync"

	"github.com/luxemarket/storefront-backend/internal/cart"
	"github.com/luxemarket/storefront-backend/pkg/types"
)

// collector gathers the notices raised while serving a request.
type collector struct {
	mu      sync.Mutex
	notices []cart.Notice
}

func (c *collector) Notify(n cart.Notice) {
	c.mu.Lock()
	c.notices = append(c.notices, n)
	c.mu.Unlock()
}

// drain returns and forgets the collected notices.
func (c *collector) drain() []cart.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}

// ResponseNotices converts cart notices to the response envelope form.
func ResponseNotices(ns []cart.Notice) []types.Notice {
	if len(ns) == 0 {
		return nil
	}
	out := make([]types.Notice, 0, len(ns))
	for _, n := range ns {
		out = append(out, types.Notice{
			Title:       n.Title,
			Description: n.Description,
			DurationMS:  n.Duration.Milliseconds(),
			Severity:    string(n.Severity),
		})
	}
	return out
}

// userLocks serializes work per owner and forgets idle owners.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*refMutex)}
}

func (l *userLocks) lock(owner string) func() {
	l.mu.Lock()
	m, ok := l.locks[owner]
	if !ok {
		m = &refMutex{}
		l.locks[owner] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, owner)
		}
		l.mu.Unlock()
	}
}
