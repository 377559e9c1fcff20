// Package feed exposes the suggestion queue as a one-item-at-a-time
// cursor. Advancing is purely local; the queue is fetched at most once
// until an explicit reload.
package feed

import (
	"context"
	"sync"

	"github.com/avetrov/DevConnect/internal/client/gateway"
	"github.com/avetrov/DevConnect/internal/models"
	"go.uber.org/zap"
)

// Gateway defines the backend operation required by the Cursor.
type Gateway interface {
	Get(ctx context.Context, path string) (gateway.Result, error)
}

// Cursor holds the ordered queue of suggested users, consumed from the
// front. A nil queue means not yet fetched; an empty queue is terminal
// until Reload.
type Cursor struct {
	gw  Gateway
	log *zap.Logger

	mu    sync.Mutex
	queue []models.User
}

// New constructs a Cursor over the given gateway.
func New(gw Gateway, log *zap.Logger) *Cursor {
	return &Cursor{gw: gw, log: log}
}

// FetchIfAbsent populates the queue from GET /users/suggestions when it
// has never been fetched. A previously fetched queue, even an empty one,
// skips the network call.
func (c *Cursor) FetchIfAbsent(ctx context.Context) error {
	c.mu.Lock()
	fetched := c.queue != nil
	c.mu.Unlock()
	if fetched {
		return nil
	}
	return c.fetch(ctx)
}

// Reload discards the queue and fetches a fresh one. This is the manual
// reload offered once the queue has run out.
func (c *Cursor) Reload(ctx context.Context) error {
	c.mu.Lock()
	c.queue = nil
	c.mu.Unlock()
	return c.fetch(ctx)
}

func (c *Cursor) fetch(ctx context.Context) error {
	res, err := c.gw.Get(ctx, "/users/suggestions")
	if err != nil {
		return err
	}
	var users []models.User
	if err := res.Decode(&users); err != nil {
		return err
	}
	if users == nil {
		users = []models.User{}
	}
	c.mu.Lock()
	c.queue = users
	c.mu.Unlock()
	c.log.Debug("suggestion queue fetched", zap.Int("count", len(users)))
	return nil
}

// Current returns the head of the queue. ok is false when the queue is
// unfetched or empty.
func (c *Cursor) Current() (models.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return models.User{}, false
	}
	return c.queue[0], true
}

// Advance drops the head of the queue. Advancing an unfetched or empty
// queue is a no-op.
func (c *Cursor) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) > 0 {
		c.queue = c.queue[1:]
	}
}

// Drop removes the user with the given id from the queue, wherever it
// sits. Absent ids are a no-op. Connection actions use this to advance
// past the user they just acted on without re-querying.
func (c *Cursor) Drop(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, u := range c.queue {
		if u.ID == userID {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return
		}
	}
}

// Len returns the number of queued suggestions.
func (c *Cursor) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Fetched reports whether the queue has been populated at least once.
func (c *Cursor) Fetched() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue != nil
}
