package realtime

import (
	"context"
	"sync"

	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"go.uber.org/zap"
)

// Applier folds feed changes into local state. Application must be
// idempotent so replayed events are harmless.
type Applier interface {
	ApplyChange(change billingdomain.Change) error
}

// Channel is one table's sync subscription. Enable and Disable are
// idempotent; a channel reports active only after the feed has
// acknowledged the subscription.
type Channel struct {
	table   string
	feed    Feed
	applier Applier
	log     *zap.Logger

	mu     sync.Mutex
	sub    Subscription
	active bool
}

func NewChannel(table string, feed Feed, applier Applier, log *zap.Logger) *Channel {
	return &Channel{
		table:   table,
		feed:    feed,
		applier: applier,
		log:     log.Named("realtime.channel").With(zap.String("table", table)),
	}
}

func (c *Channel) Table() string { return c.table }

// Active reports whether the subscription is up.
func (c *Channel) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Enable subscribes to the table. A second Enable while active is a
// no-op and never opens a second subscription.
func (c *Channel) Enable(ctx context.Context) error {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	sub, err := c.feed.Subscribe(ctx, c.table)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.active {
		// Lost the race against a concurrent Enable.
		c.mu.Unlock()
		return sub.Close()
	}
	c.sub = sub
	c.active = true
	c.mu.Unlock()

	go c.pump(sub)
	c.log.Info("channel enabled")
	return nil
}

// Disable tears the subscription down. Disabling an inactive channel
// is a no-op; the channel may be enabled again later.
func (c *Channel) Disable() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	wasActive := c.active
	c.active = false
	c.mu.Unlock()

	if sub != nil {
		_ = sub.Close()
	}
	if wasActive {
		c.log.Info("channel disabled")
	}
}

func (c *Channel) pump(sub Subscription) {
	for change := range sub.Changes() {
		if change.Table == "" {
			change.Table = c.table
		}
		if err := c.applier.ApplyChange(change); err != nil {
			c.log.Warn("change rejected", zap.String("type", string(change.Type)), zap.Error(err))
		}
	}

	// The feed closed the stream. Mark inactive only if this pump's
	// subscription is still the current one.
	c.mu.Lock()
	if c.sub == sub {
		c.sub = nil
		c.active = false
		c.log.Info("channel stream ended")
	}
	c.mu.Unlock()
}
