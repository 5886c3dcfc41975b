package redis

import (
	"context"

	"github.com/kbukum/voiceid/provider"
)

var _ provider.Provider = (*Client)(nil)

// Name implements provider.Provider.
func (c *Client) Name() string { return "redis" }

// IsAvailable reports whether the client is open and the server answers.
func (c *Client) IsAvailable(ctx context.Context) bool {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	return !closed && c.rdb.Ping(ctx).Err() == nil
}
