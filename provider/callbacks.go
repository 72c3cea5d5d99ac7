package provider

import (
	"context"

	"github.com/MrEthical07/goSession/token"
)

// Callbacks defines a public type used by goSession APIs.
//
// All fields are optional. Callbacks run synchronously on the goroutine that
// triggered them, so they must not block.
type Callbacks struct {
	// OnAuthSuccess fires after a successful login or handshake resume.
	OnAuthSuccess func(ctx context.Context)

	// OnAuthError fires when a login or handshake fails for a reason other
	// than a dead refresh token.
	OnAuthError func(ctx context.Context, err error)

	// OnRefreshSuccess fires after a refresh grant succeeds, with the new
	// token record.
	OnRefreshSuccess func(ctx context.Context, rec *token.Record)

	// OnRefreshError fires when a refresh grant fails.
	OnRefreshError func(ctx context.Context, err error)

	// OnTokenExpired fires when the provider rejects the refresh token
	// itself (invalid_grant). The session cannot be recovered silently.
	OnTokenExpired func(ctx context.Context)

	// OnLogout fires after a logout round trip, successful or degraded.
	OnLogout func(ctx context.Context)
}

// SetCallbacks describes the setcallbacks operation and its observable behavior.
//
// It replaces the full callback set. Passing the zero value detaches all
// callbacks.
func (c *Client) SetCallbacks(cb Callbacks) {
	c.cbMu.Lock()
	c.cb = cb
	c.cbMu.Unlock()
}

func (c *Client) callbacks() Callbacks {
	c.cbMu.RLock()
	defer c.cbMu.RUnlock()
	return c.cb
}

func (c *Client) fireAuthSuccess(ctx context.Context) {
	if fn := c.callbacks().OnAuthSuccess; fn != nil {
		fn(ctx)
	}
}

func (c *Client) fireAuthError(ctx context.Context, err error) {
	if fn := c.callbacks().OnAuthError; fn != nil {
		fn(ctx, err)
	}
}

func (c *Client) fireRefreshSuccess(ctx context.Context, rec *token.Record) {
	if fn := c.callbacks().OnRefreshSuccess; fn != nil {
		fn(ctx, rec)
	}
}

func (c *Client) fireRefreshError(ctx context.Context, err error) {
	if fn := c.callbacks().OnRefreshError; fn != nil {
		fn(ctx, err)
	}
}

func (c *Client) fireTokenExpired(ctx context.Context) {
	if fn := c.callbacks().OnTokenExpired; fn != nil {
		fn(ctx)
	}
}

func (c *Client) fireLogout(ctx context.Context) {
	if fn := c.callbacks().OnLogout; fn != nil {
		fn(ctx)
	}
}
