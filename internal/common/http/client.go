// Package http wraps the standard client with the per-service timeout
// the gateway and model clients are configured with.
package http

import (
	"context"
	"net/http"
	"time"
)

// Client issues outbound requests for the dialogue core's HTTP
// collaborators, the order backend and the model-serving service.
type Client struct {
	inner *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		inner: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.inner.Do(req)
}

// DoWithContext sends the request under ctx so a cancelled turn stops
// waiting on its backend call.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.inner.Do(req.WithContext(ctx))
}
