// Package http provides the outbound client used for the
// chat-completion inference service.
package http

import (
	"net/http"
	"time"
)

// Client wraps http.Client with a hard per-request timeout. Stage
// deadlines travel on the request context; the client timeout is a
// backstop against a connection that never completes.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Do executes the request. Callers attach their deadline via
// http.NewRequestWithContext.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}
