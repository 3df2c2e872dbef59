// Package httpclient is a small retrying JSON client for outgoing webhooks.
//
//	c := httpclient.New(5*time.Second).Retry(3, 200*time.Millisecond)
//	resp, err := c.PostJSON(ctx, hookURL, payload)
//
// Network errors and 5xx/429 responses are retried with exponential
// backoff; other statuses are returned to the caller as-is.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/webdiner/webdiner/pkg/logger"
)

// maxBody caps how much of a response body is kept.
const maxBody = 1 << 20

var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        50,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// Client sends JSON requests with per-attempt timeouts and retries.
type Client struct {
	http      *http.Client
	timeout   time.Duration
	attempts  int
	retryWait time.Duration
}

// New returns a client that makes one attempt per call with the given
// per-attempt timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:      &http.Client{Transport: sharedTransport},
		timeout:   timeout,
		attempts:  1,
		retryWait: 500 * time.Millisecond,
	}
}

// Retry sets the total number of attempts and the first backoff, which
// doubles after each failure.
func (c *Client) Retry(attempts int, wait time.Duration) *Client {
	if attempts < 1 {
		attempts = 1
	}
	c.attempts = attempts
	c.retryWait = wait
	return c
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Err returns a StatusError for non-2xx responses.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &StatusError{Code: r.StatusCode, Body: string(r.Body)}
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpclient: HTTP %d: %s", e.Code, e.Body)
}

// PostJSON marshals v and posts it to url.
func (c *Client) PostJSON(ctx context.Context, url string, v any) (*Response, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("httpclient: marshal: %w", err)
	}
	return c.Do(ctx, http.MethodPost, url, raw, "application/json")
}

// Do sends body to url, retrying transient failures until the attempts
// run out or ctx is done.
func (c *Client) Do(ctx context.Context, method, url string, body []byte, contentType string) (*Response, error) {
	var lastErr error
	wait := c.retryWait
	for attempt := 1; attempt <= c.attempts; attempt++ {
		resp, err := c.once(ctx, method, url, body, contentType)
		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = resp.Err()
		}
		if attempt == c.attempts {
			if err == nil {
				// Out of retries on a 5xx: hand the last response back.
				return resp, nil
			}
			break
		}

		logger.WithCtx(ctx).Warn("httpclient: attempt failed, retrying",
			"url", url, "attempt", attempt, "backoff", wait.String(), "error", lastErr)
		select {
		case <-ctx.Done():
			return nil, errors.Join(ctx.Err(), lastErr)
		case <-time.After(wait):
		}
		wait *= 2
	}
	return nil, fmt.Errorf("httpclient: %s %s failed after %d attempt(s): %w", method, url, c.attempts, lastErr)
}

func (c *Client) once(ctx context.Context, method, url string, body []byte, contentType string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
