package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/secureclip/internal/common"
)

// Client calls the relay server over HTTP.
//
// Transport failures and 503 responses are retried with a bounded number of
// attempts and a constant delay, which absorbs a cold-started backend.
// Authoritative responses are terminal: a 404 means the record is expired,
// already consumed or never existed, and retrying cannot change that.
type Client struct {
	base     string
	http     *http.Client
	attempts uint64
	delay    time.Duration
}

// NewClient returns a Client for the given base URL (e.g.
// "http://127.0.0.1:8080") with the default retry policy of 3 attempts
// spaced 3 seconds apart.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base:     base,
		http:     &http.Client{Timeout: timeout},
		attempts: 3,
		delay:    3 * time.Second,
	}
}

// BaseURL returns the server base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.base
}

// WithRetryPolicy overrides the attempt count and spacing. attempts < 1 is
// treated as 1 (no retries).
func (c *Client) WithRetryPolicy(attempts int, delay time.Duration) *Client {
	if attempts < 1 {
		attempts = 1
	}
	if delay <= 0 {
		delay = time.Millisecond
	}
	c.attempts = uint64(attempts)
	c.delay = delay
	return c
}

// Store uploads an envelope plus metadata under the code.
func (c *Client) Store(ctx context.Context, req StoreRequest) error {
	var out StoreResponse
	return c.doRetry(ctx, func(ctx context.Context) error {
		return c.post(ctx, "/store", req, &out)
	})
}

// Fetch retrieves and deletes the record in one call.
func (c *Client) Fetch(ctx context.Context, code string) (*FetchResponse, error) {
	var out FetchResponse
	err := c.doRetry(ctx, func(ctx context.Context) error {
		return c.get(ctx, "/fetch/"+url.PathEscape(code), &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Peek checks availability without consuming the record. Safe to repeat.
func (c *Client) Peek(ctx context.Context, code string) (*PeekResponse, error) {
	var out PeekResponse
	err := c.doRetry(ctx, func(ctx context.Context) error {
		return c.get(ctx, "/peek/"+url.PathEscape(code), &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Consume destructively retrieves the record.
func (c *Client) Consume(ctx context.Context, code string) (*FetchResponse, error) {
	var out FetchResponse
	err := c.doRetry(ctx, func(ctx context.Context) error {
		return c.post(ctx, "/consume", ConsumeRequest{Code: code}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports whether the relay and its store are reachable.
func (c *Client) Health(ctx context.Context) error {
	var out HealthResponse
	return c.doRetry(ctx, func(ctx context.Context) error {
		return c.get(ctx, "/health", &out)
	})
}

// doRetry runs fn under the client's retry policy. Only errors marked
// retryable inside fn (transport failures, 503) are attempted again.
func (c *Client) doRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(c.attempts-1, retry.NewConstant(c.delay))

	err := retry.Do(ctx, b, fn)
	if err == nil {
		return nil
	}
	return err
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		// Connection refused, DNS failure, timeout: the backend may still
		// be starting, worth another attempt.
		return retry.RetryableError(fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err))
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: bad response body: %v", common.ErrInternal, err)
		}
	}
	return nil
}

func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return common.ErrNotFound
	case status == http.StatusBadRequest:
		return common.ErrValidation
	case status == http.StatusRequestEntityTooLarge:
		return common.ErrPayloadTooLarge
	case status == http.StatusServiceUnavailable:
		return retry.RetryableError(fmt.Errorf("%w: status %d", common.ErrBackendUnavailable, status))
	default:
		return fmt.Errorf("%w: status %d", common.ErrInternal, status)
	}
}
