package lnbits

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lnbits/lnbits-mcp-server/internal/config"
)

const (
	defaultRetryBase = 500 * time.Millisecond
	defaultRetryCap  = 8 * time.Second
)

// Client issues authenticated HTTP calls against one LNbits instance. A
// Client is bound 1:1 to an immutable *config.Config; reconfiguring a session
// replaces the whole Client rather than mutating this one.
type Client struct {
	cfg     *config.Config
	httpc   *http.Client
	limiter *rateLimiter

	retryBase time.Duration
	retryCap  time.Duration
	// lnurlScheme is "https" outside of tests.
	lnurlScheme string
}

// New creates a Client bound to cfg.
func New(cfg *config.Config) *Client {
	return &Client{
		cfg:         cfg,
		httpc:       &http.Client{Timeout: cfg.Timeout},
		limiter:     newRateLimiter(cfg.RateLimitPerMinute),
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
		lnurlScheme: "https",
	}
}

// Config returns the bound config.
func (c *Client) Config() *config.Config {
	return c.cfg
}

// requestOpts describes one logical wallet API call.
type requestOpts struct {
	method string
	path   string
	query  url.Values
	body   any
	// payment marks a non-idempotent payment submission: single attempt,
	// and a transport failure after the request was issued is ambiguous.
	payment bool
}

// do performs the call with auth, rate limiting, and retry policy, decoding
// a 2xx JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, opts requestOpts, out any) error {
	if !c.limiter.allow(time.Now()) {
		return &APIError{
			Message: fmt.Sprintf("rate limit of %d requests per minute exceeded", c.cfg.RateLimitPerMinute),
			Err:     ErrRateLimited,
		}
	}

	var payload []byte
	if opts.body != nil {
		var err error
		payload, err = json.Marshal(opts.body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	attempts := c.cfg.MaxRetries + 1
	if opts.payment {
		attempts = 1
	}

	var lastErr error
	var wait time.Duration
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
		}
		wait = c.backoff(attempt)

		resp, err := c.send(ctx, opts, payload)
		if err != nil {
			if opts.payment {
				return &APIError{
					Message: "payment submission outcome unknown: " + err.Error(),
					Timeout: isTimeout(err),
					Err:     ErrAmbiguousPayment,
				}
			}
			lastErr = &APIError{
				Message: err.Error(),
				Timeout: isTimeout(err),
				Err:     ErrNetwork,
			}
			continue
		}

		if resp.StatusCode >= 400 {
			apiErr := c.responseError(resp)
			// 5xx and 429 are retryable; other 4xx fail immediately.
			if resp.StatusCode >= 500 {
				lastErr = apiErr
				continue
			}
			if resp.StatusCode == http.StatusTooManyRequests && attempt < attempts-1 {
				lastErr = apiErr
				// Honor the server's retry-after hint, still bounded by the cap.
				if d := parseRetryAfter(resp.Header.Get("Retry-After")); d > wait {
					wait = min(d, c.retryCap)
				}
				continue
			}
			return apiErr
		}

		if out == nil {
			resp.Body.Close()
			return nil
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return &APIError{Message: "read response: " + err.Error(), Err: ErrNetwork}
		}
		if err := json.Unmarshal(body, out); err != nil {
			return &APIError{Message: "parse response: " + err.Error(), Err: ErrService}
		}
		return nil
	}
	return lastErr
}

// send issues a single HTTP request with credentials attached per the
// configured auth method.
func (c *Client) send(ctx context.Context, opts requestOpts, payload []byte) (*http.Response, error) {
	u := c.cfg.BaseURL + opts.path
	q := url.Values{}
	for k, vs := range opts.query {
		q[k] = vs
	}
	for k, vs := range c.cfg.AuthQuery() {
		q[k] = vs
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, opts.method, u, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.cfg.AuthHeaders() {
		req.Header.Set(k, v)
	}
	return c.httpc.Do(req)
}

// responseError drains an error response and maps it to an *APIError. LNbits
// error bodies carry a "detail" field.
func (c *Client) responseError(resp *http.Response) *APIError {
	defer resp.Body.Close()

	msg := fmt.Sprintf("API request failed: %d", resp.StatusCode)
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(body) > 0 {
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &detail) == nil && detail.Detail != "" {
			msg += " - " + detail.Detail
		}
	}
	log.Printf("lnbits: %s %s -> %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode)

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Err:        mapStatus(resp.StatusCode),
	}
}

// backoff returns the delay before retry number attempt+1: exponential from
// retryBase, doubling, capped at retryCap.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.retryBase << attempt
	if d > c.retryCap || d <= 0 {
		return c.retryCap
	}
	return d
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// parseRetryAfter reads a Retry-After header as delta-seconds or HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
