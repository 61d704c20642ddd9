// internal/adapters/upstream/client.go
package upstream

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"guest_reviews/internal/adapters/observability"
)

var (
	ErrNotFound     = errors.New("upstream: not found")
	ErrUnauthorized = errors.New("upstream: unauthorized")
	ErrForbidden    = errors.New("upstream: forbidden")
)

// Authorizer decorates an outbound request with credentials.
type Authorizer func(req *http.Request)

// Bearer sets "Authorization: Bearer <token>".
func Bearer(token string) Authorizer {
	return func(req *http.Request) {
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// QueryKey adds the API key as a query parameter.
func QueryKey(param, key string) Authorizer {
	return func(req *http.Request) {
		if key == "" {
			return
		}
		q := req.URL.Query()
		q.Set(param, key)
		req.URL.RawQuery = q.Encode()
	}
}

// Client is a JSON-over-HTTP GET client with client-side rate limiting and
// retries on transient failures. One Client per provider.
type Client struct {
	service  string
	hc       *http.Client
	auth     Authorizer
	rl       *rate.Limiter
	attempts int
}

type Options struct {
	Service string
	RPS     int
	Timeout time.Duration
	Auth    Authorizer
}

func New(o Options) *Client {
	rps := o.RPS
	if rps <= 0 {
		rps = 5
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		service:  o.Service,
		hc:       &http.Client{Timeout: timeout},
		auth:     o.Auth,
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		attempts: 4,
	}
}

// GetJSON fetches rawURL and decodes the body into out. 429 and transient 5xx
// are retried with backoff, honouring Retry-After. endpoint is a
// low-cardinality metrics label (e.g. "reviews").
func (c *Client) GetJSON(ctx context.Context, endpoint, rawURL string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	var lastErr error
	for i := 0; i < c.attempts; i++ {
		wait, retry, err := c.try(ctx, endpoint, rawURL, out)
		if !retry {
			return err
		}
		lastErr = err
		if wait == 0 {
			wait = backoff(i)
		}
		if i == c.attempts-1 || !sleepCtx(ctx, wait) {
			break
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return lastErr
}

// try runs one attempt. retry reports whether another attempt may succeed;
// wait is the server-requested delay, if any.
func (c *Client) try(ctx context.Context, endpoint, rawURL string, out any) (wait time.Duration, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, false, redact(err)
	}
	if c.auth != nil {
		c.auth(req)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "guest-reviews/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(c.service, endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return 0, false, ctx.Err()
		}
		return 0, true, redact(err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal(c.service, endpoint, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return 0, false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return 0, false, fmt.Errorf("%s: decode %s: %w", c.service, endpoint, err)
		}
		return 0, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return 0, false, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return 0, false, ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return 0, false, ErrForbidden
	case retryable(resp.StatusCode):
		return retryAfter(resp), true, fmt.Errorf("%s: remote %d", c.service, resp.StatusCode)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, false, fmt.Errorf("%s: bad status %d: %s", c.service, resp.StatusCode, strings.TrimSpace(string(b)))
	}
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// redact drops the query string from transport errors; API keys travel there.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		if i := strings.IndexByte(ue.URL, '?'); i >= 0 {
			ue.URL = ue.URL[:i] + "?<redacted>"
		}
	}
	return err
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns 200ms, 400ms, 800ms... with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
