package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
)

// infoPath is the fixed control-plane path for connection metadata.
const infoPath = "/api/v1/gateway/client"

// Resolver fetches gateway connection metadata.
type Resolver struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	clock      clock.Clock
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// NewResolver creates a control-plane client for the given base URL and token.
func NewResolver(baseURL, token string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		baseURL:   baseURL,
		token:     token,
		userAgent: "shardmux (https://github.com/shardmux/shardmux)",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
		clock:  clock.New(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ResolverOption {
	return func(r *Resolver) {
		r.userAgent = ua
	}
}

// WithClock sets the clock used for backoff sleeps and reset-time math.
func WithClock(c clock.Clock) ResolverOption {
	return func(r *Resolver) {
		r.clock = c
	}
}

// Resolve fetches gateway metadata. Invalid credentials (401/403) and server
// failures (>=500) are terminal. Rate limiting (429) is retried with the
// server-provided backoff and no retry cap; every retry is logged so a hung
// Resolve is observable.
func (r *Resolver) Resolve(ctx context.Context) (*Info, error) {
	for attempt := 0; ; attempt++ {
		info, retryAfter, err := r.fetch(ctx)
		if err != nil {
			return nil, err
		}
		if info != nil {
			return info, nil
		}

		r.logger.Warn("gateway info fetch rate limited, retrying",
			"attempt", attempt+1,
			"retry_after", retryAfter,
		)

		if retryAfter > 0 {
			timer := r.clock.Timer(retryAfter)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}
}

// fetch issues one request. A nil Info with a nil error means rate limited;
// retryAfter then carries the server-provided wait.
func (r *Resolver) fetch(ctx context.Context) (info *Info, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+infoPath, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("User-Agent", r.userAgent)

	start := r.clock.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	var wire infoResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, 0, fmt.Errorf("unmarshal response: %w", err)
	}

	now := r.clock.Now()
	return newInfo(wire, now.Sub(start), now), 0, nil
}

// parseRetryAfter reads a Retry-After header in seconds. Absent or malformed
// values mean no wait.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
