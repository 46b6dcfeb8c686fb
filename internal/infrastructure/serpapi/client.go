package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pricescan/backend/internal/domain"
)

const (
	// DefaultTimeout bounds a single provider call when the caller passes none
	DefaultTimeout = 12 * time.Second

	// maxBodyBytes caps how much of a provider response is read
	maxBodyBytes = 10 << 20

	// maxErrorBody caps how much of a non-2xx body is embedded in errors
	maxErrorBody = 2048
)

// Client handles communication with the shared search API endpoint
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new search API client.
// ratePerSecond <= 0 disables client-side rate limiting.
func NewClient(apiKey, baseURL string, ratePerSecond float64, burst int) *Client {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		// Per-call deadlines come from Fetch
		httpClient:  &http.Client{},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(limit, burst),
	}
}

// SetDebug enables logging of every request and response size
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// HasCredential reports whether an API key is configured
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

// BuildURL composes a request URL for engine with the given query parameters.
// Empty parameter values are dropped and the API key is appended.
func (c *Client) BuildURL(engine string, params map[string]string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}

	q := u.Query()
	q.Set("engine", engine)
	for key, value := range params {
		if value == "" {
			continue
		}
		q.Set(key, value)
	}
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Fetch issues a single GET against reqURL and returns the JSON body.
// The call is abandoned after timeout; there are no retries.
func (c *Client) Fetch(ctx context.Context, reqURL string, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := zerolog.Ctx(ctx).With().Str("url", redact(reqURL)).Logger()
	start := time.Now()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, c.contextError(ctx, timeout, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "PriceScan/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.contextError(ctx, timeout, unwrapURLError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.contextError(ctx, timeout, err)
	}

	if c.debug {
		log.Debug().
			Int("status", resp.StatusCode).
			Int("bytes", len(body)).
			Dur("latency", time.Since(start)).
			Msg("Provider response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Int("status", resp.StatusCode).Msg("Provider returned error status")
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrProviderStatus, resp.StatusCode, truncate(body, maxErrorBody))
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrProviderPayload, len(body))
	}

	return json.RawMessage(body), nil
}

// contextError classifies a failure that may have been caused by the deadline
func (c *Client) contextError(ctx context.Context, timeout time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %v", domain.ErrProviderTimeout, timeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: request cancelled: %v", domain.ErrProviderUnavailable, err)
	}
	// The limiter refuses up front when the wait would outlive the deadline
	if strings.Contains(err.Error(), "would exceed context deadline") {
		return fmt.Errorf("%w after %s: %v", domain.ErrProviderTimeout, timeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
}

// unwrapURLError drops the *url.Error wrapper so the API key never ends up in messages
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// redact hides the API key in a request URL for logging
func redact(reqURL string) string {
	u, err := url.Parse(reqURL)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
