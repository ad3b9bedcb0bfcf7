// Package httpclient is the rate-limited, retrying JSON GET client shared by
// the structured supplier APIs.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tradeflow/backend/internal/domain"
)

const maxBodyBytes = 5 << 20

// StatusError captures a non-2xx upstream response
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Provider, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error {
	return domain.ErrSourceFailure
}

// Config holds client settings
type Config struct {
	Name          string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MaxAttempts   int
	UserAgent     string
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// Client executes GET requests against one upstream provider
type Client struct {
	name        string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	maxAttempts int
	userAgent   string
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
}

// New creates a client. Zero values fall back to 30s timeout, 1 req/s, 3 attempts.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "TradeFlow-SupplierSearch/1.0"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		name:        cfg.Name,
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		maxAttempts: attempts,
		userAgent:   userAgent,
		backoff:     exponentialBackoff,
		logger:      logger,
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// GetJSON fetches reqURL and returns the response body.
// Transport errors, 429 and 5xx responses are retried; other 4xx are not.
func (c *Client) GetJSON(ctx context.Context, reqURL string, header http.Header) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, retry, err := c.do(ctx, reqURL, header)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			return nil, err
		}

		c.logger.Debug("retrying request",
			zap.String("provider", c.name),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, reqURL string, header http.Header) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create %s request: %w", c.name, err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, err
		}
		return nil, true, fmt.Errorf("%w: %s: %v", domain.ErrSourceFailure, c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read %s response: %w", c.name, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := &StatusError{Provider: c.name, Status: resp.StatusCode, Body: summarize(body)}
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		return nil, retry, statusErr
	}

	return body, false, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func summarize(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
