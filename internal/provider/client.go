package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"dexflow/config"
	"dexflow/logger"
)

// statusError is returned for non-2xx responses so callers and the retry loop
// can distinguish rate limits and server errors from permanent failures.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

func retryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	// Network level failures are always worth retrying.
	return true
}

// Client is the shared HTTP client for all data providers. Every request is
// rate limited and retried with exponential backoff (base delay doubling per
// attempt up to the configured ceiling) before a failure is surfaced.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	retry   config.RetryConfig
	log     *logger.Log
}

func NewClient(cfg config.ProvidersConfig) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.BurstSize),
		retry:   cfg.Retry,
		log:     logger.GetLogger(),
	}
}

// GetJSON issues a GET request and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string, query url.Values, out interface{}) error {
	return c.doWithRetry(ctx, func() (*http.Request, error) {
		u := rawURL
		if len(query) > 0 {
			u = rawURL + "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}, out)
}

// PostJSON issues a POST request with a JSON body and decodes the response.
func (c *Client) PostJSON(ctx context.Context, rawURL string, headers map[string]string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}, out)
}

func (c *Client) doWithRetry(ctx context.Context, build func() (*http.Request, error), out interface{}) error {
	log := c.log.WithComponent("provider_client")

	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			log.WithFields(logger.Fields{
				"attempt": attempt,
				"delay":   delay.String(),
			}).Debug("retrying provider request")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := build()
		if err != nil {
			return err
		}

		lastErr = c.doOnce(req, out)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

func (c *Client) doOnce(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{Code: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// backoff doubles the base delay per attempt, capped at the configured maximum.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.retry.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.retry.MaxDelay {
			return c.retry.MaxDelay
		}
	}
	if c.retry.MaxDelay > 0 && delay > c.retry.MaxDelay {
		return c.retry.MaxDelay
	}
	return delay
}
