// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v66/github"
)

// RetryConfig defines the retry behavior for API calls
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

// DefaultRetryConfig returns 3 retries starting at 100ms, doubling up to 30s
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
	}
}

// rateLimitBackOff prefers a server-provided wait over the exponential schedule
type rateLimitBackOff struct {
	backoff.BackOff
	next time.Duration
}

func (b *rateLimitBackOff) NextBackOff() time.Duration {
	if b.next > 0 {
		d := b.next
		b.next = 0
		return d
	}
	return b.BackOff.NextBackOff()
}

// executeWithRetry executes an operation with exponential backoff retry
func (c *Client) executeWithRetry(ctx context.Context, method string, operation func() error) error {
	if c.retryConfig == nil || c.retryConfig.MaxRetries <= 0 {
		if err := c.wait(ctx); err != nil {
			return err
		}
		return operation()
	}

	schedule := &rateLimitBackOff{BackOff: c.newBackOff()}
	attempts := 0

	op := func() error {
		if err := c.wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		attempts++

		err := operation()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if !c.isRetryableError(err) {
			return backoff.Permanent(err)
		}
		if d, ok := retryAfter(err); ok && d <= c.retryConfig.MaxBackoff {
			schedule.next = d
		}
		return err
	}

	notify := func(err error, d time.Duration) {
		c.logger.Info("Retrying GitHub API request", "method", method, "attempt", attempts, "backoff", d, "error", err.Error())
		if c.metrics != nil {
			c.metrics.retries.WithLabelValues(method).Inc()
		}
	}

	b := backoff.WithContext(backoff.WithMaxRetries(schedule, uint64(c.retryConfig.MaxRetries)), ctx)
	err := backoff.RetryNotify(op, b, notify)
	if err != nil && attempts > c.retryConfig.MaxRetries && c.isRetryableError(err) {
		return fmt.Errorf("operation failed after %d retries: %w", c.retryConfig.MaxRetries, err)
	}
	return err
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryConfig.InitialBackoff
	b.MaxInterval = c.retryConfig.MaxBackoff
	b.Multiplier = c.retryConfig.BackoffFactor
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// isRetryableError determines if an error should trigger a retry
func (c *Client) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var rlErr *github.RateLimitError
	if errors.As(err, &rlErr) {
		// Waiting out a primary limit is only worth it when the reset is near
		d := time.Until(rlErr.Rate.Reset.Time)
		return d <= c.retryConfig.MaxBackoff
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		case http.StatusForbidden:
			if ghErr.Message == "API rate limit exceeded" {
				return true
			}
		}
	}

	return false
}

// retryAfter extracts a server-mandated wait from a rate limit error
func retryAfter(err error) (time.Duration, bool) {
	var rlErr *github.RateLimitError
	if errors.As(err, &rlErr) {
		if d := time.Until(rlErr.Rate.Reset.Time); d > 0 {
			return d, true
		}
		return 0, false
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.RetryAfter != nil {
		return *abuseErr.RetryAfter, true
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		return checkRateLimit(ghErr.Response)
	}

	return 0, false
}

// checkRateLimit checks response headers for rate limit information
func checkRateLimit(resp *http.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}

	if secs := resp.Header.Get("Retry-After"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil && n > 0 {
			return time.Duration(n) * time.Second, true
		}
	}

	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining == "0" {
		if resetStr := resp.Header.Get("X-RateLimit-Reset"); resetStr != "" {
			if resetTime, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
				if wait := time.Until(time.Unix(resetTime, 0)); wait > 0 {
					return wait, true
				}
			}
		}
	}

	return 0, false
}
