package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/worker"
)

// retrySleepFunc waits between attempts; replaced in tests
var retrySleepFunc = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy bounds the exponential backoff applied to every call
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// RetryPolicyFromModel converts model.RetryConfig
func RetryPolicyFromModel(c model.RetryConfig) RetryPolicy {
	return RetryPolicy{MaxRetries: c.MaxRetries, BaseDelay: c.BaseDelay, MaxDelay: c.MaxDelay}
}

// Backoff returns min(base * 2^attempt, max)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Client wraps a Provider with the shared rate budget and retry policy.
// Each call retries independently; exhausting the ceiling fails only that call.
type Client struct {
	provider Provider
	limiter  *worker.Limiter
	policy   RetryPolicy
	logger   *slog.Logger
}

// NewClient creates a client. limiter and logger may be nil.
func NewClient(provider Provider, limiter *worker.Limiter, policy RetryPolicy, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		provider: provider,
		limiter:  limiter,
		policy:   policy,
		logger:   logger,
	}
}

// Provider returns the wrapped provider name
func (c *Client) Provider() string {
	return c.provider.Name()
}

// Complete runs one request with rate limiting and bounded retries
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	key := "llm:" + c.provider.Name()
	logger := c.logger.With(
		"req_id", model.RequestID(ctx),
		"call_id", uuid.NewString(),
		"tag", req.Tag,
		"provider", c.provider.Name(),
	)

	var lastErr error
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, key); err != nil {
				return nil, fmt.Errorf("%s: rate limiter: %w", req.Tag, err)
			}
		}

		start := time.Now()
		resp, err := c.provider.Complete(ctx, req)
		if err == nil {
			logger.Debug("llm.request.done",
				"attempt", attempt+1,
				"model", resp.Model,
				"tokens", resp.TokensUsed,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) || attempt == c.policy.MaxRetries {
			break
		}

		delay := c.policy.Backoff(attempt)
		logger.Warn("llm.request.retry", "attempt", attempt+1, "delay", delay, "error", err)
		if err := retrySleepFunc(ctx, delay); err != nil {
			return nil, fmt.Errorf("%s: %w", req.Tag, err)
		}
	}

	logger.Error("llm.request.failed", "error", lastErr)
	return nil, fmt.Errorf("%s: %w", req.Tag, lastErr)
}
