package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries      = 3
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 10 * time.Second
)

// RetryConfig bounds the retry behavior of a retrying provider.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = defaultInitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = defaultMaxInterval
	}
	return c
}

type retryProvider struct {
	inner  Provider
	cfg    RetryConfig
	logger *zap.Logger
}

// WithRetry wraps a provider with bounded exponential backoff. Only
// ErrUnavailable failures are retried; everything else fails immediately.
// Cancelling the context aborts in-flight waits.
func WithRetry(inner Provider, cfg RetryConfig, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryProvider{inner: inner, cfg: cfg.withDefaults(), logger: logger}
}

func (r *retryProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.cfg.MaxRetries)), ctx)

	var vec []float32
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++

		var embedErr error
		vec, embedErr = r.inner.Embed(ctx, text)
		if embedErr == nil {
			return nil
		}

		if !errors.Is(embedErr, ErrUnavailable) {
			return backoff.Permanent(embedErr)
		}

		r.logger.Warn("embedding attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", r.cfg.MaxRetries),
			zap.Error(embedErr),
		)
		return embedErr
	}, policy)
	if err != nil {
		return nil, err
	}

	return vec, nil
}

func (r *retryProvider) Model() string { return r.inner.Model() }
