package client

import (
	"context"
	"time"
)

// RetryConfig bounds one generation invocation: a hard per-attempt timeout
// and a small number of retries with doubling backoff. Only timeouts and an
// upstream 504 are retried.
type RetryConfig struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	Backoff        time.Duration
}

// DefaultRetryConfig is the policy applied to every generation call.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		AttemptTimeout: 25 * time.Second,
		Backoff:        500 * time.Millisecond,
	}
}

type retryingCompleter struct {
	inner Completer
	cfg   RetryConfig
}

// WithRetry wraps a completer with the bounded retry/timeout policy.
func WithRetry(inner Completer, cfg RetryConfig) Completer {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &retryingCompleter{inner: inner, cfg: cfg}
}

func (r *retryingCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	backoff := r.cfg.Backoff
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if r.cfg.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, r.cfg.AttemptTimeout)
		}

		text, err := r.inner.Complete(attemptCtx, systemPrompt, userPrompt)
		cancel()
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == r.cfg.MaxAttempts {
			break
		}
		// The parent context going away means the caller gave up; stop early.
		if ctx.Err() != nil {
			break
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		backoff *= 2
	}

	return "", lastErr
}
