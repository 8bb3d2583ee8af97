package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/punchdash/internal/service"
)

// ErrMaxRetries indicates that all retry attempts have been exhausted.
var ErrMaxRetries = errors.New("max retries exceeded")

// RetryableError marks a backend failure as worth retrying or not.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// backoff yields exponentially growing delays capped at max.
type backoff struct {
	next       time.Duration
	max        time.Duration
	multiplier float64
}

func newBackoff(opts service.RetryOptions) *backoff {
	return &backoff{next: opts.InitialDelay, max: opts.MaxDelay, multiplier: opts.Multiplier}
}

func (b *backoff) delay() time.Duration {
	d := b.next
	b.next = min(time.Duration(float64(b.next)*b.multiplier), b.max)
	return d
}

func withDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 5 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}
	return opts
}

// WithRetry runs operation until it succeeds, the attempts run out or ctx is
// done. Errors marked non-retryable and context errors end the loop at once.
func WithRetry(ctx context.Context, operation func(context.Context) error, opts service.RetryOptions) error {
	opts = withDefaults(opts)
	wait := newBackoff(opts)

	for attempt := 1; ; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}

		var retryableErr *RetryableError
		if errors.As(err, &retryableErr) && !retryableErr.Retryable {
			return err
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, err)
		}

		delay := wait.delay()
		slog.Warn("Backend request failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
