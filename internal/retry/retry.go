// Package retry provides an explicit retry policy value consumed by a
// generic retrying wrapper. The collector and the evaluator carry
// different policies but share this mechanism.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"creatorscore/internal/config"
)

// Policy describes one backoff discipline.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64
	MaxDelay    time.Duration
}

// FromConfig converts the YAML tuning block into a Policy.
func FromConfig(c config.RetryConfig) Policy {
	return Policy{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   time.Duration(c.BaseDelayMs) * time.Millisecond,
		Factor:      c.BackoffFactor,
		MaxDelay:    time.Duration(c.MaxDelayMs) * time.Millisecond,
	}
}

// Delay returns the backoff before the given retry (attempt is
// zero-based: 0 means the delay after the first failure), capped at
// MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Factor, float64(attempt)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

type transientError struct {
	err   error
	after time.Duration
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// TransientAfter marks err as retryable with a server-suggested wait,
// e.g. from a Retry-After header.
func TransientAfter(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err, after: after}
}

// IsTransient reports whether err was marked retryable.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// RetryableStatus reports whether an HTTP status is worth retrying
// under the evaluator's policy: rate limits and server-side failures.
func RetryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// Do invokes fn until it succeeds, fails permanently, or the policy is
// exhausted. Only errors marked Transient are retried; the wait honors
// a server-suggested delay when present, otherwise exponential backoff
// with ±20% jitter.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
		if attempt == p.MaxAttempts-1 {
			break
		}
		wait := p.Delay(attempt)
		var te *transientError
		if errors.As(err, &te) && te.after > 0 {
			wait = te.after
		}
		wait = jitter(wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", p.MaxAttempts, lastErr)
}

// jitter spreads a wait by ±20% to avoid thundering retries.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	span := time.Duration(float64(d) * 0.2)
	if span <= 0 {
		return d
	}
	return d - span + time.Duration(time.Now().UnixNano()%int64(2*span))
}
