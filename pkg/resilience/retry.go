// Package resilience provides the fault tolerance layer around outbound
// calls to legacy endpoints: bounded exponential-backoff retry and an
// optional circuit breaker.
package resilience

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy defines the bounded exponential backoff applied between
// failed attempts. MaxRetries counts retries after the first attempt,
// so an operation is attempted at most MaxRetries+1 times.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// RetryIf decides whether a failure is eligible for another attempt.
	// Defaults to retrying every failure.
	RetryIf func(err error) bool

	// OnRetry is called before each backoff sleep with the attempt index
	// (0-based), the error that caused it and the upcoming delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryPolicy matches the adapter defaults: three retries,
// 1s initial delay doubling up to a 10s cap.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// Retryer executes operations under a RetryPolicy.
type Retryer struct {
	policy *RetryPolicy
}

// NewRetryer creates a retryer, normalizing out-of-range policy values.
func NewRetryer(policy *RetryPolicy) *Retryer {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}

	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 1 * time.Second
	}
	if policy.MaxDelay < policy.InitialDelay {
		policy.MaxDelay = policy.InitialDelay
	}
	if policy.Multiplier < 1 {
		policy.Multiplier = 1
	}
	if policy.RetryIf == nil {
		policy.RetryIf = func(err error) bool { return err != nil }
	}

	return &Retryer{policy: policy}
}

// Policy returns the normalized policy.
func (r *Retryer) Policy() *RetryPolicy { return r.policy }

// Do executes fn with retry.
func (r *Retryer) Do(fn func() error) error {
	return r.DoWithContext(context.Background(), func(ctx context.Context) error {
		return fn()
	})
}

// DoWithContext executes fn under the retry policy. The backoff sleep is
// a suspension point: cancellation of ctx aborts the wait. Only the
// error of the final failed attempt is surfaced; earlier errors are
// discarded.
func (r *Retryer) DoWithContext(ctx context.Context, fn func(context.Context) error) error {
	delay := r.policy.InitialDelay

	var lastErr error
	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.policy.RetryIf(err) {
			return err
		}

		if attempt == r.policy.MaxRetries {
			break
		}

		if r.policy.OnRetry != nil {
			r.policy.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = r.nextDelay(delay)
	}

	return &RetryError{
		Err:      lastErr,
		Attempts: r.policy.MaxRetries + 1,
	}
}

// nextDelay grows the delay multiplicatively, capped at MaxDelay.
// There is no jitter: the sequence is deterministic and non-decreasing.
func (r *Retryer) nextDelay(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * r.policy.Multiplier)
	if next > r.policy.MaxDelay {
		return r.policy.MaxDelay
	}
	return next
}

// RetryError is returned when every attempt failed.
type RetryError struct {
	Err      error
	Attempts int
}

func (e *RetryError) Error() string {
	return e.Err.Error()
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// RetryableErrors returns a RetryIf that retries only on the given errors.
func RetryableErrors(errs ...error) func(error) bool {
	return func(err error) bool {
		for _, e := range errs {
			if errors.Is(err, e) {
				return true
			}
		}
		return false
	}
}

// NonRetryableErrors returns a RetryIf that gives up on the given errors.
func NonRetryableErrors(errs ...error) func(error) bool {
	return func(err error) bool {
		for _, e := range errs {
			if errors.Is(err, e) {
				return false
			}
		}
		return err != nil
	}
}
