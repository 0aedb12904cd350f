package retry

import (
	"context"
	"time"

	retrygo "github.com/avast/retry-go/v4"
	logger "github.com/sirupsen/logrus"
)

const (
	DefaultAttempts = 5
	DefaultDelay    = 100 * time.Millisecond
)

// Policy bounds how a single call is retried.
type Policy struct {
	Attempts uint
	Delay    time.Duration
	// Backoff doubles the delay after every failed attempt instead of keeping it fixed.
	Backoff bool
	// Retryable reports whether a failure may be retried. Nil retries everything.
	Retryable func(error) bool
}

// DefaultPolicy is five attempts with a fixed 100ms pause.
func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultAttempts, Delay: DefaultDelay}
}

// Do runs fn until it succeeds, the policy is exhausted or fn fails with a
// non-retryable error. The error returned is the last one fn produced, as is.
func Do[T any](ctx context.Context, policy Policy, op string, fn func() (T, error)) (T, error) {
	attempts := policy.Attempts
	if attempts == 0 {
		attempts = 1
	}

	delayType := retrygo.FixedDelay
	if policy.Backoff {
		delayType = retrygo.BackOffDelay
	}

	var lastErr error
	result, err := retrygo.DoWithData(
		func() (T, error) {
			v, err := fn()
			if err != nil {
				lastErr = err
			}
			return v, err
		},
		retrygo.Context(ctx),
		retrygo.Attempts(attempts),
		retrygo.Delay(policy.Delay),
		retrygo.DelayType(delayType),
		retrygo.LastErrorOnly(true),
		retrygo.RetryIf(func(err error) bool {
			return policy.Retryable == nil || policy.Retryable(err)
		}),
		retrygo.OnRetry(func(n uint, err error) {
			logger.WithFields(logger.Fields{
				"op":      op,
				"attempt": n + 1,
				"of":      attempts,
			}).WithError(err).Warn("call failed, retrying")
		}),
	)
	if err == nil {
		return result, nil
	}

	if lastErr == nil {
		// fn never ran, the context was already done
		var zero T
		return zero, err
	}

	logger.WithFields(logger.Fields{
		"op":       op,
		"attempts": attempts,
	}).WithError(lastErr).Error("call failed")

	var zero T
	return zero, lastErr
}
