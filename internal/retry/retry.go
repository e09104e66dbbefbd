// Package retry runs outbound HTTP calls under one exponential backoff
// policy shared by the completion client and the feed fetcher.
package retry

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultInterval = 500 * time.Millisecond

// Policy bounds retries of transient failures.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Interval is the first backoff delay; it doubles on every retry.
	Interval time.Duration
}

// Do calls op until it succeeds, returns a Permanent error, runs out of
// retries or ctx ends. attempt counts from 1. A Permanent error is returned
// unwrapped.
func (p Policy) Do(ctx context.Context, op func(attempt int) error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.Interval
	if exp.InitialInterval <= 0 {
		exp.InitialInterval = defaultInterval
	}
	exp.Multiplier = 2
	exp.Reset()

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		return op(attempt)
	}, backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx))
}

// Permanent stops Do without further attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Transient reports whether an HTTP status is worth another attempt.
func Transient(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
