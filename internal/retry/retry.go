// Package retry provides bounded retries with backoff for idempotent backend
// reads. Write and URL-issuance calls must never go through this package.
package retry

import (
	"context"
	"time"

	"github.com/upcastmedia/vodpipe/internal/apperr"
)

// Do runs fn up to attempts times, sleeping delay between attempts and
// doubling it each round. It stops early when fn succeeds, when the error is
// not worth repeating, or when ctx is done, and returns the last error seen.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !retryable(err) || i == attempts-1 {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
		delay *= 2
	}
	return err
}

// retryable reports whether another attempt could change the outcome.
func retryable(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.InvalidArgument, apperr.NotFound, apperr.Configuration:
		return false
	}
	return true
}
