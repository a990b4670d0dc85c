package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/upcastmedia/vodpipe/internal/apperr"
)

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return apperr.New(apperr.Upstream, "flaky")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsAtAttemptCap(t *testing.T) {
	calls := 0
	boom := apperr.New(apperr.Upstream, "still down")
	err := Do(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return boom
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, 3, calls)
}

func TestDoDoesNotRetryTerminalKinds(t *testing.T) {
	for _, kind := range []apperr.Kind{apperr.NotFound, apperr.InvalidArgument, apperr.Configuration} {
		calls := 0
		err := Do(context.Background(), 3, time.Millisecond, func() error {
			calls++
			return apperr.New(kind, "terminal")
		})
		assert.True(t, apperr.IsKind(err, kind))
		assert.Equal(t, 1, calls, kind.String())
	}
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, 5, time.Minute, func() error {
		calls++
		return errors.New("down")
	})
	assert.EqualError(t, err, "down")
	assert.Equal(t, 1, calls)
}

func TestDoClampsAttempts(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), 0, time.Millisecond, func() error {
		calls++
		return errors.New("down")
	})
	assert.Equal(t, 1, calls)
}
