package helpers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/staff-auth/pkg/helpers"
)

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retried []int
	err := helpers.Retry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, func(attempt int, _ error) { retried = append(retried, attempt) })

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetry_ExhaustsAndReturnsLastError(t *testing.T) {
	calls := 0
	last := errors.New("still down")
	err := helpers.Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return last
	}, nil)

	assert.ErrorIs(t, err, last)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := helpers.Retry(ctx, 10, time.Hour, func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
