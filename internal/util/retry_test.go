package util

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestIsLockError(t *testing.T) {
	assert.False(t, IsLockError(nil))
	assert.False(t, IsLockError(errors.New("no such table")))
	assert.True(t, IsLockError(errors.New("database is locked")))
	assert.True(t, IsLockError(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, IsLockError(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.False(t, IsLockError(sqlite3.Error{Code: sqlite3.ErrConstraint}))
}

func TestRetryOnLock_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := RetryOnLock(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryOnLock_OtherErrorsAreNotRetried(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := RetryOnLock(context.Background(), func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryOnLock_GivesUp(t *testing.T) {
	calls := 0
	err := RetryOnLock(context.Background(), func() error {
		calls++
		return errors.New("database is locked")
	})
	assert.True(t, IsLockError(err))
	assert.Equal(t, maxLockRetries, calls)
}

func TestRetryOnLock_NoWaitAfterLastAttempt(t *testing.T) {
	var waits []time.Duration
	orig := lockBackoff
	lockBackoff = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	t.Cleanup(func() { lockBackoff = orig })

	calls := 0
	err := RetryOnLock(context.Background(), func() error {
		calls++
		return errors.New("database is locked")
	})
	assert.True(t, IsLockError(err))
	assert.Equal(t, maxLockRetries, calls)
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}, waits)
}

func TestRetryOnLockWithResult_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RetryOnLockWithResult(ctx, func() (int, error) {
		return 0, errors.New("database is locked")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
