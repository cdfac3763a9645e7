package housekeeping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	cutoff time.Time
	n      int64
	err    error
	calls  chan struct{}
}

func (f *fakeCleaner) clean(cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	if f.calls != nil {
		select {
		case f.calls <- struct{}{}:
		default:
		}
	}
	return f.n, f.err
}

type fakeAccounts struct{ fakeCleaner }

func (f *fakeAccounts) DeleteStaleAccounts(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.clean(cutoff)
}

type fakeInvitations struct{ fakeCleaner }

func (f *fakeInvitations) DeleteStaleInvitations(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.clean(cutoff)
}

func TestRunOnce(t *testing.T) {
	accounts := &fakeAccounts{fakeCleaner{n: 2}}
	invitations := &fakeInvitations{fakeCleaner{n: 1}}
	s := NewHousekeepingService(accounts, invitations, 72*time.Hour)

	before := time.Now().UTC()
	require.NoError(t, s.RunOnce(context.Background()))

	assert.WithinDuration(t, before.Add(-72*time.Hour), accounts.cutoff, 2*time.Second)
	assert.WithinDuration(t, before.Add(-InvitationMaxAge), invitations.cutoff, 2*time.Second)
}

func TestRunOnce_StopsOnError(t *testing.T) {
	boom := errors.New("database is locked")
	accounts := &fakeAccounts{fakeCleaner{err: boom}}
	invitations := &fakeInvitations{}
	s := NewHousekeepingService(accounts, invitations, time.Hour)

	assert.ErrorIs(t, s.RunOnce(context.Background()), boom)
	assert.True(t, invitations.cutoff.IsZero())
}

func TestRun_StopsWhenDone(t *testing.T) {
	invitations := &fakeInvitations{fakeCleaner{calls: make(chan struct{}, 1)}}
	s := NewHousekeepingService(&fakeAccounts{}, invitations, time.Hour)
	s.Interval = 10 * time.Millisecond

	done := make(chan bool)
	finished := make(chan struct{})
	go func() {
		s.Run(done)
		close(finished)
	}()

	select {
	case <-invitations.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("housekeeping did not run")
	}
	close(done)

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("housekeeping did not stop")
	}
}
