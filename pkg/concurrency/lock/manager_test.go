package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapdb/pkg/primitives"
)

func newTestManager(t *testing.T) (*LockManager, *DeadlockDetector) {
	t.Helper()
	d := newTestDetector(t)
	return NewLockManager(d), d
}

func TestManagerGrabRecordsLock(t *testing.T) {
	lm, d := newTestManager(t)
	pl := NewPageLock(testPageID{1, 0}, d)
	tid := primitives.NewTransactionID()

	require.NoError(t, lm.GrabLock(tid, pl, false))

	assert.True(t, pl.HoldsSLock(tid))
	assert.Len(t, lm.Locks(tid), 1)
	assert.True(t, lm.IsLocked(pl))
}

func TestManagerReleaseAll(t *testing.T) {
	lm, d := newTestManager(t)
	p1 := NewPageLock(testPageID{1, 0}, d)
	p2 := NewPageLock(testPageID{1, 1}, d)
	tid := primitives.NewTransactionID()

	require.NoError(t, lm.GrabLock(tid, p1, false))
	require.NoError(t, lm.GrabLock(tid, p2, true))

	lm.ReleaseAll(tid)

	assert.False(t, p1.HoldsLock(tid))
	assert.False(t, p2.HoldsLock(tid))
	assert.Empty(t, lm.Locks(tid))
	assert.False(t, lm.IsLocked(p1))
	assert.False(t, lm.IsLocked(p2))
}

func TestManagerUnsafeReleaseDropsSingleLock(t *testing.T) {
	lm, d := newTestManager(t)
	p1 := NewPageLock(testPageID{1, 0}, d)
	p2 := NewPageLock(testPageID{1, 1}, d)
	tid := primitives.NewTransactionID()

	require.NoError(t, lm.GrabLock(tid, p1, false))
	require.NoError(t, lm.GrabLock(tid, p2, false))

	lm.UnsafeRelease(tid, p1)

	assert.False(t, p1.HoldsLock(tid))
	assert.True(t, p2.HoldsLock(tid))
	assert.Len(t, lm.Locks(tid), 1)
}

// The lock map must agree with the locks themselves: every recorded lock
// reports the transaction as a holder, and after ReleaseAll nothing does.
func TestManagerLockMapMatchesLockState(t *testing.T) {
	lm, d := newTestManager(t)
	tid := primitives.NewTransactionID()

	locks := make([]*PageLock, 5)
	for i := range locks {
		locks[i] = NewPageLock(testPageID{1, primitives.PageNumber(i)}, d)
		exclusive := i%2 == 0
		require.NoError(t, lm.GrabLock(tid, locks[i], exclusive))
	}

	held := lm.Locks(tid)
	assert.Len(t, held, len(locks))
	for _, pl := range held {
		assert.True(t, pl.HoldsLock(tid))
	}

	lm.ReleaseAll(tid)
	for _, pl := range locks {
		assert.False(t, pl.HoldsLock(tid))
	}
}

// Grabbing the same lock twice in the same mode leaves a single recorded
// hold and state identical to the first grant.
func TestManagerRepeatedGrabIsIdempotent(t *testing.T) {
	lm, d := newTestManager(t)
	pl := NewPageLock(testPageID{1, 0}, d)
	tid := primitives.NewTransactionID()

	require.NoError(t, lm.GrabLock(tid, pl, false))
	require.NoError(t, lm.GrabLock(tid, pl, false))

	assert.Len(t, lm.Locks(tid), 1)
	assert.Len(t, pl.Holders(), 1)
}
