package lock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapdb/pkg/primitives"
)

type testPageID struct {
	table primitives.TableID
	page  primitives.PageNumber
}

func (p testPageID) GetTableID() primitives.TableID { return p.table }
func (p testPageID) PageNo() primitives.PageNumber  { return p.page }
func (p testPageID) Serialize() []byte              { return nil }
func (p testPageID) String() string                 { return "testPageID" }
func (p testPageID) HashCode() primitives.HashCode  { return primitives.HashCode(p.table) }
func (p testPageID) Equals(other primitives.PageID) bool {
	return other != nil && p.table == other.GetTableID() && p.page == other.PageNo()
}

func newTestLock(t *testing.T) (*PageLock, *DeadlockDetector) {
	t.Helper()
	detector := NewDeadlockDetector(DetectionInterval, DetectionThreshold, nil)
	t.Cleanup(detector.Stop)
	return NewPageLock(testPageID{1, 0}, detector), detector
}

func TestPageLockSharedIsIdempotent(t *testing.T) {
	pl, _ := newTestLock(t)
	tid := primitives.NewTransactionID()

	require.NoError(t, pl.SLock(tid))
	require.NoError(t, pl.SLock(tid))

	assert.True(t, pl.HoldsSLock(tid))
	pl.SUnlock(tid)
	assert.False(t, pl.HoldsSLock(tid))
	assert.False(t, pl.IsHeld())
}

func TestPageLockReleaseThenReacquire(t *testing.T) {
	pl, _ := newTestLock(t)
	tid := primitives.NewTransactionID()

	require.NoError(t, pl.XLock(tid))
	assert.True(t, pl.HoldsXLock(tid))

	pl.XUnlock(tid)
	assert.False(t, pl.HoldsXLock(tid))

	require.NoError(t, pl.SLock(tid))
	assert.True(t, pl.HoldsSLock(tid))

	pl.SUnlock(tid)
	assert.False(t, pl.HoldsSLock(tid))
}

func TestPageLockMultipleSharedHolders(t *testing.T) {
	pl, _ := newTestLock(t)
	tids := []*primitives.TransactionID{
		primitives.NewTransactionID(),
		primitives.NewTransactionID(),
		primitives.NewTransactionID(),
	}

	done := make(chan *primitives.TransactionID, len(tids))
	for _, tid := range tids {
		go func(tid *primitives.TransactionID) {
			if err := pl.SLock(tid); err == nil {
				done <- tid
			}
		}(tid)
	}

	for range tids {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("shared acquisitions did not all complete")
		}
	}

	for _, tid := range tids {
		assert.True(t, pl.HoldsSLock(tid))
		assert.False(t, pl.HoldsXLock(tid))
	}
	assert.Len(t, pl.Holders(), 3)
}

func TestPageLockExclusiveExcludes(t *testing.T) {
	pl, _ := newTestLock(t)
	holder := primitives.NewTransactionID()
	require.NoError(t, pl.XLock(holder))

	readers := []*primitives.TransactionID{
		primitives.NewTransactionID(),
		primitives.NewTransactionID(),
		primitives.NewTransactionID(),
	}
	writers := []*primitives.TransactionID{
		primitives.NewTransactionID(),
		primitives.NewTransactionID(),
		primitives.NewTransactionID(),
	}

	// Each waiter releases as soon as it acquires, so the whole queue can
	// drain once the holder lets go.
	var wg sync.WaitGroup
	for _, tid := range readers {
		wg.Add(1)
		go func(tid *primitives.TransactionID) {
			defer wg.Done()
			if err := pl.SLock(tid); err == nil {
				pl.ReleaseAll(tid)
			}
		}(tid)
	}
	for _, tid := range writers {
		wg.Add(1)
		go func(tid *primitives.TransactionID) {
			defer wg.Done()
			if err := pl.XLock(tid); err == nil {
				pl.ReleaseAll(tid)
			}
		}(tid)
	}

	time.Sleep(100 * time.Millisecond)
	for _, tid := range readers {
		assert.False(t, pl.HoldsSLock(tid), "reader acquired while X held")
	}
	for _, tid := range writers {
		assert.False(t, pl.HoldsXLock(tid), "writer acquired while X held")
	}

	pl.ReleaseAll(holder)

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(5 * time.Second):
		t.Fatal("waiters did not all acquire after release")
	}
	assert.False(t, pl.IsHeld())
}

func TestPageLockUpgradeSoleSharedHolder(t *testing.T) {
	pl, _ := newTestLock(t)
	tid := primitives.NewTransactionID()

	require.NoError(t, pl.SLock(tid))
	require.NoError(t, pl.XLock(tid))

	assert.True(t, pl.HoldsXLock(tid))
	// No downgrade: the shared hold survives the upgrade.
	assert.True(t, pl.HoldsSLock(tid))
}

func TestPageLockNoUpgradeWithOtherReaders(t *testing.T) {
	pl, _ := newTestLock(t)
	t1 := primitives.NewTransactionID()
	t2 := primitives.NewTransactionID()

	require.NoError(t, pl.SLock(t1))
	require.NoError(t, pl.SLock(t2))

	acquired := make(chan struct{})
	go func() {
		if err := pl.XLock(t1); err == nil {
			close(acquired)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("upgrade succeeded while another transaction held a shared lock")
	case <-time.After(100 * time.Millisecond):
	}

	pl.SUnlock(t2)
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("upgrade did not complete after the other reader released")
	}
	assert.True(t, pl.HoldsXLock(t1))
}

func TestPageLockXHolderGetsSharedWithoutDowngrade(t *testing.T) {
	pl, _ := newTestLock(t)
	tid := primitives.NewTransactionID()

	require.NoError(t, pl.XLock(tid))
	require.NoError(t, pl.SLock(tid))

	assert.True(t, pl.HoldsXLock(tid))
	assert.True(t, pl.HoldsSLock(tid))
}

func TestPageLockUnlockNotHeldPanics(t *testing.T) {
	pl, _ := newTestLock(t)
	tid := primitives.NewTransactionID()

	assert.Panics(t, func() { pl.SUnlock(tid) })
	assert.Panics(t, func() { pl.XUnlock(tid) })
}

func TestPageLockReleaseAllClearsHoldersAndWaiters(t *testing.T) {
	pl, _ := newTestLock(t)
	holder := primitives.NewTransactionID()

	require.NoError(t, pl.XLock(holder))
	pl.ReleaseAll(holder)

	assert.False(t, pl.HoldsLock(holder))
	assert.False(t, pl.IsHeld())
	assert.Empty(t, pl.Holders())
}
