package lock

import (
	"sync"

	"heapdb/pkg/primitives"
)

// LockManager tracks which page locks each transaction currently holds.
// The map itself is safe for concurrent access; each per-transaction set is
// mutated only by the owning transaction's goroutine, except during
// ReleaseAll, which assumes the transaction is no longer acquiring.
type LockManager struct {
	mu       sync.RWMutex
	lockMap  map[*primitives.TransactionID]map[*PageLock]struct{}
	detector *DeadlockDetector
}

func NewLockManager(detector *DeadlockDetector) *LockManager {
	return &LockManager{
		lockMap:  make(map[*primitives.TransactionID]map[*PageLock]struct{}),
		detector: detector,
	}
}

// GrabLock acquires lock in the requested mode on behalf of tid, blocking
// as needed, then records the lock under tid. Returns ErrTransactionAborted
// if the deadlock detector wounds tid while it waits.
func (lm *LockManager) GrabLock(tid *primitives.TransactionID, lock *PageLock, exclusive bool) error {
	var err error
	if exclusive {
		err = lock.XLock(tid)
	} else {
		err = lock.SLock(tid)
	}
	if err != nil {
		return err
	}

	lm.mu.Lock()
	if lm.lockMap[tid] == nil {
		lm.lockMap[tid] = make(map[*PageLock]struct{})
	}
	lm.lockMap[tid][lock] = struct{}{}
	lm.mu.Unlock()
	return nil
}

// UnsafeRelease drops tid's hold on a single lock before transaction end.
// The name reflects that callers bypass two-phase locking; they accept the
// consistency risk.
func (lm *LockManager) UnsafeRelease(tid *primitives.TransactionID, lock *PageLock) {
	lock.ReleaseAll(tid)

	lm.mu.Lock()
	if held, ok := lm.lockMap[tid]; ok {
		delete(held, lock)
		if len(held) == 0 {
			delete(lm.lockMap, tid)
		}
	}
	lm.mu.Unlock()
}

// ReleaseAll releases every lock tid holds and forgets the transaction.
// Called on commit and abort.
func (lm *LockManager) ReleaseAll(tid *primitives.TransactionID) {
	lm.detector.UnwaitAll(tid)

	lm.mu.Lock()
	held := lm.lockMap[tid]
	delete(lm.lockMap, tid)
	lm.mu.Unlock()

	for lock := range held {
		lock.ReleaseAll(tid)
	}
}

// IsLocked reports whether any transaction currently holds the page's lock.
// Eviction uses this to enforce the no-steal policy.
func (lm *LockManager) IsLocked(lock *PageLock) bool {
	return lock.IsHeld()
}

// Locks returns a snapshot of the locks tid currently holds.
func (lm *LockManager) Locks(tid *primitives.TransactionID) []*PageLock {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	res := make([]*PageLock, 0, len(lm.lockMap[tid]))
	for lock := range lm.lockMap[tid] {
		res = append(res, lock)
	}
	return res
}
