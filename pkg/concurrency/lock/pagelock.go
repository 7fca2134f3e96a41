package lock

import (
	"fmt"
	"sync"

	"heapdb/pkg/primitives"
)

// PageLock is a page-granular logical lock supporting shared and exclusive
// levels. Locks are held in terms of transactions instead of goroutines,
// although the implementation assumes a transaction runs on a single
// goroutine for its lifetime.
//
// Waiters park on per-request tickets. Wakeups after a release run a
// lottery: all shared waiters are signalled together (multiple readers can
// progress), while exclusive waiters are signalled one at a time in FIFO
// order to avoid a herd effect.
type PageLock struct {
	pid      primitives.PageID
	mu       sync.Mutex
	xHolder  *primitives.TransactionID
	sHolders map[*primitives.TransactionID]struct{}
	sPool    map[*ticket]struct{}
	xQueue   []*ticket
	detector *DeadlockDetector
}

// ticket is a waiter record binding a transaction to the channel it parks
// on. It lives only while the transaction blocks on this PageLock. The
// aborted flag is the detector's abort token; it is guarded by the owning
// PageLock's mutex.
type ticket struct {
	tid     *primitives.TransactionID
	ch      chan struct{}
	aborted bool
}

func newTicket(tid *primitives.TransactionID) *ticket {
	return &ticket{
		tid: tid,
		ch:  make(chan struct{}, 1),
	}
}

func (t *ticket) signal() {
	select {
	case t.ch <- struct{}{}:
	default:
	}
}

// NewPageLock creates the lock for a page. Exactly one PageLock exists per
// live page; it is created together with the page.
func NewPageLock(pid primitives.PageID, detector *DeadlockDetector) *PageLock {
	return &PageLock{
		pid:      pid,
		sHolders: make(map[*primitives.TransactionID]struct{}),
		sPool:    make(map[*ticket]struct{}),
		detector: detector,
	}
}

func (pl *PageLock) Pid() primitives.PageID {
	return pl.pid
}

// SLock blocks until tid holds a shared lock on this page. It returns at
// once if tid already holds the shared lock; an exclusive holder is granted
// the shared lock as well and is never downgraded. Returns ErrTransactionAborted when the deadlock detector cancels
// the wait.
func (pl *PageLock) SLock(tid *primitives.TransactionID) error {
	pl.mu.Lock()
	if pl.trySLock(tid) {
		pl.mu.Unlock()
		return nil
	}

	t := newTicket(tid)
	pl.sPool[t] = struct{}{}
	pl.mu.Unlock()
	pl.detector.WaitFor(tid, pl)

	for {
		<-t.ch
		pl.mu.Lock()
		if t.aborted {
			delete(pl.sPool, t)
			pl.mu.Unlock()
			pl.detector.Unwait(tid, pl)
			return ErrTransactionAborted
		}
		if pl.trySLock(tid) {
			pl.mu.Unlock()
			pl.detector.Unwait(tid, pl)
			return nil
		}
		// Lost the race against another acquirer; park again.
		pl.sPool[t] = struct{}{}
		pl.mu.Unlock()
	}
}

// XLock blocks until tid holds the exclusive lock on this page. It simply
// returns if tid already holds it. A shared-to-exclusive upgrade succeeds
// only while tid is the sole shared holder. Returns ErrTransactionAborted
// when the deadlock detector cancels the wait.
func (pl *PageLock) XLock(tid *primitives.TransactionID) error {
	pl.mu.Lock()
	if pl.tryXLock(tid) {
		pl.mu.Unlock()
		return nil
	}

	t := newTicket(tid)
	pl.xQueue = append(pl.xQueue, t)
	pl.mu.Unlock()
	pl.detector.WaitFor(tid, pl)

	for {
		<-t.ch
		pl.mu.Lock()
		if t.aborted {
			pl.removeXTicket(t)
			pl.mu.Unlock()
			pl.detector.Unwait(tid, pl)
			return ErrTransactionAborted
		}
		if pl.tryXLock(tid) {
			pl.mu.Unlock()
			pl.detector.Unwait(tid, pl)
			return nil
		}
		pl.xQueue = append(pl.xQueue, t)
		pl.mu.Unlock()
	}
}

// SUnlock releases tid's shared lock. Releasing a lock that is not held is
// a programmer error and panics.
func (pl *PageLock) SUnlock(tid *primitives.TransactionID) {
	pl.mu.Lock()
	if _, held := pl.sHolders[tid]; !held {
		pl.mu.Unlock()
		panic(fmt.Sprintf("transaction releasing a shared lock it does not hold, tid: %v", tid))
	}
	delete(pl.sHolders, tid)
	pl.lottery()
	pl.mu.Unlock()
}

// XUnlock releases tid's exclusive lock. Releasing a lock that is not held
// is a programmer error and panics.
func (pl *PageLock) XUnlock(tid *primitives.TransactionID) {
	pl.mu.Lock()
	if pl.xHolder != tid {
		pl.mu.Unlock()
		panic(fmt.Sprintf("transaction releasing an exclusive lock it does not hold, tid: %v", tid))
	}
	pl.xHolder = nil
	pl.lottery()
	pl.mu.Unlock()
}

// ReleaseAll removes tid from the holders in both modes, forfeits any
// tickets tid is waiting on, then runs the wakeup lottery. Called on commit
// and abort; assumes tid is not concurrently acquiring.
func (pl *PageLock) ReleaseAll(tid *primitives.TransactionID) {
	pl.mu.Lock()
	if pl.xHolder == tid {
		pl.xHolder = nil
	}
	delete(pl.sHolders, tid)

	for t := range pl.sPool {
		if t.tid == tid {
			delete(pl.sPool, t)
		}
	}
	remaining := pl.xQueue[:0]
	for _, t := range pl.xQueue {
		if t.tid != tid {
			remaining = append(remaining, t)
		}
	}
	pl.xQueue = remaining

	pl.lottery()
	pl.mu.Unlock()
	pl.detector.Unwait(tid, pl)
}

// HoldsLock reports whether tid holds this lock in any mode.
func (pl *PageLock) HoldsLock(tid *primitives.TransactionID) bool {
	return pl.HoldsSLock(tid) || pl.HoldsXLock(tid)
}

func (pl *PageLock) HoldsSLock(tid *primitives.TransactionID) bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	_, held := pl.sHolders[tid]
	return held
}

func (pl *PageLock) HoldsXLock(tid *primitives.TransactionID) bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.xHolder == tid
}

// IsHeld reports whether any transaction currently holds this lock.
func (pl *PageLock) IsHeld() bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.xHolder != nil || len(pl.sHolders) > 0
}

// Holders returns a snapshot of the current holders: the shared holders if
// any, otherwise the exclusive holder, otherwise empty.
func (pl *PageLock) Holders() []*primitives.TransactionID {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if len(pl.sHolders) > 0 {
		res := make([]*primitives.TransactionID, 0, len(pl.sHolders))
		for tid := range pl.sHolders {
			res = append(res, tid)
		}
		return res
	}
	if pl.xHolder != nil {
		return []*primitives.TransactionID{pl.xHolder}
	}
	return nil
}

// trySLock grants a shared lock if compatible. A transaction holding the
// exclusive lock is granted the shared lock without being downgraded.
// Callers must hold pl.mu.
func (pl *PageLock) trySLock(tid *primitives.TransactionID) bool {
	if _, held := pl.sHolders[tid]; held {
		return true
	}
	if pl.xHolder == nil || pl.xHolder == tid {
		pl.sHolders[tid] = struct{}{}
		return true
	}
	return false
}

// tryXLock grants the exclusive lock if compatible. The sole shared holder
// may upgrade. Callers must hold pl.mu.
func (pl *PageLock) tryXLock(tid *primitives.TransactionID) bool {
	if pl.xHolder == tid {
		return true
	}
	if pl.xHolder != nil {
		return false
	}
	if len(pl.sHolders) == 0 {
		pl.xHolder = tid
		return true
	}
	if _, held := pl.sHolders[tid]; held && len(pl.sHolders) == 1 {
		pl.xHolder = tid
		return true
	}
	return false
}

// lottery wakes waiters after a release. All shared waiters are signalled
// together; otherwise the exclusive waiter at the head of the FIFO queue is
// signalled alone. A steady stream of readers can starve exclusive waiters;
// that is a known limitation. Callers must hold pl.mu.
func (pl *PageLock) lottery() {
	if pl.xHolder != nil {
		return
	}
	if len(pl.sPool) > 0 {
		for t := range pl.sPool {
			t.signal()
		}
		clear(pl.sPool)
		return
	}
	if len(pl.xQueue) > 0 {
		winner := pl.xQueue[0]
		pl.xQueue = pl.xQueue[1:]
		winner.signal()
	}
}

// abortWaiter marks tid's parked tickets aborted and wakes them. Only a
// transaction actually blocked on this lock has tickets here, so an abort
// can never be delivered to a transaction running unrelated work. Called by
// the deadlock detector.
func (pl *PageLock) abortWaiter(tid *primitives.TransactionID) bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	found := false
	for t := range pl.sPool {
		if t.tid == tid {
			t.aborted = true
			t.signal()
			delete(pl.sPool, t)
			found = true
		}
	}
	remaining := pl.xQueue[:0]
	for _, t := range pl.xQueue {
		if t.tid == tid {
			t.aborted = true
			t.signal()
			found = true
			continue
		}
		remaining = append(remaining, t)
	}
	pl.xQueue = remaining
	return found
}

func (pl *PageLock) removeXTicket(t *ticket) {
	remaining := pl.xQueue[:0]
	for _, q := range pl.xQueue {
		if q != t {
			remaining = append(remaining, q)
		}
	}
	pl.xQueue = remaining
}
