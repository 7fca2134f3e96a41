package memory

import (
	"sync"

	"github.com/sirupsen/logrus"

	"heapdb/pkg/concurrency/lock"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage"
	"heapdb/pkg/tuple"
)

// DefaultPages is the pool capacity used by default constructors.
const DefaultPages = 50

// Catalog resolves table ids to their backing files. The buffer pool keeps
// a reference instead of going through process-global state.
type Catalog interface {
	GetDbFile(tableID primitives.TableID) (storage.DbFile, error)
}

// BufferPool caches pages read from heap files and is the entry point for
// all page access by query operators. When a transaction fetches a page the
// pool acquires the mode-appropriate page lock on its behalf, blocking as
// needed; the deadlock detector breaks wait cycles by wounding the youngest
// waiter.
//
// The pool enforces NO-STEAL (dirty pages of uncommitted transactions are
// never written to disk, and never evicted) and FORCE (a committing
// transaction's dirty pages are flushed synchronously).
//
// The internal monitor guards only the page map and the MRU tracker. Page
// locks are always acquired outside it: blocking on a page lock while
// holding the monitor would serialize the whole engine.
type BufferPool struct {
	maxNumPages int
	pages       map[primitives.PageID]storage.Page
	mru         *MRUList[primitives.PageID]
	lockManager *lock.LockManager
	catalog     Catalog
	logger      *logrus.Logger
	mu          sync.Mutex // pool monitor: guards pages and mru only
}

// NewBufferPool creates a pool caching up to numPages pages.
func NewBufferPool(numPages int, catalog Catalog, detector *lock.DeadlockDetector, logger *logrus.Logger) *BufferPool {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BufferPool{
		maxNumPages: numPages,
		pages:       make(map[primitives.PageID]storage.Page),
		mru:         NewMRUList[primitives.PageID](numPages),
		lockManager: lock.NewLockManager(detector),
		catalog:     catalog,
		logger:      logger,
	}
}

// GetPage retrieves the page with the requested permissions on behalf of
// tid, blocking until the mode-appropriate lock is granted. On a miss the
// page is read from disk, evicting if the pool is full. Returns a DbError
// when the read or the eviction fails and ErrTransactionAborted when the
// deadlock detector wounds tid during the lock wait.
func (bp *BufferPool) GetPage(tid *primitives.TransactionID, pid primitives.PageID, perm storage.Permissions) (storage.Page, error) {
	bp.mu.Lock()
	pg, ok := bp.pages[pid]
	if !ok {
		if len(bp.pages) >= bp.maxNumPages {
			if err := bp.evictPage(); err != nil {
				bp.mu.Unlock()
				return nil, err
			}
		}

		file, err := bp.catalog.GetDbFile(pid.GetTableID())
		if err != nil {
			bp.mu.Unlock()
			return nil, storage.WrapDbError(err, "table %d not found", pid.GetTableID())
		}
		pg, err = file.ReadPage(pid)
		if err != nil {
			bp.mu.Unlock()
			return nil, storage.WrapDbError(err, "failed to load page %v from disk", pid)
		}

		bp.pages[pid] = pg
		bp.mru.Add(pid)
	}
	bp.mu.Unlock()

	if err := bp.lockManager.GrabLock(tid, pg.GetPgLock(), perm == storage.ReadWrite); err != nil {
		return nil, err
	}
	return pg, nil
}

// UnsafeReleasePage drops tid's lock on a page before transaction end.
// Calling this violates two-phase locking; scans that drop a read lock
// early for performance accept the risk.
func (bp *BufferPool) UnsafeReleasePage(tid *primitives.TransactionID, pid primitives.PageID) {
	bp.mu.Lock()
	pg, ok := bp.pages[pid]
	bp.mu.Unlock()
	if !ok {
		return
	}
	bp.lockManager.UnsafeRelease(tid, pg.GetPgLock())
}

// HoldsLock reports whether tid holds a lock on the page. Returns false
// when the page is not resident.
func (bp *BufferPool) HoldsLock(tid *primitives.TransactionID, pid primitives.PageID) bool {
	bp.mu.Lock()
	pg, ok := bp.pages[pid]
	bp.mu.Unlock()
	if !ok {
		return false
	}
	return pg.GetPgLock().HoldsLock(tid)
}

// InsertTuple adds a tuple to the specified table on behalf of tid,
// acquiring a write lock on the page the tuple lands on. Dirtied pages are
// marked with tid and installed in the pool so future requests see the
// up-to-date versions.
func (bp *BufferPool) InsertTuple(tid *primitives.TransactionID, tableID primitives.TableID, t *tuple.Tuple) error {
	file, err := bp.catalog.GetDbFile(tableID)
	if err != nil {
		return storage.WrapDbError(err, "table %d not found", tableID)
	}

	dirtied, err := file.InsertTuple(tid, t)
	if err != nil {
		return err
	}
	return bp.installDirty(tid, dirtied)
}

// DeleteTuple removes a tuple from its table on behalf of tid, acquiring a
// write lock on the tuple's page.
func (bp *BufferPool) DeleteTuple(tid *primitives.TransactionID, t *tuple.Tuple) error {
	if t == nil || t.RecordID == nil {
		return storage.NewDbError("tuple has no record ID")
	}

	file, err := bp.catalog.GetDbFile(t.RecordID.PageID.GetTableID())
	if err != nil {
		return storage.WrapDbError(err, "table %d not found", t.RecordID.PageID.GetTableID())
	}

	dirtied, err := file.DeleteTuple(tid, t)
	if err != nil {
		return err
	}
	return bp.installDirty(tid, dirtied)
}

func (bp *BufferPool) installDirty(tid *primitives.TransactionID, pages []storage.Page) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for _, pg := range pages {
		pg.MarkDirty(true, tid)
		pid := pg.GetID()
		if _, resident := bp.pages[pid]; !resident && len(bp.pages) >= bp.maxNumPages {
			if err := bp.evictPage(); err != nil {
				return err
			}
		}
		bp.pages[pid] = pg
		bp.mru.Add(pid)
	}
	return nil
}

// TransactionComplete commits or aborts tid. On commit every page dirtied
// by tid is flushed to disk (FORCE); on abort those pages are discarded so
// the next access re-reads the committed version from disk. Either way all
// of tid's locks are then released.
func (bp *BufferPool) TransactionComplete(tid *primitives.TransactionID, commit bool) {
	bp.mu.Lock()
	if commit {
		if err := bp.flushPagesOf(tid); err != nil {
			// FORCE is broken; nothing sensible can continue from here.
			bp.logger.WithError(err).WithField("tid", tid.String()).Fatal("commit-time flush failed")
		}
	} else {
		for pid, pg := range bp.pages {
			if pg.IsDirty() == tid {
				bp.mru.Remove(pid)
				delete(bp.pages, pid)
			}
		}
	}
	bp.mu.Unlock()

	bp.lockManager.ReleaseAll(tid)
}

// FlushAllPages writes every dirty page to disk. Breaks NO-STEAL if used
// while transactions are in flight; intended for recovery and tests.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for pid := range bp.pages {
		if err := bp.flushPage(pid); err != nil {
			return err
		}
	}
	return nil
}

// FlushPages writes all pages dirtied by tid to disk.
func (bp *BufferPool) FlushPages(tid *primitives.TransactionID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.flushPagesOf(tid)
}

// RemovePage discards a page from the pool without flushing it.
func (bp *BufferPool) RemovePage(pid primitives.PageID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	bp.mru.Remove(pid)
	delete(bp.pages, pid)
}

// Size returns the number of resident pages.
func (bp *BufferPool) Size() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.pages)
}

// LockManager exposes the pool's lock bookkeeping for eviction checks and
// tests.
func (bp *BufferPool) LockManager() *lock.LockManager {
	return bp.lockManager
}

// flushPagesOf writes tid's dirty pages. Callers must hold bp.mu.
func (bp *BufferPool) flushPagesOf(tid *primitives.TransactionID) error {
	for pid, pg := range bp.pages {
		if pg.IsDirty() == tid {
			if err := bp.flushPage(pid); err != nil {
				return err
			}
		}
	}
	return nil
}

// flushPage writes one page to disk if dirty and clears its dirty mark.
// Callers must hold bp.mu.
func (bp *BufferPool) flushPage(pid primitives.PageID) error {
	pg, ok := bp.pages[pid]
	if !ok || pg.IsDirty() == nil {
		return nil
	}

	file, err := bp.catalog.GetDbFile(pid.GetTableID())
	if err != nil {
		return storage.WrapDbError(err, "table for page %v not found", pid)
	}
	if err := file.WritePage(pg); err != nil {
		return err
	}
	pg.MarkDirty(false, nil)
	return nil
}

// evictPage pops candidates in MRU-to-LRU order until it finds a page that
// is neither dirty nor locked (NO-STEAL: a page that could be in flight for
// a transaction is never evicted). Skipped candidates are restored in their
// original order. Callers must hold bp.mu.
func (bp *BufferPool) evictPage() error {
	var skipped []primitives.PageID

	restore := func() {
		for i := len(skipped) - 1; i >= 0; i-- {
			bp.mru.Add(skipped[i])
		}
	}

	for {
		pid, ok := bp.mru.Evict()
		if !ok {
			restore()
			return storage.NewDbError("all pages dirty/locked, cannot evict")
		}

		pg := bp.pages[pid]
		if pg.IsDirty() != nil || bp.lockManager.IsLocked(pg.GetPgLock()) {
			skipped = append(skipped, pid)
			continue
		}

		restore()
		// Defensive flush: under FORCE a clean page has nothing to write.
		if err := bp.flushPage(pid); err != nil {
			return storage.WrapDbError(err, "failed to flush evicted page %v", pid)
		}
		delete(bp.pages, pid)
		bp.logger.WithField("page", pid.String()).Debug("evicted page")
		return nil
	}
}
