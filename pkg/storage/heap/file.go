package heap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"heapdb/pkg/concurrency/lock"
	"heapdb/pkg/iterator"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage"
	"heapdb/pkg/tuple"
)

// HeapFile stores a collection of tuples in no particular order as a
// sequence of fixed-size pages in a single OS file. Page n lives at byte
// offset n*PageSize. The table id is derived from the file's absolute
// path, so the same path always maps to the same table.
//
// Tuple operations go through the buffer pool bound with BindPool so that
// every page access holds the appropriate page lock.
type HeapFile struct {
	file      *os.File
	tupleDesc *tuple.TupleDescription
	id        primitives.TableID
	detector  *lock.DeadlockDetector
	pool      storage.PagePool
	mu        sync.Mutex // serializes seeks against reads/writes
}

// NewHeapFile opens (creating if needed) the heap file at path.
func NewHeapFile(path primitives.Filepath, td *tuple.TupleDescription, detector *lock.DeadlockDetector) (*HeapFile, error) {
	if path == "" {
		return nil, fmt.Errorf("heap file path cannot be empty")
	}

	abs, err := filepath.Abs(string(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve heap file path: %w", err)
	}

	f, err := os.OpenFile(abs, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open heap file: %w", err)
	}

	return &HeapFile{
		file:      f,
		tupleDesc: td,
		id:        primitives.Filepath(abs).Hash(),
		detector:  detector,
	}, nil
}

// BindPool attaches the buffer pool this file acquires pages through.
// Must be called before InsertTuple, DeleteTuple or Iterator.
func (hf *HeapFile) BindPool(pool storage.PagePool) {
	hf.pool = pool
}

func (hf *HeapFile) GetID() primitives.TableID {
	return hf.id
}

func (hf *HeapFile) GetTupleDesc() *tuple.TupleDescription {
	return hf.tupleDesc
}

// ReadPage loads a page from disk. This is raw I/O; callers wanting locked
// access go through the buffer pool instead.
func (hf *HeapFile) ReadPage(pid primitives.PageID) (storage.Page, error) {
	if pid.GetTableID() != hf.id {
		return nil, fmt.Errorf("page %v does not belong to this file", pid)
	}
	if int(pid.PageNo()) >= hf.NumPages() {
		return nil, fmt.Errorf("page %v does not exist in this file", pid)
	}

	data := make([]byte, storage.PageSize())
	offset := int64(pid.PageNo()) * int64(storage.PageSize())

	hf.mu.Lock()
	_, err := hf.file.ReadAt(data, offset)
	hf.mu.Unlock()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read page %v: %w", pid, err)
	}

	return NewHeapPage(NewHeapPageID(hf.id, pid.PageNo()), data, hf.tupleDesc, hf.detector)
}

// WritePage stores a page at its offset in the file.
func (hf *HeapFile) WritePage(p storage.Page) error {
	pid := p.GetID()
	if pid.GetTableID() != hf.id {
		return fmt.Errorf("page %v does not belong to this file", pid)
	}

	offset := int64(pid.PageNo()) * int64(storage.PageSize())

	hf.mu.Lock()
	defer hf.mu.Unlock()
	if _, err := hf.file.WriteAt(p.GetPageData(), offset); err != nil {
		return fmt.Errorf("failed to write page %v: %w", pid, err)
	}
	return nil
}

// NumPages returns the number of pages currently on disk.
func (hf *HeapFile) NumPages() int {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	info, err := hf.file.Stat()
	if err != nil {
		return 0
	}
	pageSize := int64(storage.PageSize())
	return int((info.Size() + pageSize - 1) / pageSize)
}

// InsertTuple adds t to the first page with a free slot, appending a new
// empty page to the file when every page is full. Returns the dirtied
// pages.
func (hf *HeapFile) InsertTuple(tid *primitives.TransactionID, t *tuple.Tuple) ([]storage.Page, error) {
	pgNo, err := hf.findFreePage(tid)
	if err != nil {
		return nil, err
	}

	if pgNo < 0 {
		// Allocate a fresh page at the end of the file: write it out empty,
		// then read it back through the buffer pool under a write lock.
		newPid := NewHeapPageID(hf.id, primitives.PageNumber(hf.NumPages()))
		empty, err := NewEmptyHeapPage(newPid, hf.tupleDesc, hf.detector)
		if err != nil {
			return nil, err
		}
		if err := hf.WritePage(empty); err != nil {
			return nil, err
		}
		return hf.insertInto(tid, newPid, t)
	}

	return hf.insertInto(tid, NewHeapPageID(hf.id, primitives.PageNumber(pgNo)), t)
}

func (hf *HeapFile) insertInto(tid *primitives.TransactionID, pid HeapPageID, t *tuple.Tuple) ([]storage.Page, error) {
	pg, err := hf.pool.GetPage(tid, pid, storage.ReadWrite)
	if err != nil {
		return nil, err
	}
	hp := pg.(*HeapPage)
	if err := hp.InsertTuple(t); err != nil {
		return nil, err
	}
	return []storage.Page{pg}, nil
}

// findFreePage scans from the last page backward looking for a free slot.
// Pages found full are read-only visits that do not affect consistency, so
// the shared hold is dropped immediately instead of being kept to commit.
// Only the shared level is released: an exclusive lock the transaction
// already has on the page stays put.
func (hf *HeapFile) findFreePage(tid *primitives.TransactionID) (int, error) {
	for i := hf.NumPages() - 1; i >= 0; i-- {
		pid := NewHeapPageID(hf.id, primitives.PageNumber(i))
		pg, err := hf.pool.GetPage(tid, pid, storage.ReadOnly)
		if err != nil {
			return 0, err
		}
		if pg.(*HeapPage).GetNumUnusedSlots() > 0 {
			return i, nil
		}
		pg.GetPgLock().SUnlock(tid)
	}
	return -1, nil
}

// DeleteTuple removes t from the page recorded in its RecordID and returns
// the dirtied page.
func (hf *HeapFile) DeleteTuple(tid *primitives.TransactionID, t *tuple.Tuple) ([]storage.Page, error) {
	if t.RecordID == nil {
		return nil, fmt.Errorf("tuple has no record ID")
	}
	if t.RecordID.PageID.GetTableID() != hf.id {
		return nil, fmt.Errorf("tuple not found in this table")
	}

	pg, err := hf.pool.GetPage(tid, t.RecordID.PageID, storage.ReadWrite)
	if err != nil {
		return nil, err
	}
	hp := pg.(*HeapPage)
	if err := hp.DeleteTuple(t); err != nil {
		return nil, err
	}
	return []storage.Page{pg}, nil
}

// Iterator returns a pull-based iterator over every tuple in the file,
// reading pages through the buffer pool under shared locks.
func (hf *HeapFile) Iterator(tid *primitives.TransactionID) iterator.DbFileIterator {
	return newFileIterator(tid, hf)
}

// Close releases the underlying OS file.
func (hf *HeapFile) Close() error {
	return hf.file.Close()
}
