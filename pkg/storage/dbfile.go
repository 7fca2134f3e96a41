package storage

import (
	"heapdb/pkg/iterator"
	"heapdb/pkg/primitives"
	"heapdb/pkg/tuple"
)

// DbFile is the on-disk backing store of one table. Implementations read
// and write raw pages and translate tuple operations into page
// modifications, reporting which pages they dirtied. Tuple operations call
// back into the buffer pool to acquire page locks.
type DbFile interface {
	// ReadPage loads the page from disk without going through the pool
	ReadPage(pid primitives.PageID) (Page, error)

	// WritePage stores the page at its offset in the file
	WritePage(p Page) error

	// NumPages returns the number of pages currently on disk
	NumPages() int

	// InsertTuple adds t to the file, allocating a new page if no existing
	// page has a free slot, and returns the pages it dirtied
	InsertTuple(tid *primitives.TransactionID, t *tuple.Tuple) ([]Page, error)

	// DeleteTuple removes t (located by its RecordID) and returns the
	// pages it dirtied
	DeleteTuple(tid *primitives.TransactionID, t *tuple.Tuple) ([]Page, error)

	// Iterator returns a pull-based iterator over every tuple in the file,
	// acquiring shared page locks on behalf of tid as it goes
	Iterator(tid *primitives.TransactionID) iterator.DbFileIterator

	// GetID returns the table id of this file
	GetID() primitives.TableID

	// GetTupleDesc returns the schema of tuples in this file
	GetTupleDesc() *tuple.TupleDescription
}

// PagePool is the buffer-pool surface a DbFile needs for lock-respecting
// page access during tuple operations and scans.
type PagePool interface {
	GetPage(tid *primitives.TransactionID, pid primitives.PageID, perm Permissions) (Page, error)
	UnsafeReleasePage(tid *primitives.TransactionID, pid primitives.PageID)
}
