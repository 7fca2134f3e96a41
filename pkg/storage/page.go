package storage

import (
	"heapdb/pkg/concurrency/lock"
	"heapdb/pkg/primitives"
)

// DefaultPageSize is the number of bytes per page, including the header.
const DefaultPageSize = 4096

var pageSize = DefaultPageSize

// PageSize returns the current page size in bytes.
func PageSize() int {
	return pageSize
}

// SetPageSize overrides the page size. FOR TESTING ONLY.
func SetPageSize(size int) {
	pageSize = size
}

// ResetPageSize restores the default page size. FOR TESTING ONLY.
func ResetPageSize() {
	pageSize = DefaultPageSize
}

// Permissions represents the access level requested on a page.
type Permissions int

const (
	ReadOnly Permissions = iota
	ReadWrite
)

// Page is a page resident in the buffer pool. Pages may be dirty,
// indicating they have been modified since last written to disk; the dirty
// mark carries the transaction that made the modification. Page contents
// are mutated only by the holder of the page's exclusive lock.
type Page interface {
	// GetID returns the identity of this page
	GetID() primitives.PageID

	// GetPgLock returns the logical lock guarding this page's contents.
	// Exactly one lock exists per live page.
	GetPgLock() *lock.PageLock

	// IsDirty returns the transaction that last dirtied this page, or nil
	IsDirty() *primitives.TransactionID

	// MarkDirty sets or clears the dirty mark
	MarkDirty(dirty bool, tid *primitives.TransactionID)

	// GetPageData serializes the page contents to exactly PageSize() bytes
	GetPageData() []byte
}
