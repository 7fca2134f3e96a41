package heap

import (
	"fmt"

	"heapdb/pkg/primitives"
	"heapdb/pkg/storage"
	"heapdb/pkg/tuple"
)

// FileIterator iterates over every tuple of a heap file, one page at a
// time. Pages are fetched through the buffer pool under shared locks, which
// are held until the transaction completes.
type FileIterator struct {
	tid      *primitives.TransactionID
	file     *HeapFile
	pageNo   int
	tuples   []*tuple.Tuple
	tupleIdx int
	opened   bool
}

func newFileIterator(tid *primitives.TransactionID, file *HeapFile) *FileIterator {
	return &FileIterator{
		tid:  tid,
		file: file,
	}
}

func (it *FileIterator) Open() error {
	it.opened = true
	it.pageNo = 0
	it.tuples = nil
	it.tupleIdx = 0
	return nil
}

func (it *FileIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, nil
	}

	for it.tupleIdx >= len(it.tuples) {
		if it.pageNo >= it.file.NumPages() {
			return false, nil
		}
		if err := it.loadPage(it.pageNo); err != nil {
			return false, err
		}
		it.pageNo++
	}
	return true, nil
}

func (it *FileIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, fmt.Errorf("no more tuples")
	}

	t := it.tuples[it.tupleIdx]
	it.tupleIdx++
	return t, nil
}

func (it *FileIterator) Rewind() error {
	if !it.opened {
		return fmt.Errorf("iterator not opened")
	}
	it.pageNo = 0
	it.tuples = nil
	it.tupleIdx = 0
	return nil
}

func (it *FileIterator) Close() error {
	it.opened = false
	it.tuples = nil
	return nil
}

func (it *FileIterator) loadPage(pageNo int) error {
	pid := NewHeapPageID(it.file.GetID(), primitives.PageNumber(pageNo))
	pg, err := it.file.pool.GetPage(it.tid, pid, storage.ReadOnly)
	if err != nil {
		return err
	}
	it.tuples = pg.(*HeapPage).Tuples()
	it.tupleIdx = 0
	return nil
}
