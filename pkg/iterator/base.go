package iterator

import (
	"fmt"

	"heapdb/pkg/tuple"
)

// ReadNextFunc reads the next tuple from an iterator's underlying source.
// A nil tuple with nil error signals the end of the sequence.
type ReadNextFunc func() (*tuple.Tuple, error)

// BaseIterator implements the caching and state plumbing shared by all
// operators: one-tuple lookahead for HasNext, open/close state, delegation
// to the operator's readNext function.
type BaseIterator struct {
	nextTuple *tuple.Tuple
	opened    bool
	readNext  ReadNextFunc
}

func NewBaseIterator(readNext ReadNextFunc) *BaseIterator {
	return &BaseIterator{readNext: readNext}
}

// MarkOpened flags the iterator as open. Operators call this from Open
// after preparing their children.
func (it *BaseIterator) MarkOpened() {
	it.opened = true
}

func (it *BaseIterator) Close() error {
	it.opened = false
	it.nextTuple = nil
	return nil
}

// ClearCache drops the lookahead tuple. Operators call this from Rewind.
func (it *BaseIterator) ClearCache() {
	it.nextTuple = nil
}

func (it *BaseIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, fmt.Errorf("iterator not opened")
	}

	if it.nextTuple == nil {
		var err error
		it.nextTuple, err = it.readNext()
		if err != nil {
			return false, err
		}
	}
	return it.nextTuple != nil, nil
}

func (it *BaseIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, fmt.Errorf("no more tuples")
	}

	t := it.nextTuple
	it.nextTuple = nil
	return t, nil
}
