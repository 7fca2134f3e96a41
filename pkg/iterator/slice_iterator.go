package iterator

import (
	"fmt"

	"heapdb/pkg/tuple"
)

// SliceIterator adapts an in-memory slice of tuples to the DbIterator
// contract. Aggregators and tests use it to expose computed results.
type SliceIterator struct {
	tupleDesc *tuple.TupleDescription
	tuples    []*tuple.Tuple
	pos       int
	opened    bool
}

func NewSliceIterator(td *tuple.TupleDescription, tuples []*tuple.Tuple) *SliceIterator {
	return &SliceIterator{
		tupleDesc: td,
		tuples:    tuples,
	}
}

func (it *SliceIterator) Open() error {
	it.opened = true
	it.pos = 0
	return nil
}

func (it *SliceIterator) Close() error {
	it.opened = false
	return nil
}

func (it *SliceIterator) Rewind() error {
	if !it.opened {
		return fmt.Errorf("iterator not opened")
	}
	it.pos = 0
	return nil
}

func (it *SliceIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, fmt.Errorf("iterator not opened")
	}
	return it.pos < len(it.tuples), nil
}

func (it *SliceIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, fmt.Errorf("no more tuples")
	}

	t := it.tuples[it.pos]
	it.pos++
	return t, nil
}

func (it *SliceIterator) GetTupleDesc() *tuple.TupleDescription {
	return it.tupleDesc
}
