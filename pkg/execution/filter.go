package execution

import (
	"fmt"

	"heapdb/pkg/iterator"
	"heapdb/pkg/tuple"
)

// Filter passes through the tuples of its child that satisfy a predicate.
type Filter struct {
	base      *iterator.BaseIterator
	predicate *Predicate
	child     iterator.DbIterator
}

func NewFilter(predicate *Predicate, child iterator.DbIterator) (*Filter, error) {
	if predicate == nil {
		return nil, fmt.Errorf("predicate cannot be nil")
	}
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}

	f := &Filter{
		predicate: predicate,
		child:     child,
	}
	f.base = iterator.NewBaseIterator(f.readNext)
	return f, nil
}

func (f *Filter) Open() error {
	if err := f.child.Open(); err != nil {
		return fmt.Errorf("failed to open child operator: %w", err)
	}
	f.base.MarkOpened()
	return nil
}

func (f *Filter) Close() error {
	f.child.Close()
	return f.base.Close()
}

// GetTupleDesc returns the child's schema; filtering does not change it.
func (f *Filter) GetTupleDesc() *tuple.TupleDescription {
	return f.child.GetTupleDesc()
}

func (f *Filter) HasNext() (bool, error)      { return f.base.HasNext() }
func (f *Filter) Next() (*tuple.Tuple, error) { return f.base.Next() }

func (f *Filter) Rewind() error {
	if err := f.child.Rewind(); err != nil {
		return err
	}
	f.base.ClearCache()
	return nil
}

func (f *Filter) readNext() (*tuple.Tuple, error) {
	for {
		hasNext, err := f.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			return nil, nil
		}

		t, err := f.child.Next()
		if err != nil {
			return nil, err
		}

		passes, err := f.predicate.Filter(t)
		if err != nil {
			return nil, err
		}
		if passes {
			return t, nil
		}
	}
}
