package aggregation

import (
	"fmt"

	"heapdb/pkg/iterator"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

// Aggregate is the operator wrapping an Aggregator. At open time it picks
// the aggregator variant by the type of the aggregated field, drains its
// child into it, and then serves the computed results.
type Aggregate struct {
	child   iterator.DbIterator
	aField  int
	gbField int
	op      AggregateOp
	agg     Aggregator
	results iterator.DbIterator
}

func NewAggregate(child iterator.DbIterator, aField, gbField int, op AggregateOp) (*Aggregate, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}
	return &Aggregate{
		child:   child,
		aField:  aField,
		gbField: gbField,
		op:      op,
	}, nil
}

func (a *Aggregate) Open() error {
	if err := a.child.Open(); err != nil {
		return fmt.Errorf("failed to open child operator: %w", err)
	}

	agg, err := a.buildAggregator()
	if err != nil {
		return err
	}
	a.agg = agg

	for {
		hasNext, err := a.child.HasNext()
		if err != nil {
			return err
		}
		if !hasNext {
			break
		}
		t, err := a.child.Next()
		if err != nil {
			return err
		}
		if err := a.agg.MergeTupleIntoGroup(t); err != nil {
			return err
		}
	}

	a.results = a.agg.Iterator()
	return a.results.Open()
}

func (a *Aggregate) buildAggregator() (Aggregator, error) {
	childDesc := a.child.GetTupleDesc()

	aType, err := childDesc.TypeAtIndex(a.aField)
	if err != nil {
		return nil, err
	}

	gbType := types.IntType
	if a.gbField != NoGrouping {
		gbType, err = childDesc.TypeAtIndex(a.gbField)
		if err != nil {
			return nil, err
		}
	}

	switch aType {
	case types.IntType:
		return NewIntegerAggregator(a.gbField, gbType, a.aField, a.op), nil
	case types.StringType:
		return NewStringAggregator(a.gbField, gbType, a.aField, a.op)
	default:
		return nil, fmt.Errorf("no aggregator for field type %v", aType)
	}
}

func (a *Aggregate) Close() error {
	a.child.Close()
	if a.results != nil {
		a.results.Close()
		a.results = nil
	}
	return nil
}

func (a *Aggregate) Rewind() error {
	if a.results == nil {
		return fmt.Errorf("aggregate not opened")
	}
	return a.results.Rewind()
}

func (a *Aggregate) HasNext() (bool, error) {
	if a.results == nil {
		return false, fmt.Errorf("aggregate not opened")
	}
	return a.results.HasNext()
}

func (a *Aggregate) Next() (*tuple.Tuple, error) {
	if a.results == nil {
		return nil, fmt.Errorf("aggregate not opened")
	}
	return a.results.Next()
}

func (a *Aggregate) GetTupleDesc() *tuple.TupleDescription {
	gbType := types.IntType
	if a.gbField != NoGrouping {
		if t, err := a.child.GetTupleDesc().TypeAtIndex(a.gbField); err == nil {
			gbType = t
		}
	}
	return resultDesc(gbType, a.gbField != NoGrouping)
}
