package aggregation

import (
	"fmt"

	"heapdb/pkg/iterator"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

// NoGrouping marks an aggregation without a GROUP BY field.
const NoGrouping = -1

// AggregateOp enumerates the supported aggregate operations.
type AggregateOp int

const (
	Min AggregateOp = iota
	Max
	Sum
	Avg
	Count
)

func (op AggregateOp) String() string {
	switch op {
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	case Count:
		return "COUNT"
	default:
		return fmt.Sprintf("AggregateOp(%d)", int(op))
	}
}

// Aggregator is the capability shared by the per-type aggregators. One
// variant exists per aggregated field type; the Aggregate operator picks
// the variant by field type when it opens.
type Aggregator interface {
	// MergeTupleIntoGroup folds one tuple into the running aggregate of
	// its group.
	MergeTupleIntoGroup(t *tuple.Tuple) error

	// Iterator returns the aggregation results: (groupVal, aggVal) tuples,
	// or a single (aggVal) tuple when there is no grouping.
	Iterator() iterator.DbIterator
}

// resultDesc builds the schema of the aggregation results.
func resultDesc(gbFieldType types.Type, grouped bool) *tuple.TupleDescription {
	if grouped {
		td, _ := tuple.NewTupleDesc(
			[]types.Type{gbFieldType, types.IntType},
			[]string{"group", "aggregate"})
		return td
	}
	td, _ := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"aggregate"})
	return td
}
