package aggregation

import (
	"fmt"
	"sort"

	"heapdb/pkg/iterator"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

// StringAggregator counts string field values, optionally grouped by
// another field. COUNT is the only aggregate defined over strings.
type StringAggregator struct {
	gbField     int
	gbFieldType types.Type
	aField      int
	counts      map[string]int64
	groupVals   map[string]types.Field
}

func NewStringAggregator(gbField int, gbFieldType types.Type, aField int, op AggregateOp) (*StringAggregator, error) {
	if op != Count {
		return nil, fmt.Errorf("only COUNT is supported over string fields, got %s", op)
	}
	return &StringAggregator{
		gbField:     gbField,
		gbFieldType: gbFieldType,
		aField:      aField,
		counts:      make(map[string]int64),
		groupVals:   make(map[string]types.Field),
	}, nil
}

func (a *StringAggregator) MergeTupleIntoGroup(t *tuple.Tuple) error {
	aggField, err := t.GetField(a.aField)
	if err != nil {
		return err
	}
	if _, ok := aggField.(*types.StringField); !ok {
		return fmt.Errorf("aggregate field is %T, expected StringField", aggField)
	}

	key := ""
	var groupVal types.Field
	if a.gbField != NoGrouping {
		groupVal, err = t.GetField(a.gbField)
		if err != nil {
			return err
		}
		key = groupVal.String()
	}

	if _, exists := a.counts[key]; !exists {
		a.groupVals[key] = groupVal
	}
	a.counts[key]++
	return nil
}

func (a *StringAggregator) Iterator() iterator.DbIterator {
	grouped := a.gbField != NoGrouping
	td := resultDesc(a.gbFieldType, grouped)

	keys := make([]string, 0, len(a.counts))
	for key := range a.counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tuples := make([]*tuple.Tuple, 0, len(keys))
	for _, key := range keys {
		res := tuple.NewTuple(td)
		if grouped {
			res.SetField(0, a.groupVals[key])
			res.SetField(1, types.NewIntField(a.counts[key]))
		} else {
			res.SetField(0, types.NewIntField(a.counts[key]))
		}
		tuples = append(tuples, res)
	}
	return iterator.NewSliceIterator(td, tuples)
}
