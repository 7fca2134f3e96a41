package aggregation

import (
	"fmt"
	"sort"

	"heapdb/pkg/iterator"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

// intGroupState is the running aggregate of one group.
type intGroupState struct {
	count int64
	sum   int64
	min   int64
	max   int64
}

// IntegerAggregator computes MIN, MAX, SUM, AVG or COUNT over an integer
// field, optionally grouped by another field.
type IntegerAggregator struct {
	gbField     int
	gbFieldType types.Type
	aField      int
	op          AggregateOp
	groups      map[string]*intGroupState
	groupVals   map[string]types.Field
	keys        []string // group keys in first-seen order
}

func NewIntegerAggregator(gbField int, gbFieldType types.Type, aField int, op AggregateOp) *IntegerAggregator {
	return &IntegerAggregator{
		gbField:     gbField,
		gbFieldType: gbFieldType,
		aField:      aField,
		op:          op,
		groups:      make(map[string]*intGroupState),
		groupVals:   make(map[string]types.Field),
	}
}

func (a *IntegerAggregator) MergeTupleIntoGroup(t *tuple.Tuple) error {
	aggField, err := t.GetField(a.aField)
	if err != nil {
		return err
	}
	intField, ok := aggField.(*types.IntField)
	if !ok {
		return fmt.Errorf("aggregate field is %T, expected IntField", aggField)
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

	state, exists := a.groups[key]
	if !exists {
		state = &intGroupState{min: intField.Value, max: intField.Value}
		a.groups[key] = state
		a.groupVals[key] = groupVal
		a.keys = append(a.keys, key)
	}

	state.count++
	state.sum += intField.Value
	if intField.Value < state.min {
		state.min = intField.Value
	}
	if intField.Value > state.max {
		state.max = intField.Value
	}
	return nil
}

func (a *IntegerAggregator) Iterator() iterator.DbIterator {
	grouped := a.gbField != NoGrouping
	td := resultDesc(a.gbFieldType, grouped)

	keys := make([]string, len(a.keys))
	copy(keys, a.keys)
	sort.Strings(keys)

	tuples := make([]*tuple.Tuple, 0, len(keys))
	for _, key := range keys {
		state := a.groups[key]
		res := tuple.NewTuple(td)
		if grouped {
			res.SetField(0, a.groupVals[key])
			res.SetField(1, types.NewIntField(a.value(state)))
		} else {
			res.SetField(0, types.NewIntField(a.value(state)))
		}
		tuples = append(tuples, res)
	}
	return iterator.NewSliceIterator(td, tuples)
}

func (a *IntegerAggregator) value(state *intGroupState) int64 {
	switch a.op {
	case Min:
		return state.min
	case Max:
		return state.max
	case Sum:
		return state.sum
	case Avg:
		return state.sum / state.count
	case Count:
		return state.count
	default:
		return 0
	}
}
