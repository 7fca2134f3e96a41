package execution

import (
	"testing"

	"heapdb/pkg/iterator"
	"heapdb/pkg/primitives"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

func intDesc(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType, types.IntType}, []string{"x", "y"})
	if err != nil {
		t.Fatalf("NewTupleDesc failed: %v", err)
	}
	return td
}

func intTuples(t *testing.T, td *tuple.TupleDescription, rows [][2]int64) []*tuple.Tuple {
	t.Helper()
	res := make([]*tuple.Tuple, 0, len(rows))
	for _, row := range rows {
		tup := tuple.NewTuple(td)
		if err := tup.SetField(0, types.NewIntField(row[0])); err != nil {
			t.Fatal(err)
		}
		if err := tup.SetField(1, types.NewIntField(row[1])); err != nil {
			t.Fatal(err)
		}
		res = append(res, tup)
	}
	return res
}

func drain(t *testing.T, it iterator.DbIterator) []*tuple.Tuple {
	t.Helper()
	var res []*tuple.Tuple
	for {
		hasNext, err := it.HasNext()
		if err != nil {
			t.Fatalf("HasNext failed: %v", err)
		}
		if !hasNext {
			return res
		}
		tup, err := it.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		res = append(res, tup)
	}
}

func TestFilterPassesMatchingTuples(t *testing.T) {
	td := intDesc(t)
	child := iterator.NewSliceIterator(td, intTuples(t, td, [][2]int64{
		{1, 10}, {2, 20}, {3, 30}, {4, 40},
	}))

	pred := NewPredicate(0, primitives.GreaterThan, types.NewIntField(2))
	f, err := NewFilter(pred, child)
	if err != nil {
		t.Fatalf("NewFilter failed: %v", err)
	}
	if err := f.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	res := drain(t, f)
	if len(res) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(res))
	}
	for _, tup := range res {
		x, _ := tup.GetField(0)
		if x.(*types.IntField).Value <= 2 {
			t.Errorf("tuple %v should have been filtered out", tup)
		}
	}
}

func TestFilterRewind(t *testing.T) {
	td := intDesc(t)
	child := iterator.NewSliceIterator(td, intTuples(t, td, [][2]int64{{1, 1}, {2, 2}}))

	f, err := NewFilter(NewPredicate(0, primitives.GreaterThanOrEqual, types.NewIntField(1)), child)
	if err != nil {
		t.Fatalf("NewFilter failed: %v", err)
	}
	if err := f.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	first := drain(t, f)
	if err := f.Rewind(); err != nil {
		t.Fatalf("Rewind failed: %v", err)
	}
	second := drain(t, f)

	if len(first) != 2 || len(second) != 2 {
		t.Errorf("expected 2 tuples before and after rewind, got %d and %d", len(first), len(second))
	}
}

func TestFilterEmptyResult(t *testing.T) {
	td := intDesc(t)
	child := iterator.NewSliceIterator(td, intTuples(t, td, [][2]int64{{1, 1}}))

	f, err := NewFilter(NewPredicate(0, primitives.Equals, types.NewIntField(999)), child)
	if err != nil {
		t.Fatalf("NewFilter failed: %v", err)
	}
	if err := f.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	if res := drain(t, f); len(res) != 0 {
		t.Errorf("expected no matches, got %d", len(res))
	}
}

func TestFilterRejectsNilArguments(t *testing.T) {
	td := intDesc(t)
	child := iterator.NewSliceIterator(td, nil)

	if _, err := NewFilter(nil, child); err == nil {
		t.Error("nil predicate should fail")
	}
	if _, err := NewFilter(NewPredicate(0, primitives.Equals, types.NewIntField(0)), nil); err == nil {
		t.Error("nil child should fail")
	}
}
