package heap

import (
	"testing"
	"time"

	"heapdb/pkg/concurrency/lock"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

func testDetector(t *testing.T) *lock.DeadlockDetector {
	t.Helper()
	d := lock.NewDeadlockDetector(10*time.Millisecond, 100*time.Millisecond, nil)
	t.Cleanup(d.Stop)
	return d
}

func twoIntDesc(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType, types.IntType}, []string{"a", "b"})
	if err != nil {
		t.Fatalf("NewTupleDesc failed: %v", err)
	}
	return td
}

func makeTuple(t *testing.T, td *tuple.TupleDescription, a, b int64) *tuple.Tuple {
	t.Helper()
	tup := tuple.NewTuple(td)
	if err := tup.SetField(0, types.NewIntField(a)); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	if err := tup.SetField(1, types.NewIntField(b)); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	return tup
}

func TestHeapPageSlotCapacity(t *testing.T) {
	td := twoIntDesc(t)
	hp, err := NewEmptyHeapPage(NewHeapPageID(1, 0), td, testDetector(t))
	if err != nil {
		t.Fatalf("NewEmptyHeapPage failed: %v", err)
	}

	// numSlots = floor(pageSize*8 / (tupleSize*8 + 1)), tupleSize = 16.
	expected := primitives.SlotID(storage.PageSize() * 8 / (16*8 + 1))
	if hp.NumSlots() != expected {
		t.Errorf("expected %d slots, got %d", expected, hp.NumSlots())
	}
	if hp.GetNumUnusedSlots() != expected {
		t.Errorf("expected all %d slots free, got %d", expected, hp.GetNumUnusedSlots())
	}
}

func TestHeapPageInsertSetsRecordID(t *testing.T) {
	td := twoIntDesc(t)
	hp, err := NewEmptyHeapPage(NewHeapPageID(1, 0), td, testDetector(t))
	if err != nil {
		t.Fatalf("NewEmptyHeapPage failed: %v", err)
	}

	tup := makeTuple(t, td, 10, 20)
	if err := hp.InsertTuple(tup); err != nil {
		t.Fatalf("InsertTuple failed: %v", err)
	}

	if tup.RecordID == nil {
		t.Fatal("RecordID not set after insert")
	}
	if !tup.RecordID.PageID.Equals(NewHeapPageID(1, 0)) {
		t.Errorf("RecordID page mismatch: %v", tup.RecordID.PageID)
	}
	if len(hp.Tuples()) != 1 {
		t.Errorf("expected 1 tuple on page, got %d", len(hp.Tuples()))
	}
}

func TestHeapPageInsertUntilFull(t *testing.T) {
	td := twoIntDesc(t)
	hp, err := NewEmptyHeapPage(NewHeapPageID(1, 0), td, testDetector(t))
	if err != nil {
		t.Fatalf("NewEmptyHeapPage failed: %v", err)
	}

	n := int(hp.NumSlots())
	for i := 0; i < n; i++ {
		if err := hp.InsertTuple(makeTuple(t, td, int64(i), int64(i))); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
	}

	if hp.GetNumUnusedSlots() != 0 {
		t.Errorf("expected full page, %d slots free", hp.GetNumUnusedSlots())
	}
	if err := hp.InsertTuple(makeTuple(t, td, 99, 99)); err == nil {
		t.Error("insert into full page should fail")
	}
}

func TestHeapPageDeleteFreesSlot(t *testing.T) {
	td := twoIntDesc(t)
	hp, err := NewEmptyHeapPage(NewHeapPageID(1, 0), td, testDetector(t))
	if err != nil {
		t.Fatalf("NewEmptyHeapPage failed: %v", err)
	}

	tup := makeTuple(t, td, 1, 2)
	if err := hp.InsertTuple(tup); err != nil {
		t.Fatalf("InsertTuple failed: %v", err)
	}
	if err := hp.DeleteTuple(tup); err != nil {
		t.Fatalf("DeleteTuple failed: %v", err)
	}

	if tup.RecordID != nil {
		t.Error("RecordID should be cleared after delete")
	}
	if len(hp.Tuples()) != 0 {
		t.Errorf("expected empty page, got %d tuples", len(hp.Tuples()))
	}

	if err := hp.DeleteTuple(makeTuple(t, td, 9, 9)); err == nil {
		t.Error("deleting a tuple with no record ID should fail")
	}
}

// The serialized page must carry the bitmap header and parse back into the
// same occupied slots.
func TestHeapPageDataLayout(t *testing.T) {
	td := twoIntDesc(t)
	detector := testDetector(t)
	hp, err := NewEmptyHeapPage(NewHeapPageID(1, 0), td, detector)
	if err != nil {
		t.Fatalf("NewEmptyHeapPage failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := hp.InsertTuple(makeTuple(t, td, int64(i), int64(i*10))); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
	}

	data := hp.GetPageData()
	if len(data) != storage.PageSize() {
		t.Fatalf("page data is %d bytes, want %d", len(data), storage.PageSize())
	}
	// Slots 0..2 occupied: LSB-first bitmap, first header byte is 0b111.
	if data[0] != 0x07 {
		t.Errorf("header byte = %#x, want 0x07", data[0])
	}

	parsed, err := NewHeapPage(NewHeapPageID(1, 0), data, td, detector)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	tuples := parsed.Tuples()
	if len(tuples) != 3 {
		t.Fatalf("expected 3 tuples after reparse, got %d", len(tuples))
	}
	for i, tup := range tuples {
		f, _ := tup.GetField(1)
		if f.(*types.IntField).Value != int64(i*10) {
			t.Errorf("tuple %d field 1 = %v, want %d", i, f, i*10)
		}
	}
}

func TestHeapPageDirtyMark(t *testing.T) {
	td := twoIntDesc(t)
	hp, err := NewEmptyHeapPage(NewHeapPageID(1, 0), td, testDetector(t))
	if err != nil {
		t.Fatalf("NewEmptyHeapPage failed: %v", err)
	}

	if hp.IsDirty() != nil {
		t.Error("fresh page should be clean")
	}

	tid := primitives.NewTransactionID()
	hp.MarkDirty(true, tid)
	if hp.IsDirty() != tid {
		t.Error("dirty mark should carry the dirtying transaction")
	}

	hp.MarkDirty(false, nil)
	if hp.IsDirty() != nil {
		t.Error("page should be clean after unmark")
	}
}
