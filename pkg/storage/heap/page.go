package heap

import (
	"bytes"
	"fmt"
	"sync"

	"heapdb/pkg/concurrency/lock"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

// HeapPage is a single fixed-size page of a heap file. The on-disk layout
// is a header bitmap of ceil(numSlots/8) bytes (one bit per slot, 1 =
// occupied, LSB-first within each byte) followed by the slots in order,
// each exactly tupleSize bytes. Unused slots and any trailing bytes are
// zero.
//
// numSlots = floor(pageSize*8 / (tupleSize*8 + 1)), accounting for the one
// header bit each slot costs.
type HeapPage struct {
	pid       HeapPageID
	tupleDesc *tuple.TupleDescription
	header    []byte
	tuples    []*tuple.Tuple
	numSlots  primitives.SlotID
	dirtier   *primitives.TransactionID
	pgLock    *lock.PageLock
	mu        sync.RWMutex
}

// NewHeapPage creates a HeapPage by deserializing raw page data. The
// page's lock is created together with the page.
func NewHeapPage(pid HeapPageID, data []byte, td *tuple.TupleDescription, detector *lock.DeadlockDetector) (*HeapPage, error) {
	if len(data) != storage.PageSize() {
		return nil, fmt.Errorf("invalid page data size: expected %d, got %d", storage.PageSize(), len(data))
	}

	hp := &HeapPage{
		pid:       pid,
		tupleDesc: td,
		pgLock:    lock.NewPageLock(pid, detector),
	}
	hp.numSlots = hp.getNumSlots()
	hp.header = make([]byte, hp.getHeaderSize())
	hp.tuples = make([]*tuple.Tuple, hp.numSlots)

	if err := hp.parsePageData(data); err != nil {
		return nil, err
	}
	return hp, nil
}

// NewEmptyHeapPage creates a fresh all-zero page, used when a heap file
// appends a page for a tuple that fits on no existing page.
func NewEmptyHeapPage(pid HeapPageID, td *tuple.TupleDescription, detector *lock.DeadlockDetector) (*HeapPage, error) {
	return NewHeapPage(pid, CreateEmptyPageData(), td, detector)
}

// CreateEmptyPageData returns an all-zero byte slice of the current page
// size.
func CreateEmptyPageData() []byte {
	return make([]byte, storage.PageSize())
}

func (hp *HeapPage) GetID() primitives.PageID {
	return hp.pid
}

func (hp *HeapPage) GetPgLock() *lock.PageLock {
	return hp.pgLock
}

// IsDirty returns the transaction that last modified this page, or nil if
// the page is clean.
func (hp *HeapPage) IsDirty() *primitives.TransactionID {
	hp.mu.RLock()
	defer hp.mu.RUnlock()
	return hp.dirtier
}

func (hp *HeapPage) MarkDirty(dirty bool, tid *primitives.TransactionID) {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	if dirty {
		hp.dirtier = tid
	} else {
		hp.dirtier = nil
	}
}

func (hp *HeapPage) GetTupleDesc() *tuple.TupleDescription {
	return hp.tupleDesc
}

// GetPageData serializes the page into exactly PageSize bytes: the bitmap
// header, the occupied slots, zeroes elsewhere.
func (hp *HeapPage) GetPageData() []byte {
	hp.mu.RLock()
	defer hp.mu.RUnlock()

	data := make([]byte, storage.PageSize())
	copy(data, hp.header)

	tupleSize := int(hp.tupleDesc.GetSize())
	base := len(hp.header)
	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		if !hp.isSlotUsed(i) || hp.tuples[i] == nil {
			continue
		}
		buf := &bytes.Buffer{}
		for j := 0; j < hp.tupleDesc.NumFields(); j++ {
			field, err := hp.tuples[i].GetField(j)
			if err != nil || field == nil {
				continue
			}
			_ = field.Serialize(buf)
		}
		copy(data[base+int(i)*tupleSize:], buf.Bytes())
	}
	return data
}

// InsertTuple places t into the first unused slot and stamps its RecordID.
func (hp *HeapPage) InsertTuple(t *tuple.Tuple) error {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	if !t.TupleDesc.Equals(hp.tupleDesc) {
		return fmt.Errorf("tuple schema does not match page schema")
	}

	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		if hp.isSlotUsed(i) {
			continue
		}
		hp.markSlotUsed(i, true)
		hp.tuples[i] = t
		t.RecordID = tuple.NewTupleRecordID(hp.pid, i)
		return nil
	}
	return fmt.Errorf("no empty slot on page %v", hp.pid)
}

// DeleteTuple clears the slot occupied by t. The tuple must be located on
// this page.
func (hp *HeapPage) DeleteTuple(t *tuple.Tuple) error {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	rid := t.RecordID
	if rid == nil {
		return fmt.Errorf("tuple has no record ID")
	}
	if !rid.PageID.Equals(hp.pid) {
		return fmt.Errorf("tuple is not on this page")
	}
	if rid.TupleNum >= hp.numSlots || !hp.isSlotUsed(rid.TupleNum) {
		return fmt.Errorf("tuple slot %d is already empty", rid.TupleNum)
	}

	hp.markSlotUsed(rid.TupleNum, false)
	hp.tuples[rid.TupleNum] = nil
	t.RecordID = nil
	return nil
}

// GetNumUnusedSlots returns the count of free slots on this page.
func (hp *HeapPage) GetNumUnusedSlots() primitives.SlotID {
	hp.mu.RLock()
	defer hp.mu.RUnlock()

	free := primitives.SlotID(0)
	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		if !hp.isSlotUsed(i) {
			free++
		}
	}
	return free
}

// NumSlots returns the total slot capacity of this page.
func (hp *HeapPage) NumSlots() primitives.SlotID {
	return hp.numSlots
}

// Tuples returns the occupied tuples on this page in slot order.
func (hp *HeapPage) Tuples() []*tuple.Tuple {
	hp.mu.RLock()
	defer hp.mu.RUnlock()

	res := make([]*tuple.Tuple, 0, hp.numSlots)
	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		if hp.isSlotUsed(i) && hp.tuples[i] != nil {
			res = append(res, hp.tuples[i])
		}
	}
	return res
}

// getNumSlots computes how many tuples fit on a page: each tuple costs its
// serialized size plus one header bit.
func (hp *HeapPage) getNumSlots() primitives.SlotID {
	tupleBits := int(hp.tupleDesc.GetSize())*8 + 1
	return primitives.SlotID(storage.PageSize() * 8 / tupleBits)
}

func (hp *HeapPage) getHeaderSize() int {
	return (int(hp.getNumSlots()) + 7) / 8
}

func (hp *HeapPage) parsePageData(data []byte) error {
	copy(hp.header, data[:len(hp.header)])

	tupleSize := int(hp.tupleDesc.GetSize())
	base := len(hp.header)
	for i := primitives.SlotID(0); i < hp.numSlots; i++ {
		if !hp.isSlotUsed(i) {
			continue
		}
		start := base + int(i)*tupleSize
		if start+tupleSize > len(data) {
			return fmt.Errorf("invalid tuple at slot %d: exceeds page size", i)
		}
		reader := bytes.NewReader(data[start : start+tupleSize])

		t, err := readTuple(reader, hp.tupleDesc)
		if err != nil {
			return fmt.Errorf("failed to read tuple at slot %d: %w", i, err)
		}
		t.RecordID = tuple.NewTupleRecordID(hp.pid, i)
		hp.tuples[i] = t
	}
	return nil
}

// isSlotUsed checks the slot's header bit, LSB-first within each byte.
// Callers must hold hp.mu.
func (hp *HeapPage) isSlotUsed(i primitives.SlotID) bool {
	return (hp.header[i/8]>>(i%8))&1 == 1
}

func (hp *HeapPage) markSlotUsed(i primitives.SlotID, used bool) {
	if used {
		hp.header[i/8] |= 1 << (i % 8)
	} else {
		hp.header[i/8] &^= 1 << (i % 8)
	}
}

func readTuple(reader *bytes.Reader, td *tuple.TupleDescription) (*tuple.Tuple, error) {
	t := tuple.NewTuple(td)
	for j := 0; j < td.NumFields(); j++ {
		fieldType, err := td.TypeAtIndex(j)
		if err != nil {
			return nil, err
		}
		field, err := types.ParseField(reader, fieldType)
		if err != nil {
			return nil, err
		}
		if err := t.SetField(j, field); err != nil {
			return nil, err
		}
	}
	return t, nil
}
