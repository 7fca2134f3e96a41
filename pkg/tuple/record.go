package tuple

import (
	"fmt"

	"heapdb/pkg/primitives"
)

// TupleRecordID identifies the physical location of a tuple: the page it
// lives on and its slot number within that page.
type TupleRecordID struct {
	PageID   primitives.PageID
	TupleNum primitives.SlotID
}

func NewTupleRecordID(pid primitives.PageID, tupleNum primitives.SlotID) *TupleRecordID {
	return &TupleRecordID{
		PageID:   pid,
		TupleNum: tupleNum,
	}
}

func (rid *TupleRecordID) Equals(other *TupleRecordID) bool {
	if other == nil {
		return false
	}
	return rid.PageID.Equals(other.PageID) && rid.TupleNum == other.TupleNum
}

func (rid *TupleRecordID) String() string {
	return fmt.Sprintf("RecordID(%s, slot=%d)", rid.PageID, rid.TupleNum)
}
