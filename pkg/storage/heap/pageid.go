package heap

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"heapdb/pkg/primitives"
)

// HeapPageID identifies a page within a heap file by (table id, page
// number). It is a comparable value type so it can serve directly as a map
// key in the buffer pool.
type HeapPageID struct {
	tableID primitives.TableID
	pageNum primitives.PageNumber
}

func NewHeapPageID(tableID primitives.TableID, pageNum primitives.PageNumber) HeapPageID {
	return HeapPageID{
		tableID: tableID,
		pageNum: pageNum,
	}
}

func (pid HeapPageID) GetTableID() primitives.TableID {
	return pid.tableID
}

func (pid HeapPageID) PageNo() primitives.PageNumber {
	return pid.pageNum
}

func (pid HeapPageID) Serialize() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(pid.tableID))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(pid.pageNum))
	return buf
}

func (pid HeapPageID) Equals(other primitives.PageID) bool {
	if other == nil {
		return false
	}
	return pid.tableID == other.GetTableID() && pid.pageNum == other.PageNo()
}

func (pid HeapPageID) String() string {
	return fmt.Sprintf("HeapPageID(table=%d, page=%d)", pid.tableID, pid.pageNum)
}

func (pid HeapPageID) HashCode() primitives.HashCode {
	h := fnv.New64a()
	h.Write(pid.Serialize())
	return primitives.HashCode(h.Sum64())
}
