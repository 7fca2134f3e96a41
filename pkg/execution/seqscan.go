package execution

import (
	"fmt"

	"heapdb/pkg/iterator"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage"
	"heapdb/pkg/tuple"
)

// SeqScan reads every tuple of a table in page order on behalf of a
// transaction, taking shared page locks as it goes.
type SeqScan struct {
	tid  *primitives.TransactionID
	file storage.DbFile
	iter iterator.DbFileIterator
}

func NewSeqScan(tid *primitives.TransactionID, file storage.DbFile) *SeqScan {
	return &SeqScan{
		tid:  tid,
		file: file,
	}
}

func (s *SeqScan) Open() error {
	s.iter = s.file.Iterator(s.tid)
	return s.iter.Open()
}

func (s *SeqScan) Close() error {
	if s.iter == nil {
		return nil
	}
	err := s.iter.Close()
	s.iter = nil
	return err
}

func (s *SeqScan) Rewind() error {
	if s.iter == nil {
		return fmt.Errorf("scan not opened")
	}
	return s.iter.Rewind()
}

func (s *SeqScan) HasNext() (bool, error) {
	if s.iter == nil {
		return false, fmt.Errorf("scan not opened")
	}
	return s.iter.HasNext()
}

func (s *SeqScan) Next() (*tuple.Tuple, error) {
	if s.iter == nil {
		return nil, fmt.Errorf("scan not opened")
	}
	return s.iter.Next()
}

func (s *SeqScan) GetTupleDesc() *tuple.TupleDescription {
	return s.file.GetTupleDesc()
}
