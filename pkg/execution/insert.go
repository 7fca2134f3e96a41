package execution

import (
	"fmt"

	"heapdb/pkg/iterator"
	"heapdb/pkg/primitives"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

// Pool is the buffer-pool surface the mutating operators need.
type Pool interface {
	InsertTuple(tid *primitives.TransactionID, tableID primitives.TableID, t *tuple.Tuple) error
	DeleteTuple(tid *primitives.TransactionID, t *tuple.Tuple) error
}

// Insert consumes its child and inserts every tuple into a table through
// the buffer pool. It yields exactly one result tuple holding the number
// of inserted records.
type Insert struct {
	base    *iterator.BaseIterator
	pool    Pool
	tid     *primitives.TransactionID
	child   iterator.DbIterator
	tableID primitives.TableID
	resDesc *tuple.TupleDescription
	done    bool
}

func NewInsert(pool Pool, tid *primitives.TransactionID, child iterator.DbIterator, tableID primitives.TableID) (*Insert, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}

	resDesc, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"inserted"})
	if err != nil {
		return nil, err
	}

	op := &Insert{
		pool:    pool,
		tid:     tid,
		child:   child,
		tableID: tableID,
		resDesc: resDesc,
	}
	op.base = iterator.NewBaseIterator(op.readNext)
	return op, nil
}

func (op *Insert) Open() error {
	if err := op.child.Open(); err != nil {
		return fmt.Errorf("failed to open child operator: %w", err)
	}
	op.done = false
	op.base.MarkOpened()
	return nil
}

func (op *Insert) Close() error {
	op.child.Close()
	return op.base.Close()
}

func (op *Insert) GetTupleDesc() *tuple.TupleDescription {
	return op.resDesc
}

func (op *Insert) HasNext() (bool, error)      { return op.base.HasNext() }
func (op *Insert) Next() (*tuple.Tuple, error) { return op.base.Next() }

func (op *Insert) Rewind() error {
	if err := op.child.Rewind(); err != nil {
		return err
	}
	op.done = false
	op.base.ClearCache()
	return nil
}

func (op *Insert) readNext() (*tuple.Tuple, error) {
	if op.done {
		return nil, nil
	}
	op.done = true

	count := int64(0)
	for {
		hasNext, err := op.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}

		t, err := op.child.Next()
		if err != nil {
			return nil, err
		}
		if err := op.pool.InsertTuple(op.tid, op.tableID, t); err != nil {
			return nil, err
		}
		count++
	}

	res := tuple.NewTuple(op.resDesc)
	if err := res.SetField(0, types.NewIntField(count)); err != nil {
		return nil, err
	}
	return res, nil
}
