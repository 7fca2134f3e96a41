package execution

import (
	"fmt"

	"heapdb/pkg/iterator"
	"heapdb/pkg/primitives"
	"heapdb/pkg/tuple"
	"heapdb/pkg/types"
)

// Delete consumes its child and removes every tuple it yields through the
// buffer pool. It yields exactly one result tuple holding the number of
// deleted records.
type Delete struct {
	base    *iterator.BaseIterator
	pool    Pool
	tid     *primitives.TransactionID
	child   iterator.DbIterator
	resDesc *tuple.TupleDescription
	done    bool
}

func NewDelete(pool Pool, tid *primitives.TransactionID, child iterator.DbIterator) (*Delete, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}

	resDesc, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"deleted"})
	if err != nil {
		return nil, err
	}

	op := &Delete{
		pool:    pool,
		tid:     tid,
		child:   child,
		resDesc: resDesc,
	}
	op.base = iterator.NewBaseIterator(op.readNext)
	return op, nil
}

func (op *Delete) Open() error {
	if err := op.child.Open(); err != nil {
		return fmt.Errorf("failed to open child operator: %w", err)
	}
	op.done = false
	op.base.MarkOpened()
	return nil
}

func (op *Delete) Close() error {
	op.child.Close()
	return op.base.Close()
}

func (op *Delete) GetTupleDesc() *tuple.TupleDescription {
	return op.resDesc
}

func (op *Delete) HasNext() (bool, error)      { return op.base.HasNext() }
func (op *Delete) Next() (*tuple.Tuple, error) { return op.base.Next() }

func (op *Delete) Rewind() error {
	if err := op.child.Rewind(); err != nil {
		return err
	}
	op.done = false
	op.base.ClearCache()
	return nil
}

func (op *Delete) readNext() (*tuple.Tuple, error) {
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
		if err := op.pool.DeleteTuple(op.tid, t); err != nil {
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
