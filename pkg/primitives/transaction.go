package primitives

import (
	"fmt"
	"sync/atomic"
)

var transactionCounter int64

// TransactionID is a globally unique, monotonically increasing transaction
// identifier. Ordering defines age: a smaller id belongs to an older
// transaction. Immutable after creation; compared by pointer identity.
type TransactionID struct {
	id int64
}

func NewTransactionID() *TransactionID {
	return &TransactionID{
		id: atomic.AddInt64(&transactionCounter, 1),
	}
}

func (tid *TransactionID) ID() int64 {
	return tid.id
}

func (tid *TransactionID) String() string {
	return fmt.Sprintf("TID-%d", tid.id)
}
