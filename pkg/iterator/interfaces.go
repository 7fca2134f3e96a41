package iterator

import "heapdb/pkg/tuple"

// TupleIterator captures the minimal pull-based iteration contract shared
// by operators and file iterators.
type TupleIterator interface {
	// HasNext checks if there are more tuples available without consuming them.
	HasNext() (bool, error)

	// Next retrieves and returns the next tuple.
	Next() (*tuple.Tuple, error)
}

// DbIterator is the contract for query operators in the execution engine.
// Operators form trees; data flows from children to parents one tuple at a
// time.
type DbIterator interface {
	TupleIterator

	// Open initializes the iterator; must be called before iteration.
	Open() error

	// Rewind resets the iterator to the beginning of its sequence.
	Rewind() error

	// Close releases resources; the iterator is unusable until reopened.
	Close() error

	// GetTupleDesc returns the schema of the tuples this iterator produces.
	GetTupleDesc() *tuple.TupleDescription
}

// DbFileIterator iterates over the tuples of one database file. Unlike
// DbIterator it carries no schema; that is managed a level up.
type DbFileIterator interface {
	TupleIterator

	Open() error
	Rewind() error
	Close() error
}
