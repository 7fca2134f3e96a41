package iterator

import "fmt"

// SubsetIterator yields every subset of the given size from a sequence of
// values, exactly C(n, k) of them, each at most once. The enumeration
// splits on the head element: subsets that exclude it come from the tail at
// the same size, subsets that include it come from the tail at size-1.
type SubsetIterator[T any] struct {
	vals []T
	size int
	pos  int // cursor for the size==1 base case
	sub1 *SubsetIterator[T]
	sub2 *SubsetIterator[T]
	done bool
}

// NewSubsetIterator creates an iterator over all size-k subsets of vals.
// The size must lie in [0, len(vals)].
func NewSubsetIterator[T any](vals []T, size int) (*SubsetIterator[T], error) {
	if size < 0 || size > len(vals) {
		return nil, fmt.Errorf("illegal subset size %d for %d values", size, len(vals))
	}

	it := &SubsetIterator[T]{vals: vals, size: size}
	if size == 0 || size == len(vals) || size == 1 {
		return it, nil
	}

	sub1, err := NewSubsetIterator(vals[1:], size)
	if err != nil {
		return nil, err
	}
	sub2, err := NewSubsetIterator(vals[1:], size-1)
	if err != nil {
		return nil, err
	}
	it.sub1 = sub1
	it.sub2 = sub2
	return it, nil
}

func (it *SubsetIterator[T]) HasNext() bool {
	if it.size == 0 || it.size == len(it.vals) {
		return !it.done
	}
	if it.size == 1 {
		return it.pos < len(it.vals)
	}
	return it.sub1.HasNext() || it.sub2.HasNext()
}

func (it *SubsetIterator[T]) Next() ([]T, error) {
	if !it.HasNext() {
		return nil, fmt.Errorf("calling Next on finished iterator")
	}

	if it.size == 0 {
		it.done = true
		return []T{}, nil
	}
	if it.size == len(it.vals) {
		it.done = true
		res := make([]T, len(it.vals))
		copy(res, it.vals)
		return res, nil
	}
	if it.size == 1 {
		res := []T{it.vals[it.pos]}
		it.pos++
		return res, nil
	}

	if it.sub1.HasNext() {
		return it.sub1.Next()
	}
	res, err := it.sub2.Next()
	if err != nil {
		return nil, err
	}
	return append(res, it.vals[0]), nil
}
