package iterator

import (
	"fmt"
	"sort"
	"strings"
	"testing"
)

func collectSubsets(t *testing.T, vals []int, size int) [][]int {
	t.Helper()
	it, err := NewSubsetIterator(vals, size)
	if err != nil {
		t.Fatalf("NewSubsetIterator failed: %v", err)
	}

	var res [][]int
	for it.HasNext() {
		s, err := it.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		res = append(res, s)
	}
	return res
}

// A k-subset generator over n elements yields exactly C(n, k) distinct
// subsets; for n=6 the cardinalities at k=0,1,4,6 are 1, 6, 15, 1.
func TestSubsetIteratorCardinalities(t *testing.T) {
	vals := []int{1, 2, 3, 4, 5, 6}
	want := map[int]int{0: 1, 1: 6, 4: 15, 6: 1}

	for size, expected := range want {
		subsets := collectSubsets(t, vals, size)
		if len(subsets) != expected {
			t.Errorf("C(6,%d): got %d subsets, want %d", size, len(subsets), expected)
		}

		seen := make(map[string]struct{})
		for _, s := range subsets {
			if len(s) != size {
				t.Errorf("subset %v has size %d, want %d", s, len(s), size)
			}
			sorted := append([]int(nil), s...)
			sort.Ints(sorted)
			key := fmt.Sprint(sorted)
			if _, dup := seen[key]; dup {
				t.Errorf("duplicate subset %v at size %d", s, size)
			}
			seen[key] = struct{}{}
		}
	}
}

func TestSubsetIteratorFullRange(t *testing.T) {
	vals := []int{1, 2, 3, 4, 5}
	total := 0
	for k := 0; k <= len(vals); k++ {
		total += len(collectSubsets(t, vals, k))
	}
	if total != 1<<len(vals) {
		t.Errorf("all subset sizes together: got %d, want %d", total, 1<<len(vals))
	}
}

func TestSubsetIteratorInvalidSize(t *testing.T) {
	if _, err := NewSubsetIterator([]int{1, 2}, 3); err == nil {
		t.Error("size > n should fail")
	}
	if _, err := NewSubsetIterator([]int{1, 2}, -1); err == nil {
		t.Error("negative size should fail")
	}
}

func TestSubsetIteratorExhaustion(t *testing.T) {
	it, err := NewSubsetIterator([]string{"a"}, 1)
	if err != nil {
		t.Fatalf("NewSubsetIterator failed: %v", err)
	}

	s, err := it.Next()
	if err != nil || strings.Join(s, "") != "a" {
		t.Fatalf("Next returned %v, %v", s, err)
	}
	if it.HasNext() {
		t.Error("iterator should be exhausted")
	}
	if _, err := it.Next(); err == nil {
		t.Error("Next on a finished iterator should fail")
	}
}
