package optimizer

import (
	"testing"

	"heapdb/pkg/primitives"
)

func TestIntHistogramEqualitySelectivity(t *testing.T) {
	h := NewIntHistogram(10, 1, 100)
	for v := int64(1); v <= 100; v++ {
		h.AddValue(v)
	}

	sel := h.EstimateSelectivity(primitives.Equals, 50)
	if sel < 0.005 || sel > 0.02 {
		t.Errorf("uniform equality selectivity = %f, want ~0.01", sel)
	}

	if h.EstimateSelectivity(primitives.Equals, 1000) != 0 {
		t.Error("out-of-range equality must be 0")
	}
}

func TestIntHistogramRangeSelectivity(t *testing.T) {
	h := NewIntHistogram(10, 1, 100)
	for v := int64(1); v <= 100; v++ {
		h.AddValue(v)
	}

	if sel := h.EstimateSelectivity(primitives.GreaterThan, 0); sel != 1 {
		t.Errorf("GT below min = %f, want 1", sel)
	}
	if sel := h.EstimateSelectivity(primitives.GreaterThan, 100); sel != 0 {
		t.Errorf("GT at max = %f, want 0", sel)
	}

	mid := h.EstimateSelectivity(primitives.GreaterThan, 50)
	if mid < 0.4 || mid > 0.6 {
		t.Errorf("GT at median = %f, want ~0.5", mid)
	}

	lt := h.EstimateSelectivity(primitives.LessThan, 50)
	if lt < 0.4 || lt > 0.6 {
		t.Errorf("LT at median = %f, want ~0.5", lt)
	}
}

func TestIntHistogramComplementOps(t *testing.T) {
	h := NewIntHistogram(10, 1, 100)
	for v := int64(1); v <= 100; v++ {
		h.AddValue(v)
	}

	eq := h.EstimateSelectivity(primitives.Equals, 42)
	ne := h.EstimateSelectivity(primitives.NotEqual, 42)
	if diff := eq + ne - 1; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("EQ + NE = %f, want 1", eq+ne)
	}

	ge := h.EstimateSelectivity(primitives.GreaterThanOrEqual, 42)
	gt := h.EstimateSelectivity(primitives.GreaterThan, 42)
	if ge < gt {
		t.Errorf("GE (%f) must be at least GT (%f)", ge, gt)
	}
}

func TestIntHistogramSkewedData(t *testing.T) {
	h := NewIntHistogram(10, 1, 100)
	for i := 0; i < 1000; i++ {
		h.AddValue(5)
	}
	h.AddValue(95)

	hot := h.EstimateSelectivity(primitives.Equals, 5)
	cold := h.EstimateSelectivity(primitives.Equals, 95)
	if hot <= cold {
		t.Errorf("hot value selectivity (%f) should dominate cold (%f)", hot, cold)
	}
}

func TestIntHistogramEmpty(t *testing.T) {
	h := NewIntHistogram(10, 1, 100)
	if sel := h.EstimateSelectivity(primitives.Equals, 50); sel != 0 {
		t.Errorf("empty histogram selectivity = %f, want 0", sel)
	}
}

func TestIntHistogramMoreBucketsThanValues(t *testing.T) {
	h := NewIntHistogram(100, 1, 5)
	for v := int64(1); v <= 5; v++ {
		h.AddValue(v)
	}

	sel := h.EstimateSelectivity(primitives.Equals, 3)
	if sel < 0.15 || sel > 0.25 {
		t.Errorf("selectivity = %f, want ~0.2", sel)
	}
}

func TestStringHistogramOrdering(t *testing.T) {
	h := NewStringHistogram(100)
	for _, s := range []string{"apple", "banana", "cherry", "date", "elder"} {
		h.AddValue(s)
	}

	low := h.EstimateSelectivity(primitives.LessThan, "aaaa")
	high := h.EstimateSelectivity(primitives.LessThan, "zzzz")
	if low >= high {
		t.Errorf("LT selectivity must grow with the operand: %f vs %f", low, high)
	}
}
