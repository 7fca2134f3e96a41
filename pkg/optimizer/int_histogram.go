package optimizer

import (
	"fmt"
	"math"
	"strings"

	"heapdb/pkg/primitives"
)

// IntHistogram is a fixed-width histogram over a single integer field.
// Values are folded in one at a time; space and estimation time are
// constant in the number of values seen.
type IntHistogram struct {
	buckets int
	min     int64
	max     int64
	step    float64
	counts  []int64
	widths  []int64
	ntups   int64
}

// NewIntHistogram creates a histogram over [min, max] split into the given
// number of buckets. When there are more buckets than integers in the
// range, only the front buckets are used.
func NewIntHistogram(buckets int, min, max int64) *IntHistogram {
	if span := max - min + 1; int64(buckets) > span {
		buckets = int(span)
	}

	h := &IntHistogram{
		buckets: buckets,
		min:     min,
		max:     max,
		step:    float64(max-min+1) / float64(buckets),
		counts:  make([]int64, buckets),
		widths:  make([]int64, buckets),
	}
	for i := 0; i < buckets; i++ {
		h.widths[i] = int64(math.Floor(float64(i+1)*h.step)) - int64(math.Floor(float64(i)*h.step))
	}
	return h
}

// AddValue folds v into the histogram.
func (h *IntHistogram) AddValue(v int64) {
	h.counts[h.bucketOf(v)]++
	h.ntups++
}

// EstimateSelectivity returns the estimated fraction of values satisfying
// "value op v".
func (h *IntHistogram) EstimateSelectivity(op primitives.Predicate, v int64) float64 {
	if h.ntups == 0 {
		return 0
	}

	switch op {
	case primitives.Equals:
		if v > h.max || v < h.min {
			return 0
		}
		b := h.bucketOf(v)
		return (float64(h.counts[b]) / float64(h.widths[b])) / float64(h.ntups)

	case primitives.GreaterThan:
		if v >= h.max {
			return 0
		}
		if v < h.min {
			return 1
		}
		b := h.bucketOf(v)
		bRight := max64(
			int64(math.Floor(float64(h.min)+float64(b+1)*h.step))-1,
			int64(math.Floor(float64(h.min)+float64(b)*h.step)))
		ans := (float64(h.counts[b]) / float64(h.ntups)) * (float64(bRight-v+1) / float64(h.widths[b]))
		for i := b + 1; i < h.buckets; i++ {
			ans += float64(h.counts[i]) / float64(h.ntups)
		}
		return ans

	case primitives.LessThan:
		if v > h.max {
			return 1
		}
		if v <= h.min {
			return 0
		}
		b := h.bucketOf(v)
		bLeft := int64(math.Floor(float64(h.min) + float64(b)*h.step))
		ans := (float64(h.counts[b]) / float64(h.ntups)) * (float64(v-bLeft+1) / float64(h.widths[b]))
		for i := 0; i < b; i++ {
			ans += float64(h.counts[i]) / float64(h.ntups)
		}
		return ans

	case primitives.GreaterThanOrEqual:
		return h.EstimateSelectivity(primitives.Equals, v) + h.EstimateSelectivity(primitives.GreaterThan, v)

	case primitives.LessThanOrEqual:
		return h.EstimateSelectivity(primitives.Equals, v) + h.EstimateSelectivity(primitives.LessThan, v)

	case primitives.NotEqual:
		return 1 - h.EstimateSelectivity(primitives.Equals, v)

	default:
		panic(fmt.Sprintf("illegal op %v for int histogram estimation", op))
	}
}

// AvgSelectivity returns 1.0 whatever values have been added; the bucket
// counts are not consulted.
func (h *IntHistogram) AvgSelectivity() float64 {
	return 1.0
}

func (h *IntHistogram) bucketOf(v int64) int {
	b := int(math.Floor(float64(v-h.min) / h.step))
	if b < 0 {
		return 0
	}
	if b >= h.buckets {
		return h.buckets - 1
	}
	return b
}

func (h *IntHistogram) String() string {
	var b strings.Builder
	for i := 0; i < h.buckets; i++ {
		lo := int64(math.Floor(float64(h.min) + float64(i)*h.step))
		hi := int64(math.Floor(float64(h.min) + float64(i+1)*h.step))
		fmt.Fprintf(&b, " [%d, %d): %d", lo, hi, h.counts[i])
	}
	return b.String()
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
