package optimizer

import "heapdb/pkg/primitives"

// StringHistogram estimates selectivity over string fields by mapping each
// string to an integer and delegating to an IntHistogram. The mapping packs
// the first four bytes, so it preserves lexicographic order for the
// prefixes it sees.
type StringHistogram struct {
	hist *IntHistogram
}

func NewStringHistogram(buckets int) *StringHistogram {
	return &StringHistogram{
		hist: NewIntHistogram(buckets, stringToInt(""), stringToInt("zzzz")),
	}
}

func (h *StringHistogram) AddValue(s string) {
	h.hist.AddValue(stringToInt(s))
}

func (h *StringHistogram) EstimateSelectivity(op primitives.Predicate, s string) float64 {
	return h.hist.EstimateSelectivity(op, stringToInt(s))
}

func (h *StringHistogram) AvgSelectivity() float64 {
	return h.hist.AvgSelectivity()
}

// stringToInt packs the first four bytes of s big-endian into an integer,
// preserving string order for four-byte prefixes. Missing bytes count as
// zero.
func stringToInt(s string) int64 {
	var v int64
	for i := 0; i < 4; i++ {
		v <<= 8
		if i < len(s) {
			v |= int64(s[i])
		}
	}
	return v
}
