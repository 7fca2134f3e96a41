package optimizer

import (
	"fmt"
	"math"
	"sync"

	"heapdb/pkg/execution"
	"heapdb/pkg/memory"
	"heapdb/pkg/primitives"
	"heapdb/pkg/tables"
	"heapdb/pkg/types"
)

const (
	// IOCostPerPage is the default cost of reading one page, with no
	// distinction between sequential reads and seeks.
	IOCostPerPage = 1000

	// NumHistBins is the number of buckets per column histogram.
	NumHistBins = 100
)

// TableStats holds per-column statistics (histograms, distinct counts) for
// one base table, built by scanning it twice: once for int column ranges,
// once to populate the histograms.
type TableStats struct {
	tableID       primitives.TableID
	ioCostPerPage int
	ntups         int64
	numPages      int
	intHists      map[int]*IntHistogram
	strHists      map[int]*StringHistogram
	numDistinct   map[int]int
}

// NewTableStats scans the table and computes its statistics. The scan runs
// in its own transaction, which commits (releasing its read locks) before
// returning.
func NewTableStats(tableID primitives.TableID, ioCostPerPage int, catalog *tables.TableManager, pool *memory.BufferPool) (*TableStats, error) {
	file, err := catalog.GetDbFile(tableID)
	if err != nil {
		return nil, err
	}
	schema := file.GetTupleDesc()
	numFields := schema.NumFields()

	ts := &TableStats{
		tableID:       tableID,
		ioCostPerPage: ioCostPerPage,
		numPages:      file.NumPages(),
		intHists:      make(map[int]*IntHistogram),
		strHists:      make(map[int]*StringHistogram),
		numDistinct:   make(map[int]int),
	}

	mins := make(map[int]int64)
	maxs := make(map[int]int64)
	seenInt := make(map[int]map[int64]struct{})
	seenStr := make(map[int]map[string]struct{})

	for i := 0; i < numFields; i++ {
		fieldType, _ := schema.TypeAtIndex(i)
		if fieldType == types.IntType {
			mins[i] = math.MaxInt64
			maxs[i] = math.MinInt64
			seenInt[i] = make(map[int64]struct{})
		} else {
			ts.strHists[i] = NewStringHistogram(NumHistBins)
			seenStr[i] = make(map[string]struct{})
		}
	}

	tid := primitives.NewTransactionID()
	scan := execution.NewSeqScan(tid, file)
	if err := scan.Open(); err != nil {
		return nil, fmt.Errorf("failed to scan table %d: %w", tableID, err)
	}

	// First scan: sample min and max of int columns.
	for {
		hasNext, err := scan.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}
		t, err := scan.Next()
		if err != nil {
			return nil, err
		}
		ts.ntups++
		for i := range mins {
			f, err := t.GetField(i)
			if err != nil {
				return nil, err
			}
			v := f.(*types.IntField).Value
			mins[i] = min64(mins[i], v)
			maxs[i] = max64(maxs[i], v)
		}
	}
	for i := range mins {
		lo, hi := mins[i], maxs[i]
		if ts.ntups == 0 {
			lo, hi = 0, 0
		}
		ts.intHists[i] = NewIntHistogram(NumHistBins, lo, hi)
	}

	// Second scan: load values into the histograms and count distincts.
	if err := scan.Rewind(); err != nil {
		return nil, err
	}
	for {
		hasNext, err := scan.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}
		t, err := scan.Next()
		if err != nil {
			return nil, err
		}
		for i := 0; i < numFields; i++ {
			f, err := t.GetField(i)
			if err != nil {
				return nil, err
			}
			if h, ok := ts.strHists[i]; ok {
				v := f.(*types.StringField).Value
				h.AddValue(v)
				seenStr[i][v] = struct{}{}
			} else {
				v := f.(*types.IntField).Value
				ts.intHists[i].AddValue(v)
				seenInt[i][v] = struct{}{}
			}
		}
	}
	scan.Close()
	pool.TransactionComplete(tid, true)

	for i, seen := range seenInt {
		ts.numDistinct[i] = len(seen)
	}
	for i, seen := range seenStr {
		ts.numDistinct[i] = len(seen)
	}
	return ts, nil
}

// EstimateScanCost estimates the cost of sequentially scanning the file,
// assuming whole-page reads and a cold pool.
func (ts *TableStats) EstimateScanCost() float64 {
	return float64(ts.numPages) * float64(ts.ioCostPerPage)
}

// EstimateTableCardinality returns the expected number of tuples a scan
// with the given predicate selectivity produces.
func (ts *TableStats) EstimateTableCardinality(selectivityFactor float64) int64 {
	return int64(math.Round(float64(ts.ntups) * selectivityFactor))
}

// EstimateSelectivity estimates the fraction of the table's tuples whose
// field satisfies "field op constant".
func (ts *TableStats) EstimateSelectivity(field int, op primitives.Predicate, constant types.Field) (float64, error) {
	if h, ok := ts.strHists[field]; ok {
		s, ok := constant.(*types.StringField)
		if !ok {
			return 0, fmt.Errorf("constant is %T, expected StringField", constant)
		}
		return h.EstimateSelectivity(op, s.Value), nil
	}
	if h, ok := ts.intHists[field]; ok {
		v, ok := constant.(*types.IntField)
		if !ok {
			return 0, fmt.Errorf("constant is %T, expected IntField", constant)
		}
		return h.EstimateSelectivity(op, v.Value), nil
	}
	return 0, fmt.Errorf("field index %d out of range", field)
}

// AvgSelectivity returns the field histogram's AvgSelectivity, which is 1.0
// for every field; op does not affect the result.
func (ts *TableStats) AvgSelectivity(field int, op primitives.Predicate) (float64, error) {
	if h, ok := ts.strHists[field]; ok {
		return h.AvgSelectivity(), nil
	}
	if h, ok := ts.intHists[field]; ok {
		return h.AvgSelectivity(), nil
	}
	return 0, fmt.Errorf("field index %d out of range", field)
}

// NumDistinct returns the number of distinct values seen in the column.
func (ts *TableStats) NumDistinct(field int) (int, error) {
	n, ok := ts.numDistinct[field]
	if !ok {
		return 0, fmt.Errorf("field index %d out of range", field)
	}
	return n, nil
}

// TotalTuples returns the number of tuples in the table at scan time.
func (ts *TableStats) TotalTuples() int64 {
	return ts.ntups
}

// StatsRegistry owns the statistics of every table, keyed by table name.
// It replaces a process-wide statistics map: the registry is created with
// the database and passed to whoever estimates costs.
type StatsRegistry struct {
	mu sync.RWMutex
	m  map[string]*TableStats
}

func NewStatsRegistry() *StatsRegistry {
	return &StatsRegistry{m: make(map[string]*TableStats)}
}

func (r *StatsRegistry) Get(tableName string) (*TableStats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.m[tableName]
	return ts, ok
}

func (r *StatsRegistry) Set(tableName string, ts *TableStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[tableName] = ts
}

// ComputeStatistics rebuilds statistics for every table in the catalog.
func (r *StatsRegistry) ComputeStatistics(catalog *tables.TableManager, pool *memory.BufferPool) error {
	for _, tableID := range catalog.TableIDs() {
		ts, err := NewTableStats(tableID, IOCostPerPage, catalog, pool)
		if err != nil {
			return fmt.Errorf("failed to compute stats for table %d: %w", tableID, err)
		}
		name, err := catalog.GetTableName(tableID)
		if err != nil {
			return err
		}
		r.Set(name, ts)
	}
	return nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
