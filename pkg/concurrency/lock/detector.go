package lock

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"heapdb/pkg/primitives"
)

const (
	// DetectionInterval is how often the background sweep wakes up.
	DetectionInterval = 10 * time.Millisecond

	// DetectionThreshold is how long the wait-for graph must have been quiet
	// before a sweep actually runs. Lock holders change frequently, so the
	// graph churns quickly; tracking it in real time and chasing every
	// incoming cycle would be expensive. Detection waits for the graph to
	// quiesce and handles the batched cycles in one pass.
	DetectionThreshold = 200 * time.Millisecond
)

// DeadlockDetector finds and breaks wait-for cycles between transactions.
// A background goroutine periodically builds the wait-for graph from the
// registered waits, enumerates all simple cycles by DFS, and aborts the
// youngest transaction of each cycle (WOUND-WAIT: the oldest transaction is
// never aborted, so the system always makes progress).
//
// Victims are aborted through their parked tickets: the detector marks the
// ticket aborted and wakes it, and the blocked SLock/XLock call returns
// ErrTransactionAborted. A transaction that is not blocked has no ticket
// and cannot be wounded mid-flight.
type DeadlockDetector struct {
	mu         sync.Mutex
	waitMap    map[*primitives.TransactionID]map[*PageLock]struct{}
	lastUpdate time.Time
	lastCheck  time.Time
	interval   time.Duration
	threshold  time.Duration
	logger     *logrus.Logger
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewDeadlockDetector creates a detector and starts its background sweep.
// Callers must Stop it when the engine shuts down.
func NewDeadlockDetector(interval, threshold time.Duration, logger *logrus.Logger) *DeadlockDetector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := time.Now()
	d := &DeadlockDetector{
		waitMap:    make(map[*primitives.TransactionID]map[*PageLock]struct{}),
		lastUpdate: now,
		lastCheck:  now,
		interval:   interval,
		threshold:  threshold,
		logger:     logger,
		stop:       make(chan struct{}),
	}
	go d.run()
	return d
}

// NewDefaultDeadlockDetector creates a detector with the standard interval
// and threshold.
func NewDefaultDeadlockDetector(logger *logrus.Logger) *DeadlockDetector {
	return NewDeadlockDetector(DetectionInterval, DetectionThreshold, logger)
}

// WaitFor records that tid is blocked waiting on lock.
func (d *DeadlockDetector) WaitFor(tid *primitives.TransactionID, lock *PageLock) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastUpdate = time.Now()
	if d.waitMap[tid] == nil {
		d.waitMap[tid] = make(map[*PageLock]struct{})
	}
	d.waitMap[tid][lock] = struct{}{}
}

// Unwait removes the edge from tid to lock. Acts as a no-op if tid is not
// waiting on the lock.
func (d *DeadlockDetector) Unwait(tid *primitives.TransactionID, lock *PageLock) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastUpdate = time.Now()
	if waits, ok := d.waitMap[tid]; ok {
		delete(waits, lock)
		if len(waits) == 0 {
			delete(d.waitMap, tid)
		}
	}
}

// UnwaitAll removes tid's entries entirely. Called at transaction end.
func (d *DeadlockDetector) UnwaitAll(tid *primitives.TransactionID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastUpdate = time.Now()
	delete(d.waitMap, tid)
}

// Stop terminates the background sweep goroutine.
func (d *DeadlockDetector) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
}

func (d *DeadlockDetector) run() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.detect()
		}
	}
}

// detect enumerates wait-for cycles and aborts victims. Because every edge
// mutation takes d.mu, the graph seen while holding it is a consistent
// point-in-time snapshot.
func (d *DeadlockDetector) detect() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if now.Sub(d.lastUpdate) < d.threshold || now.Sub(d.lastCheck) < d.threshold {
		return
	}

	toAbort := make(map[*primitives.TransactionID]struct{})
	seen := make(map[*primitives.TransactionID]bool)

	// Brute-force all-simple-cycle detection: run DFS from every node.
	for root := range d.waitMap {
		if seen[root] {
			continue
		}
		seen[root] = true
		path := []*primitives.TransactionID{root}
		cycles := make(map[string][]*primitives.TransactionID)
		d.dfs(root, seen, &path, cycles)

		for _, cycle := range cycles {
			victim := cycle[0]
			for _, node := range cycle {
				if node.ID() > victim.ID() {
					victim = node
				}
			}
			toAbort[victim] = struct{}{}
		}

		// If everything but the oldest waiter must abort, nothing more can
		// be found.
		if len(d.waitMap) > 1 && len(toAbort) >= len(d.waitMap)-1 {
			break
		}
	}

	if len(toAbort) > 0 {
		d.logger.WithField("victims", len(toAbort)).Warn("deadlock detected, aborting transactions")
	}
	for tid := range toAbort {
		d.abortLocked(tid)
	}
	d.lastCheck = time.Now()
}

// dfs walks the implicit wait-for graph: from each waiting transaction,
// edges lead to every current holder of every lock it waits on. A cycle is
// recorded when the walk returns to the path's root; the canonical member
// key deduplicates rotations of the same cycle.
func (d *DeadlockDetector) dfs(node *primitives.TransactionID, seen map[*primitives.TransactionID]bool,
	path *[]*primitives.TransactionID, cycles map[string][]*primitives.TransactionID) {
	locks, ok := d.waitMap[node]
	if !ok {
		return
	}
	for lock := range locks {
		for _, child := range lock.Holders() {
			if child == node {
				continue // ignore self-loop
			}
			if child == (*path)[0] && len(*path) > 1 {
				cycle := make([]*primitives.TransactionID, len(*path))
				copy(cycle, *path)
				cycles[cycleKey(cycle)] = cycle
				continue
			}
			if !onPath(*path, child) && !seen[child] {
				*path = append(*path, child)
				d.dfs(child, seen, path, cycles)
				*path = (*path)[:len(*path)-1]
			}
		}
	}
}

// abortLocked wounds a victim through every lock it is parked on. If the
// victim was caught mid-retry with no parked ticket, its wait edges are
// left in place so the next sweep sees the cycle again. Callers must hold
// d.mu.
func (d *DeadlockDetector) abortLocked(tid *primitives.TransactionID) {
	wounded := false
	for lock := range d.waitMap[tid] {
		if lock.abortWaiter(tid) {
			wounded = true
			d.logger.WithFields(logrus.Fields{
				"tid":  tid.String(),
				"page": lock.Pid(),
			}).Info("aborted deadlock victim")
		}
	}
	if wounded {
		delete(d.waitMap, tid)
	}
}

func cycleKey(cycle []*primitives.TransactionID) string {
	ids := make([]int64, len(cycle))
	for i, tid := range cycle {
		ids[i] = tid.ID()
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func onPath(path []*primitives.TransactionID, tid *primitives.TransactionID) bool {
	for _, node := range path {
		if node == tid {
			return true
		}
	}
	return false
}
