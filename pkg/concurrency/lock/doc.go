// Package lock implements page-granular two-phase locking for the engine.
//
// Three pieces cooperate:
//
//   - PageLock: one shared/exclusive logical lock per live page. Requests
//     that cannot be granted park on tickets; releases run a lottery that
//     wakes all shared waiters together but only one exclusive waiter at a
//     time, in FIFO order.
//
//   - LockManager: bookkeeping of which locks each transaction holds, so
//     that commit and abort can release everything in one call and the
//     buffer pool can honor no-steal during eviction.
//
//   - DeadlockDetector: a background sweep that builds the wait-for graph
//     from registered waits, waits for it to quiesce, enumerates all simple
//     cycles, and wounds the youngest transaction of each cycle. Victims
//     are woken through their parked tickets and observe the abort as an
//     ErrTransactionAborted return from SLock/XLock.
//
// Locks are held by transactions, not goroutines, but each transaction is
// assumed to run on a single goroutine for its lifetime. Holding the lock
// of one page establishes no ordering with respect to any other page;
// transactions needing multi-page consistency hold their locks until
// commit, which two-phase locking provides by construction.
package lock
