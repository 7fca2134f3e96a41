package lock

import "errors"

// ErrTransactionAborted is returned from a blocked SLock/XLock call when the
// deadlock detector picks the waiting transaction as a victim. It is an
// expected control-flow signal: the caller must abort the transaction via
// TransactionComplete(tid, false) and may then retry it.
var ErrTransactionAborted = errors.New("transaction aborted")
