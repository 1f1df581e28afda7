package indexer

import "sync/atomic"

// IndexLock is a non-blocking lock allowing one indexing run per Indexer.
// The MCP server shares one Indexer over its database; concurrent
// index_codebase calls would interleave file and chunk upserts and race on
// the stored config fingerprint, so a second call fails with
// ErrIndexInProgress instead of waiting.
type IndexLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *IndexLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *IndexLock) Release() {
	l.state.Store(0)
}
