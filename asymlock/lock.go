// Package asymlock implements the asymmetric (shared vs. exclusive) lock
// every flowcore Node owns. Reads of a Node's published NodeState never take
// this lock — the state is swapped atomically by pointer — but every
// multi-step read-modify-write sequence (state transitions, queue
// materialization, link/unlink) executes under the exclusive half of it.
package asymlock

import "sync"

// Lock is a thin, semantically-named wrapper around sync.RWMutex. It exists
// so that Node can implement the Lock capability from spec §6 by delegating
// without exposing sync.RWMutex's Lock/Unlock naming (which reads backwards
// for a "shared acquire" call).
type Lock struct {
	mu sync.RWMutex
}

// New returns an unlocked Lock.
func New() *Lock {
	return &Lock{}
}

// Acquire takes the shared (read) half of the lock. Any number of holders
// may hold it concurrently, but not alongside an exclusive holder.
func (l *Lock) Acquire() {
	l.mu.RLock()
}

// Release releases a previously acquired shared lock.
func (l *Lock) Release() {
	l.mu.RUnlock()
}

// TryAcquire attempts to take the shared lock without blocking.
func (l *Lock) TryAcquire() bool {
	return l.mu.TryRLock()
}

// AcquireExclusive takes the exclusive (write) half of the lock. Every
// Node mode transition, link/unlink, and queue materialization happens
// while holding this.
func (l *Lock) AcquireExclusive() {
	l.mu.Lock()
}

// ReleaseExclusive releases a previously acquired exclusive lock.
func (l *Lock) ReleaseExclusive() {
	l.mu.Unlock()
}

// TryAcquireExclusive attempts to take the exclusive lock without blocking.
func (l *Lock) TryAcquireExclusive() bool {
	return l.mu.TryLock()
}
