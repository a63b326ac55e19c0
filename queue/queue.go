// Package queue implements the FIFO message buffer a Node materializes on
// demand: enqueue/receive/drain/close, the drained and error sentinels, and
// the transactional-copy operation the hand-over-hand transactional()
// upgrade installs.
//
// Enqueue and Receive rendezvous through a shared flowresult.Result per
// message: a message enqueued with nobody waiting gets its own pending
// Result, which resolves the instant some later Receive call claims it. A
// message enqueued while a matching Receive is already waiting resolves
// that waiter's Result immediately and hands the producer an
// already-resolved Result back. This is what lets propagate's
// zero-downstream and consumed-mode paths report "delivered" the moment a
// consumer actually takes the value, not merely the moment it was buffered.
//
// A Queue is safe for concurrent use. Node still serializes most queue
// operations behind its own exclusive lock (spec §5), but the rendezvous
// above can complete from whichever goroutine calls Receive, so the buffer
// itself needs its own mutex independent of Node's.
package queue

import (
	"errors"
	"sync"

	"github.com/kflow/flowcore/flowresult"
)

// ErrClosed is the error an Enqueue Result carries when the queue no longer
// accepts new messages. Receive on a closed, empty queue does not use it:
// it resolves to falseValue with a nil error.
var ErrClosed = errors.New("queue: closed")

// waiter is a pending Receive call: a predicate the next matching message
// must satisfy, and the Result it will resolve.
type waiter struct {
	predicate func(any) bool
	result    *flowresult.Result
}

// bufferedItem pairs a buffered value with the Result its eventual
// consumer (and, transitively, its original producer) observes.
type bufferedItem struct {
	value  any
	result *flowresult.Result
}

// Queue is the concrete FIFO buffer. The zero value is not usable; build
// one with New, Drained, or Errored.
type Queue struct {
	mu            sync.Mutex
	items         []bufferedItem
	closed        bool
	drained       bool
	err           error
	transactional bool
	waiters       []*waiter
}

// New returns an empty, open queue. transactional matches the Node's
// state.transactional? flag at materialization time (spec §4.4).
func New(transactional bool) *Queue {
	return &Queue{transactional: transactional}
}

var drainedSingleton = &Queue{closed: true, drained: true}

// Drained returns the shared drained-sentinel queue. It carries no
// messages and every operation on it behaves as already-terminal; spec §3
// calls for a single such sentinel to replace a node's real queue once it
// reaches drained mode.
func Drained() *Queue {
	return drainedSingleton
}

// Errored returns a fresh error-sentinel queue carrying err. Unlike
// Drained this cannot be a process-wide singleton since the error value
// varies per node.
func Errored(err error) *Queue {
	return &Queue{closed: true, err: err}
}

// TransactionalCopy builds a new Queue with q's buffered contents (but not
// its waiters — those stay bound to the original queue) and the
// transactional flag forced on. This backs the queue half of Node's
// transactional() upgrade (spec §4.2).
func TransactionalCopy(q *Queue) *Queue {
	q.mu.Lock()
	defer q.mu.Unlock()

	copied := make([]bufferedItem, len(q.items))
	copy(copied, q.items)
	return &Queue{
		items:         copied,
		closed:        q.closed,
		drained:       q.drained,
		err:           q.err,
		transactional: true,
	}
}

// Transactional reports whether this queue was materialized (or copied)
// with transactional semantics.
func (q *Queue) Transactional() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.transactional
}

// Closed reports whether the queue no longer accepts new messages. A
// drained or errored queue is always closed.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// IsDrained reports whether the queue is the terminal drained sentinel, or
// has become empty after being closed.
func (q *Queue) IsDrained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.isDrainedLocked()
}

func (q *Queue) isDrainedLocked() bool {
	return q.drained || (q.closed && q.err == nil && len(q.items) == 0)
}

// Error returns the error carried by an error-sentinel queue, or nil.
func (q *Queue) Error() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Size returns the number of currently buffered messages. This backs the
// Node's Counted capability (spec §6).
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Enqueue offers msg to the queue. When persist is false the message is
// never buffered: it either resolves an already-pending waiter right now,
// or is handed straight to onComplete as an already-delivered no-op — this
// is the ordering-only idiom propagate's single-edge and fan-out paths rely
// on (spec §4.2). When persist is true and nobody is waiting, msg joins the
// backlog behind a pending Result that a future Receive call will settle.
//
// onComplete, if non-nil, runs synchronously before Enqueue returns. Node
// uses it as the hand-over point to release its own lock exactly when the
// message has been accepted — the "enqueue-and-release" idiom from §5.
func (q *Queue) Enqueue(msg any, persist bool, onComplete func()) *flowresult.Result {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		if onComplete != nil {
			onComplete()
		}
		return flowresult.Resolved(nil, ErrClosed, flowresult.Metadata{})
	}

	if w := q.matchWaiterLocked(msg); w != nil {
		q.mu.Unlock()
		w.result.Resolve(msg, nil)
		if onComplete != nil {
			onComplete()
		}
		return flowresult.Resolved(msg, nil, flowresult.Metadata{})
	}

	if !persist {
		q.mu.Unlock()
		if onComplete != nil {
			onComplete()
		}
		return flowresult.Resolved(msg, nil, flowresult.Metadata{})
	}

	item := bufferedItem{value: msg, result: flowresult.New(nil)}
	q.items = append(q.items, item)
	q.mu.Unlock()

	if onComplete != nil {
		onComplete()
	}
	return item.result
}

// matchWaiterLocked pops and returns the first waiter whose predicate
// accepts msg, or nil. Callers must hold q.mu.
func (q *Queue) matchWaiterLocked(msg any) *waiter {
	for i, w := range q.waiters {
		if w.predicate == nil || w.predicate(msg) {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return w
		}
	}
	return nil
}

// Receive resolves immediately against a buffered message matching
// predicate (nil matches anything), or registers a pending waiter and
// returns an async Result that resolves once a matching message is
// enqueued. falseValue is returned as the resolved value when the queue is
// already drained or errored and nothing matches, mirroring spec's
// "[predicate, false-value, result]" contract.
func (q *Queue) Receive(predicate func(any) bool, falseValue any) *flowresult.Result {
	q.mu.Lock()

	if q.err != nil {
		err := q.err
		q.mu.Unlock()
		return flowresult.Resolved(falseValue, err, flowresult.Metadata{})
	}

	for i, item := range q.items {
		if predicate == nil || predicate(item.value) {
			q.items = append(q.items[:i], q.items[i+1:]...)
			q.mu.Unlock()
			item.result.Resolve(item.value, nil)
			return flowresult.Resolved(item.value, nil, flowresult.Metadata{})
		}
	}

	if q.isDrainedLocked() {
		q.mu.Unlock()
		return flowresult.Resolved(falseValue, nil, flowresult.Metadata{})
	}

	w := &waiter{predicate: predicate}
	w.result = flowresult.New(func() { q.cancelWaiter(w) })
	q.waiters = append(q.waiters, w)
	q.mu.Unlock()
	return w.result
}

// CancelReceive cancels a pending receive registered via Receive. It is a
// no-op if the Result has already settled — a concurrent Enqueue either
// won the race or lost it, matching spec §5.
func (q *Queue) CancelReceive(r *flowresult.Result) {
	r.Cancel()
}

func (q *Queue) cancelWaiter(w *waiter) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, cur := range q.waiters {
		if cur == w {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return
		}
	}
}

// DrainAll atomically removes and returns every currently buffered
// message's value, resolving each item's Result as delivered.
func (q *Queue) DrainAll() []any {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	values := make([]any, len(items))
	for i, item := range items {
		values[i] = item.value
		item.result.Resolve(item.value, nil)
	}
	return values
}

// Close marks the queue closed: no further Enqueue calls succeed. Already
// buffered messages remain available to Receive/DrainAll until consumed.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// SignalError marks the queue errored, settling every pending waiter and
// every still-buffered producer's Result with err, and dropping the
// backlog. This is the in-place counterpart to the Errored sentinel
// constructor, used when a node that already materialized a queue
// transitions to error.
func (q *Queue) SignalError(err error) {
	q.mu.Lock()
	q.closed = true
	q.err = err
	waiters := q.waiters
	q.waiters = nil
	items := q.items
	q.items = nil
	q.mu.Unlock()

	for _, w := range waiters {
		w.result.Resolve(nil, err)
	}
	for _, item := range items {
		item.result.Resolve(nil, err)
	}
}

// DispatchAll drains the queue in FIFO order, calling fn once per message
// and resolving each item's Result as delivered. It is the
// "dispatch-message" protocol link() uses to hand a closed queue's backlog
// straight to a newly linked edge instead of leaving it buffered (spec
// §4.2). Dispatch stops and returns the first error fn produces, leaving
// the message fn failed on, and every message after it, buffered.
func (q *Queue) DispatchAll(fn func(any) error) error {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	for i, item := range items {
		if err := fn(item.value); err != nil {
			q.mu.Lock()
			q.items = append(append([]bufferedItem{}, items[i:]...), q.items...)
			q.mu.Unlock()
			return err
		}
		item.result.Resolve(item.value, nil)
	}
	return nil
}
