// Package flowcore implements a thread-safe vertex in a directed graph of
// message propagators: a Node that accepts a message upstream, optionally
// transforms it, and propagates the result to zero or more downstream
// propagators, while maintaining an internal queue for buffering and
// supporting lifecycle transitions and dynamic linking/unlinking.
package flowcore

import (
	"sync/atomic"

	"github.com/kflow/flowcore/asymlock"
	"github.com/kflow/flowcore/cleanup"
	"github.com/kflow/flowcore/flog"
	"github.com/kflow/flowcore/queue"
)

var nodeIDCounter atomic.Uint64

func nextNodeID() uint64 {
	return nodeIDCounter.Add(1)
}

// watcherEntry is a registered on-state-changed callback. id makes
// removal possible despite fn not being comparable.
type watcherEntry struct {
	id   uint64
	name string
	fn   func(mode Mode, downstreamCount int, err error)
}

// cancellation is one registered reversible handle: either a plain thunk
// (link/watcher cancellation) or a pending result (receive cancellation).
type cancellation struct {
	fn     func()
	result interface{ Cancel() }
}

// Node is the mutable container described by spec §3: lock, operator,
// description, grounded flag, current state, edges, watchers, and
// cancellations.
type Node struct {
	id          uint64
	lock        *asymlock.Lock
	operator    Operator
	description string
	grounded    bool
	log         *flog.Logger
	cleanupQ    *cleanup.Queue

	state atomic.Pointer[NodeState]
	edges atomic.Pointer[[]Edge]

	// watchers and cancellations are mutated only under lock, per spec
	// §5's shared-resource policy.
	watchers      []watcherEntry
	watcherSeq    uint64
	cancellations map[string]cancellation

	// txGuard is non-zero while this node participates in an active
	// transactional() upgrade; Cancel consults it to enforce spec §5's
	// "cancellation inside an active transaction is forbidden."
	txGuard int32
}

// Option configures a Node at construction time, in the style of
// kstreams.Option.
type Option func(*Node)

// WithOperator installs the node's message transform.
func WithOperator(op Operator) Option {
	return func(n *Node) { n.operator = op }
}

// WithGrounded marks the node grounded: messages arriving with zero
// downstream edges are discarded instead of buffered.
func WithGrounded(grounded bool) Option {
	return func(n *Node) { n.grounded = grounded }
}

// WithLogger installs a structured logger for watcher-panic reporting.
// The default is flog.Nop(). Mode transitions are not logged.
func WithLogger(l *flog.Logger) Option {
	return func(n *Node) {
		if l != nil {
			n.log = l
		}
	}
}

// WithPermanent marks the node permanent at construction: close/error
// without force become no-ops, and draining to zero downstream reopens
// with a fresh queue instead of closing.
func WithPermanent(permanent bool) Option {
	return func(n *Node) {
		cur := n.state.Load()
		next := *cur
		next.Permanent = permanent
		n.state.Store(&next)
	}
}

// WithTransactional marks the node transactional from construction,
// skipping the usual transactional() upgrade.
func WithTransactional(transactional bool) Option {
	return func(n *Node) {
		cur := n.state.Load()
		next := *cur
		next.Transactional = transactional
		n.state.Store(&next)
	}
}

// WithCleanupQueue overrides the cleanup.Queue connectors defer cascading
// work onto. Without this, connectors lazily use the process-wide default
// (see InitCleanup).
func WithCleanupQueue(q *cleanup.Queue) Option {
	return func(n *Node) { n.cleanupQ = q }
}

// New constructs a Node in open mode with a nil queue.
func New(description string, opts ...Option) *Node {
	n := &Node{
		id:          nextNodeID(),
		lock:        asymlock.New(),
		description: description,
		log:         flog.Nop(),
	}
	n.edges.Store(&[]Edge{})
	n.state.Store(&NodeState{Mode: ModeOpen})

	for _, opt := range opts {
		opt(n)
	}
	return n
}

// LockID and Locker satisfy asymlock.Identified, letting a set of Nodes be
// locked deadlock-free by Transactional.
func (n *Node) LockID() uint64         { return n.id }
func (n *Node) Locker() *asymlock.Lock { return n.lock }

// Description returns the node's opaque label (Describable capability).
func (n *Node) Description() string { return n.description }

// Mode returns the current mode. Safe to call without any lock: state is
// swapped atomically by pointer.
func (n *Node) Mode() Mode { return n.state.Load().Mode }

// State returns a copy of the current state snapshot.
func (n *Node) State() NodeState { return *n.state.Load() }

// Downstream returns the current non-sneaky edge count (Propagator
// capability).
func (n *Node) Downstream() int { return n.state.Load().DownstreamCount }

// Size returns the number of currently buffered messages (Counted
// capability). Zero if no queue has been materialized.
func (n *Node) Size() int {
	q := n.state.Load().Queue
	if q == nil {
		return 0
	}
	return q.Size()
}

// Acquire/Release/TryAcquire and their exclusive counterparts delegate to
// the node's own lock, implementing the Lock capability from spec §6.
func (n *Node) Acquire()                  { n.lock.Acquire() }
func (n *Node) Release()                  { n.lock.Release() }
func (n *Node) TryAcquire() bool          { return n.lock.TryAcquire() }
func (n *Node) AcquireExclusive()         { n.lock.AcquireExclusive() }
func (n *Node) ReleaseExclusive()         { n.lock.ReleaseExclusive() }
func (n *Node) TryAcquireExclusive() bool { return n.lock.TryAcquireExclusive() }

func (n *Node) edgesSnapshot() []Edge {
	p := n.edges.Load()
	if p == nil {
		return nil
	}
	return *p
}

// ensureQueueLocked materializes next.Queue if absent, matching
// state.Transactional's policy. markRead records that a consumer (as
// opposed to a producer with nowhere to put a message) demanded it.
// Callers must already hold the exclusive lock and must store next back
// via n.state.Store.
func ensureQueueLocked(next *NodeState, markRead bool) *queue.Queue {
	if next.Queue == nil {
		next.Queue = queue.New(next.Transactional)
	}
	if markRead {
		next.Read = true
	}
	return next.Queue
}

func (n *Node) registerCancellationLocked(name string, fn func()) {
	if name == "" {
		return
	}
	if n.cancellations == nil {
		n.cancellations = map[string]cancellation{}
	}
	n.cancellations[name] = cancellation{fn: fn}
}

func (n *Node) registerResultCancellationLocked(name string, result interface{ Cancel() }) {
	if name == "" {
		return
	}
	if n.cancellations == nil {
		n.cancellations = map[string]cancellation{}
	}
	n.cancellations[name] = cancellation{result: result}
}

func (n *Node) cleanupQueue() *cleanup.Queue {
	if n.cleanupQ != nil {
		return n.cleanupQ
	}
	return defaultCleanupQueue()
}
