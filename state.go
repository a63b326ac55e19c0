package flowcore

import "github.com/kflow/flowcore/queue"

// NodeState is an immutable snapshot of a Node's mode and bookkeeping. It
// is replaced as a whole, under the node's exclusive lock, on every
// transition — readers load the current pointer atomically and never see
// a partially-mutated state.
type NodeState struct {
	Mode Mode

	// DownstreamCount is the number of non-sneaky edges.
	DownstreamCount int

	// Split is non-nil only when Mode == ModeSplit; it is the clone all
	// queue operations delegate to.
	Split *Node

	// Err is non-nil only when Mode == ModeError.
	Err error

	// Queue is nil until demanded. queue.Drained() and queue.Errored(err)
	// are installed as sentinels on the drained/error transitions.
	Queue *queue.Queue

	// Read is true once some consumer (read/receive/consume) has
	// demanded the queue be materialized. Producer-only materialization
	// (propagate with zero downstream) does not set this.
	Read bool

	// Transactional mirrors the subgraph-wide transactional() upgrade;
	// it decides the materialization policy for a not-yet-created
	// queue.
	Transactional bool

	// Permanent, if true, makes close/error without force a no-op, and
	// makes unlink-to-zero reopen with a fresh queue instead of closing.
	Permanent bool
}
