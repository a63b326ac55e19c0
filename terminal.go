package flowcore

import "github.com/kflow/flowcore/queue"

// Close stops accepting further messages. A no-op returning false if
// already terminal, or if the node is permanent and force is false.
// Transitions to drained immediately if the queue is empty or absent, or
// to closed (pending drain-by-consumption) otherwise.
func (n *Node) Close(force bool) bool {
	n.lock.AcquireExclusive()
	defer n.lock.ReleaseExclusive()
	return n.closeLocked(force)
}

func (n *Node) closeLocked(force bool) bool {
	cur := n.state.Load()
	if cur.Mode.Terminal() {
		return false
	}
	if cur.Permanent && !force {
		return false
	}

	next := *cur
	n.edges.Store(&[]Edge{})
	next.DownstreamCount = 0

	if next.Queue == nil {
		next.Mode = ModeDrained
		next.Queue = queue.Drained()
	} else {
		next.Queue.Close()
		if next.Queue.IsDrained() {
			next.Mode = ModeDrained
			next.Queue = queue.Drained()
		} else {
			next.Mode = ModeClosed
		}
	}
	n.state.Store(&next)
	n.notifyWatchersLocked(next)
	return true
}

// Error transitions the node to error mode carrying err. A no-op
// returning false if already terminal, or if the node is permanent and
// force is false. Settles any pending queue waiters with err, replaces
// the queue with the error-sentinel, and clears edges (watchers and
// cancellations are cleared by notifyWatchersLocked's terminal handling).
func (n *Node) Error(err error, force bool) bool {
	n.lock.AcquireExclusive()
	defer n.lock.ReleaseExclusive()

	cur := n.state.Load()
	if cur.Mode.Terminal() {
		return false
	}
	if cur.Permanent && !force {
		return false
	}

	if cur.Queue != nil {
		cur.Queue.SignalError(err)
	}

	next := *cur
	next.Mode = ModeError
	next.Err = err
	next.Queue = queue.Errored(err)
	next.DownstreamCount = 0
	n.edges.Store(&[]Edge{})
	n.state.Store(&next)
	n.notifyWatchersLocked(next)
	return true
}
