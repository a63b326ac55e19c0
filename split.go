package flowcore

import "github.com/kflow/flowcore/asymlock"

// Split produces a clone that inherits this node's current state, edges,
// watchers, and cancellations. The original transitions to split mode
// with its queue cleared and its edges/watchers/cancellations cleared; a
// sneaky synthetic edge to the clone is installed so the original still
// appears connected for bookkeeping. From this point on, every queue
// operation on the original delegates to the clone — see ReadNode,
// Receive, Drain, Cancel, and Consume's split forwarding.
func (n *Node) Split() *Node {
	n.lock.AcquireExclusive()
	defer n.lock.ReleaseExclusive()

	cur := n.state.Load()

	clone := &Node{
		id:          nextNodeID(),
		lock:        asymlock.New(),
		operator:    n.operator,
		description: n.description + ".split",
		grounded:    n.grounded,
		log:         n.log,
		cleanupQ:    n.cleanupQ,
	}
	cloneState := *cur
	clone.state.Store(&cloneState)
	clone.edges.Store(n.edges.Load())
	clone.watchers = append([]watcherEntry{}, n.watchers...)
	clone.watcherSeq = n.watcherSeq
	if len(n.cancellations) > 0 {
		clone.cancellations = make(map[string]cancellation, len(n.cancellations))
		for k, v := range n.cancellations {
			clone.cancellations[k] = v
		}
	}

	next := NodeState{
		Mode:          ModeSplit,
		Split:         clone,
		Permanent:     cur.Permanent,
		Transactional: cur.Transactional,
	}
	n.state.Store(&next)
	n.edges.Store(&[]Edge{{Next: clone, Description: "split", Sneaky: true}})
	n.watchers = nil
	n.watcherSeq = 0
	n.cancellations = nil

	return clone
}
