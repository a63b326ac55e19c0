package flowcore

import "github.com/kflow/flowcore/queue"

// Link attaches edge as a new downstream target. name, if non-empty, must
// not already be registered; on success it is bound to a cancellation
// that calls Unlink(edge). pre(success) runs just after the mode check
// decides whether linking can proceed, post(success) just after the edge
// and cancellation bookkeeping is in place.
//
// open/split: the edge is appended and downstream_count incremented
// (unless sneaky); if this is the 0→1 transition and a queue already
// exists, its backlog is drained into the new edge. closed: the node
// transitions to drained, handing its whole existing backlog to the new
// edge — a newly linked consumer "drains" a closed node. error/drained/
// consumed: linking fails.
func (n *Node) Link(name string, edge Edge, pre, post func(success bool)) bool {
	n.lock.AcquireExclusive()
	defer n.lock.ReleaseExclusive()

	if name != "" {
		if _, exists := n.cancellations[name]; exists {
			if pre != nil {
				pre(false)
			}
			if post != nil {
				post(false)
			}
			return false
		}
	}

	cur := n.state.Load()
	switch cur.Mode {
	case ModeOpen, ModeSplit:
		if pre != nil {
			pre(true)
		}

		edges := n.edgesSnapshot()
		newEdges := append(append([]Edge{}, edges...), edge)
		n.edges.Store(&newEdges)

		next := *cur
		prevCount := next.DownstreamCount
		if !edge.Sneaky {
			next.DownstreamCount++
		}
		if next.Read && next.Queue == nil {
			next.Queue = queue.New(next.Transactional)
		}
		n.state.Store(&next)

		if next.Transactional {
			if nd, ok := edge.Next.(*Node); ok {
				nd.Transactional()
			}
		}

		if !edge.Sneaky && prevCount == 0 && next.Queue != nil {
			n.dispatchQueueInto(next.Queue, edge)
		}

		n.registerCancellationLocked(name, func() { n.Unlink(edge) })

		if post != nil {
			post(true)
		}

		if !edge.Sneaky && (next.DownstreamCount == 0 || next.DownstreamCount == 1) {
			n.notifyWatchersLocked(next)
		}
		return true

	case ModeClosed:
		if pre != nil {
			pre(true)
		}

		prevQueue := cur.Queue
		n.edges.Store(&[]Edge{edge})

		next := *cur
		if !edge.Sneaky {
			next.DownstreamCount = 1
		}
		next.Mode = ModeDrained
		next.Queue = queue.Drained()
		n.state.Store(&next)

		if prevQueue != nil {
			n.dispatchQueueInto(prevQueue, edge)
		}

		n.registerCancellationLocked(name, func() { n.Unlink(edge) })

		if post != nil {
			post(true)
		}
		n.notifyWatchersLocked(next)
		return true

	default: // error, drained, consumed
		if pre != nil {
			pre(false)
		}
		if post != nil {
			post(false)
		}
		return false
	}
}

// dispatchQueueInto hands q's backlog to edge in FIFO order via the
// queue's dispatch-message protocol, used when linking transitions
// downstream_count 0→1 or closed→drained (spec §4.2).
func (n *Node) dispatchQueueInto(q *queue.Queue, edge Edge) {
	_ = q.DispatchAll(func(v any) error {
		edge.Next.Propagate(v, true)
		return nil
	})
}

// Unlink removes edge from this node's downstream set. A no-op returning
// false if the node is not in open/split mode, or if edge is not
// currently a member (spec §9 Open Question 1's resolution). If removing
// edge drops downstream_count to zero, the node closes — unless it is
// permanent, in which case it stays open with a fresh queue.
func (n *Node) Unlink(edge Edge) bool {
	n.lock.AcquireExclusive()
	defer n.lock.ReleaseExclusive()

	cur := n.state.Load()
	if cur.Mode != ModeOpen && cur.Mode != ModeSplit {
		return false
	}

	edges := n.edgesSnapshot()
	idx := -1
	for i, e := range edges {
		if e == edge {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	newEdges := append(append([]Edge{}, edges[:idx]...), edges[idx+1:]...)
	n.edges.Store(&newEdges)

	next := *cur
	if !edge.Sneaky && next.DownstreamCount > 0 {
		next.DownstreamCount--
	}
	n.state.Store(&next)

	if !edge.Sneaky && next.DownstreamCount == 0 {
		if next.Permanent {
			reopened := next
			reopened.Queue = queue.New(next.Transactional)
			n.state.Store(&reopened)
			n.notifyWatchersLocked(reopened)
			return true
		}
		n.closeLocked(false)
		return true
	}

	if !edge.Sneaky && next.DownstreamCount == 1 {
		n.notifyWatchersLocked(next)
	}
	return true
}
