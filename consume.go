package flowcore

// Consume installs edge as the node's sole consumer: every subsequent
// message is enqueued with persist=true for that one reader instead of
// fanning out normally. Only legal when the node is open with zero
// downstream edges; idempotently re-succeeds (without installing
// anything) if the node has already reached a terminal mode. Forwards to
// the split clone when in split mode. On success returns a thunk that
// calls Unconsume(edge).
func (n *Node) Consume(edge Edge) (func() bool, bool) {
	n.lock.AcquireExclusive()
	cur := n.state.Load()

	if cur.Mode == ModeSplit {
		split := cur.Split
		n.lock.ReleaseExclusive()
		return split.Consume(edge)
	}
	if cur.Mode.Terminal() {
		n.lock.ReleaseExclusive()
		return func() bool { return false }, true
	}
	if cur.Mode != ModeOpen || cur.DownstreamCount != 0 {
		n.lock.ReleaseExclusive()
		return nil, false
	}

	next := *cur
	ensureQueueLocked(&next, true)
	n.edges.Store(&[]Edge{edge})
	next.Mode = ModeConsumed
	next.DownstreamCount = 1
	n.state.Store(&next)

	if next.Transactional {
		if nd, ok := edge.Next.(*Node); ok {
			nd.Transactional()
		}
	}

	n.notifyWatchersLocked(next)
	n.lock.ReleaseExclusive()

	return func() bool { return n.Unconsume(edge) }, true
}

// Unconsume reverses a prior Consume: edge must be the current sole
// consumer. The node reopens if its queue is not closed, or closes if it
// is.
func (n *Node) Unconsume(edge Edge) bool {
	n.lock.AcquireExclusive()
	defer n.lock.ReleaseExclusive()

	cur := n.state.Load()
	if cur.Mode != ModeConsumed {
		return false
	}
	edges := n.edgesSnapshot()
	if len(edges) != 1 || edges[0] != edge {
		return false
	}

	next := *cur
	n.edges.Store(&[]Edge{})
	next.DownstreamCount = 0
	if next.Queue != nil && next.Queue.Closed() {
		next.Mode = ModeClosed
	} else {
		next.Mode = ModeOpen
	}
	n.state.Store(&next)
	n.notifyWatchersLocked(next)
	return true
}
