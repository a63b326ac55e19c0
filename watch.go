package flowcore

import "sync/atomic"

// OnStateChanged registers a watcher that observes every subsequent
// (mode, downstreamCount, err) transition, and is immediately invoked once
// with the current state. If the node is already terminal, registration
// is a no-op returning false. A non-empty name also registers a
// cancellation that removes the watcher.
func (n *Node) OnStateChanged(name string, fn func(mode Mode, downstreamCount int, err error)) bool {
	n.lock.AcquireExclusive()
	defer n.lock.ReleaseExclusive()

	cur := n.state.Load()
	if cur.Mode.Terminal() {
		return false
	}

	n.watcherSeq++
	entry := watcherEntry{id: n.watcherSeq, name: name, fn: fn}
	n.watchers = append(n.watchers, entry)
	if name != "" {
		n.registerCancellationLocked(name, func() {
			n.lock.AcquireExclusive()
			defer n.lock.ReleaseExclusive()
			n.removeWatcher(entry.id)
		})
	}

	n.invokeWatcherLocked(entry, *cur)
	return true
}

func (n *Node) removeWatcher(id uint64) {
	for i, w := range n.watchers {
		if w.id == id {
			n.watchers = append(n.watchers[:i], n.watchers[i+1:]...)
			return
		}
	}
}

// invokeWatcherLocked runs a single watcher inside a recover-and-log
// wrapper: a panicking watcher must never affect node state (spec §7).
// Callers must hold the exclusive lock, matching spec §4.2's "notify
// watchers" step happening as part of the same locked transition.
func (n *Node) invokeWatcherLocked(w watcherEntry, state NodeState) {
	defer func() {
		if r := recover(); r != nil {
			n.log.WatcherPanic(n.description, r)
		}
	}()
	w.fn(state.Mode, state.DownstreamCount, state.Err)
}

// notifyWatchersLocked runs every registered watcher against state, then
// — if state.Mode is terminal — clears watchers and cancellations per
// spec §3's invariant ("once a watcher has been invoked with a terminal
// mode, watchers and cancellations are cleared").
func (n *Node) notifyWatchersLocked(state NodeState) {
	entries := n.watchers
	for _, w := range entries {
		n.invokeWatcherLocked(w, state)
	}
	if state.Mode.Terminal() {
		n.watchers = nil
		n.cancellations = nil
	}
}

// Cancel removes and invokes the cancellation registered under name:
// calling queue.CancelReceive on a pending result, or running the
// registered thunk (typically Unlink). Forwards to the split clone when
// in split mode. Rejected while this node is participating in an active
// transactional() upgrade (spec §5).
func (n *Node) Cancel(name string) bool {
	// The upgrade holds this node's exclusive lock while txGuard is set, so
	// the guard must be read before waiting for the lock.
	if atomic.LoadInt32(&n.txGuard) > 0 {
		return false
	}
	n.lock.AcquireExclusive()
	cur := n.state.Load()
	if cur.Mode == ModeSplit {
		split := cur.Split
		n.lock.ReleaseExclusive()
		return split.Cancel(name)
	}

	if atomic.LoadInt32(&n.txGuard) > 0 {
		n.lock.ReleaseExclusive()
		return false
	}

	c, ok := n.cancellations[name]
	if !ok {
		n.lock.ReleaseExclusive()
		return false
	}
	delete(n.cancellations, name)
	n.lock.ReleaseExclusive()

	// Invoked outside the lock: the thunk is typically Unlink, which
	// re-acquires this same exclusive lock, and result.Cancel() has its
	// own independent mutex. The atomicity spec §5 asks for is the
	// removal of the entry above, not the invocation itself — a
	// concurrent completion of the same result still wins or loses the
	// race inside flowresult.Result's single-assignment semantics.
	if c.result != nil {
		c.result.Cancel()
	}
	if c.fn != nil {
		c.fn()
	}
	return true
}
