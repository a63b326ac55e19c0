package flowcore

import (
	"github.com/kflow/flowcore/flowresult"
	"github.com/kflow/flowcore/queue"
)

// Receive registers a cancellable read against the node's queue,
// materializing it if needed. If name already maps to a still-pending
// result, the call is idempotent and returns (true, nil) without
// registering anything new. If name maps to a registration that is not a
// result, it fails with ErrInvalidCallbackIdentifier. Forwards to the
// split clone when in split mode. callback, if non-nil, is subscribed to
// the eventual outcome.
func (n *Node) Receive(name string, predicate func(any) bool, falseValue any, callback func(flowresult.Outcome)) (bool, error) {
	n.lock.AcquireExclusive()
	cur := n.state.Load()
	if cur.Mode == ModeSplit {
		split := cur.Split
		n.lock.ReleaseExclusive()
		return split.Receive(name, predicate, falseValue, callback)
	}

	if name != "" {
		if c, ok := n.cancellations[name]; ok {
			if c.result != nil {
				n.lock.ReleaseExclusive()
				return true, nil
			}
			n.lock.ReleaseExclusive()
			return false, ErrInvalidCallbackIdentifier
		}
	}

	next := *cur
	q := ensureQueueLocked(&next, true)
	n.state.Store(&next)
	n.lock.ReleaseExclusive()

	result := q.Receive(predicate, falseValue)
	if !result.IsAsync() {
		n.checkDrained()
		if callback != nil {
			result.Subscribe(callback)
		}
		return true, nil
	}

	if name != "" {
		n.lock.AcquireExclusive()
		n.registerResultCancellationLocked(name, result)
		n.lock.ReleaseExclusive()

		result.Subscribe(func(flowresult.Outcome) {
			n.lock.AcquireExclusive()
			delete(n.cancellations, name)
			n.lock.ReleaseExclusive()
		})
	}
	if callback != nil {
		result.Subscribe(callback)
	}
	return true, nil
}

// ReadNode is an uncancellable read: it forwards to the split clone when
// in split mode, otherwise materializes the queue and calls Receive on
// it directly, running the drained check after a synchronous success.
func (n *Node) ReadNode(predicate func(any) bool, falseValue any) *flowresult.Result {
	n.lock.AcquireExclusive()
	cur := n.state.Load()
	if cur.Mode == ModeSplit {
		split := cur.Split
		n.lock.ReleaseExclusive()
		return split.ReadNode(predicate, falseValue)
	}

	next := *cur
	q := ensureQueueLocked(&next, true)
	n.state.Store(&next)
	n.lock.ReleaseExclusive()

	result := q.Receive(predicate, falseValue)
	if !result.IsAsync() {
		n.checkDrained()
	}
	return result
}

// Drain atomically removes and returns every currently buffered message,
// running the drained check afterward. Forwards to the split clone when
// in split mode.
func (n *Node) Drain() []any {
	n.lock.AcquireExclusive()
	cur := n.state.Load()
	if cur.Mode == ModeSplit {
		split := cur.Split
		n.lock.ReleaseExclusive()
		return split.Drain()
	}
	q := cur.Queue
	n.lock.ReleaseExclusive()

	if q == nil {
		return nil
	}
	values := q.DrainAll()
	n.checkDrained()
	return values
}

// checkDrained promotes a closed node whose queue has just become empty
// to drained, notifying watchers. It is the "run the drained check" step
// Receive/ReadNode/Drain perform after a synchronous queue operation.
func (n *Node) checkDrained() {
	n.lock.AcquireExclusive()
	defer n.lock.ReleaseExclusive()

	cur := n.state.Load()
	if cur.Mode != ModeClosed {
		return
	}
	if cur.Queue == nil || !cur.Queue.IsDrained() {
		return
	}

	next := *cur
	next.Mode = ModeDrained
	next.Queue = queue.Drained()
	n.state.Store(&next)
	n.notifyWatchersLocked(next)
}
