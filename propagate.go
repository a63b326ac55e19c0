package flowcore

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/kflow/flowcore/flowresult"
)

// Propagate accepts msg from upstream. If transform is true and an
// operator is set, it is applied first: a non-nil error transitions the
// node to error and returns ErrorOutcome; the Filtered sentinel returns
// FilteredOut without touching the node's state at all.
//
// Propagation policy, evaluated under the exclusive lock:
//   - grounded and zero downstream: Grounded.
//   - closed or drained: ClosedOutcome.
//   - error: ErrorOutcome.
//   - consumed: enqueue persist=true onto the queue, release, return its
//     receive-result.
//   - split: release, then hand msg (already transformed) to the split
//     clone's Propagate with transform=false.
//   - open with zero edges: materialize the queue if needed,
//     enqueue persist=true, return its receive-result (tagged with queue
//     metadata when it is still pending).
//   - open with exactly one edge: enqueue persist=false as a tee,
//     then enter the fused chain (see fusedPropagate).
//   - open with more than one edge: enqueue persist=false as a
//     tee, release, then fan out to every edge via a recursive Propagate
//     call per edge.
func (n *Node) Propagate(msg any, transform bool) PropagateResult {
	if transform && n.operator != nil {
		out, err := n.operator(msg)
		if err != nil {
			n.Error(err, false)
			return PropagateResult{Outcome: ErrorOutcome}
		}
		if out == Filtered {
			return PropagateResult{Outcome: FilteredOut}
		}
		msg = out
	}

	n.lock.AcquireExclusive()
	cur := n.state.Load()

	if n.grounded && cur.Mode != ModeSplit && cur.DownstreamCount == 0 {
		n.lock.ReleaseExclusive()
		return PropagateResult{Outcome: Grounded}
	}

	switch cur.Mode {
	case ModeClosed, ModeDrained:
		n.lock.ReleaseExclusive()
		return closedResult()

	case ModeError:
		n.lock.ReleaseExclusive()
		return errorResult(cur.Err)

	case ModeConsumed:
		next := *cur
		q := ensureQueueLocked(&next, false)
		n.state.Store(&next)
		result := q.Enqueue(msg, true, n.lock.ReleaseExclusive)
		return PropagateResult{Outcome: Delivered, Result: result}

	case ModeSplit:
		split := cur.Split
		n.lock.ReleaseExclusive()
		return split.Propagate(msg, false)

	case ModeOpen:
		edges := n.edgesSnapshot()
		switch len(edges) {
		case 0:
			next := *cur
			q := ensureQueueLocked(&next, false)
			n.state.Store(&next)
			result := q.Enqueue(msg, true, n.lock.ReleaseExclusive)
			if result.IsAsync() {
				result.Tag(flowresult.Metadata{Type: "queue", Name: n.description, Timestamp: now()})
			}
			return PropagateResult{Outcome: Delivered, Result: result}

		case 1:
			next := *cur
			q := ensureQueueLocked(&next, false)
			n.state.Store(&next)
			q.Enqueue(msg, false, nil) // tee; n's lock stays held into the fused walk
			return n.fusedPropagate(msg, edges[0])

		default:
			next := *cur
			q := ensureQueueLocked(&next, false)
			n.state.Store(&next)
			q.Enqueue(msg, false, n.lock.ReleaseExclusive)
			return n.fanOut(msg, edges)
		}

	default:
		n.lock.ReleaseExclusive()
		return closedResult()
	}
}

// fusedPropagate is the performance-critical path from spec §4.3: when a
// chain of open/split nodes each have exactly one downstream edge,
// propagation walks the chain in a loop instead of recursing through
// Propagate at every hop. At any instant it holds at most one node's
// lock beyond the brief overlap needed to hand off: it acquires the next
// hop's lock before releasing the current one, enqueues as a tee there
// too, and continues. It falls back to the next hop's own Propagate
// (with transform=true, or false if this hop's operator already ran)
// the moment that hop is not a Node, does not have exactly one edge, or
// is not in open/split mode. n's own lock must already be held by the
// caller; this function releases it (directly, or via the first
// iteration's hand-off) before returning.
func (n *Node) fusedPropagate(msg any, edge Edge) PropagateResult {
	cur := n
	for {
		nextProp := edge.Next
		nextNode, ok := nextProp.(*Node)
		if !ok {
			cur.lock.ReleaseExclusive()
			return nextProp.Propagate(msg, true)
		}

		peek := nextNode.state.Load()
		if peek.Mode != ModeOpen && peek.Mode != ModeSplit {
			cur.lock.ReleaseExclusive()
			return nextNode.Propagate(msg, true)
		}
		peekEdges := nextNode.edgesSnapshot()
		if len(peekEdges) != 1 {
			cur.lock.ReleaseExclusive()
			return nextNode.Propagate(msg, true)
		}

		transformed := msg
		if nextNode.operator != nil {
			out, err := nextNode.operator(msg)
			if err != nil {
				cur.lock.ReleaseExclusive()
				nextNode.Error(err, false)
				return PropagateResult{Outcome: ErrorOutcome}
			}
			if out == Filtered {
				cur.lock.ReleaseExclusive()
				return PropagateResult{Outcome: FilteredOut}
			}
			transformed = out
		}

		nextNode.lock.AcquireExclusive()

		real := nextNode.state.Load()
		realEdges := nextNode.edgesSnapshot()
		if (real.Mode != ModeOpen && real.Mode != ModeSplit) || len(realEdges) != 1 {
			cur.lock.ReleaseExclusive()
			nextNode.lock.ReleaseExclusive()
			return nextNode.Propagate(transformed, false)
		}

		next := *real
		q := ensureQueueLocked(&next, false)
		nextNode.state.Store(&next)
		q.Enqueue(transformed, false, cur.lock.ReleaseExclusive)

		cur = nextNode
		edge = realEdges[0]
		msg = transformed
	}
}

// fanOut delivers msg to every edge independently (n's lock has already
// been released by the caller before this runs). Per spec §4.2/§7, a
// failing edge does not stop the others, but any failure transitions n
// itself to error and makes the overall outcome ErrorOutcome; successful
// per-edge outcomes for non-sneaky edges are packed into Fanout in edge
// order.
func (n *Node) fanOut(msg any, edges []Edge) PropagateResult {
	fanout := make([]PropagateResult, 0, len(edges))
	var errs error

	for _, e := range edges {
		r := e.Next.Propagate(msg, true)
		if r.Outcome == ErrorOutcome {
			errs = multierr.Append(errs, fmt.Errorf("edge %q: propagate failed", e.Description))
		}
		if !e.Sneaky {
			fanout = append(fanout, r)
		}
	}

	if errs != nil {
		n.Error(errs, false)
		return PropagateResult{Outcome: ErrorOutcome}
	}
	return PropagateResult{Outcome: Delivered, Fanout: fanout}
}
