package flowcore

import (
	"sync/atomic"

	"github.com/kflow/flowcore/asymlock"
	"github.com/kflow/flowcore/queue"
)

// Transactional upgrades this node and every downstream node reachable
// through open/split edges to transactional mode, installing a
// transactional copy of each one's queue. A no-op returning true if the
// node is already transactional.
//
// The source algorithm acquires locks level by level, handing the set
// forward as it recurses. Go's RWMutex is not reentrant, so instead this
// walks the whole downstream closure first (stopping at nodes already
// transactional, matching the source's own pruning), then locks the
// entire closure in one deadlock-free asymlock.AcquireAll pass — the same
// "acquire a whole set by consistent ordering" approach spec §6 and §9
// already call for, just applied to the full subgraph instead of one
// level at a time.
func (n *Node) Transactional() bool {
	if n.state.Load().Transactional {
		return true
	}

	closure := map[uint64]*Node{}
	n.collectTransactionalClosure(closure)
	if len(closure) == 0 {
		return true
	}

	members := make([]asymlock.Identified, 0, len(closure))
	nodes := make([]*Node, 0, len(closure))
	for _, nd := range closure {
		members = append(members, nd)
		nodes = append(nodes, nd)
	}

	set := asymlock.AcquireAll(members)
	defer set.ReleaseAll()

	for _, nd := range nodes {
		atomic.AddInt32(&nd.txGuard, 1)
		defer atomic.AddInt32(&nd.txGuard, -1)

		cur := nd.state.Load()
		if cur.Transactional {
			continue
		}
		next := *cur
		next.Transactional = true
		if next.Queue != nil {
			next.Queue = queue.TransactionalCopy(next.Queue)
		}
		nd.state.Store(&next)
	}
	return true
}

// collectTransactionalClosure records n and every downstream Node
// reachable through its edges, stopping at nodes already transactional or
// already visited (breaking cycles). Locks are not held during this
// walk — it is a best-effort discovery pass; the subsequent AcquireAll is
// what makes the actual upgrade atomic and deadlock-free.
func (n *Node) collectTransactionalClosure(seen map[uint64]*Node) {
	if _, ok := seen[n.id]; ok {
		return
	}
	if n.state.Load().Transactional {
		return
	}
	seen[n.id] = n

	for _, e := range n.edgesSnapshot() {
		if nd, ok := e.Next.(*Node); ok {
			nd.collectTransactionalClosure(seen)
		}
	}
}
