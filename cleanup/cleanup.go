// Package cleanup implements the dedicated thread collaborator Node's
// connectors defer cascading watcher work onto. Spec §4.5 and §9 require
// that cascading closure/error propagation between connected nodes never
// runs synchronously inside a watcher callback, because the watcher fires
// while the source node still holds its exclusive lock — calling back into
// link/unlink/close on a different node from there is fine, but calling
// back into the *same* node (or into a node that, transitively, calls back
// into this one) risks a recursive-lock cycle. Deferring the work onto a
// separate goroutine pool breaks the cycle.
package cleanup

import (
	"context"
	"sync"

	"github.com/kflow/flowcore/flog"
)

// Queue is a small fixed-size worker pool draining a channel of deferred
// closures.
type Queue struct {
	work chan func()
	wg   sync.WaitGroup
	log  *flog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// New starts a Queue with the given number of worker goroutines. workers
// must be at least 1; New clamps anything smaller.
func New(workers int, log *flog.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = flog.Nop()
	}

	q := &Queue{
		work:   make(chan func(), 256),
		log:    log,
		closed: make(chan struct{}),
	}

	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.run()
	}
	return q
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case fn, ok := <-q.work:
			if !ok {
				return
			}
			q.safeRun(fn)
		case <-q.closed:
			for {
				select {
				case fn := <-q.work:
					q.safeRun(fn)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.log.WatcherPanic("cleanup.Queue", r)
		}
	}()
	fn()
}

// Enqueue schedules fn to run on a worker goroutine. It blocks only if the
// internal channel is full, never on fn's own execution.
func (q *Queue) Enqueue(fn func()) {
	select {
	case q.work <- fn:
	case <-q.closed:
	}
}

// EnqueueContext schedules fn to run, but drops it (and reports false) if
// ctx is done before a worker picks it up.
func (q *Queue) EnqueueContext(ctx context.Context, fn func()) bool {
	select {
	case q.work <- fn:
		return true
	case <-ctx.Done():
		return false
	case <-q.closed:
		return false
	}
}

// Close stops accepting new work and waits for the workers to finish.
// Closures already enqueued when Close is called still run before it
// returns.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.closed)
	})
	q.wg.Wait()
}
