// Package flowresult implements the result-channel / async-promise
// collaborator consumed by Node.receive and Node.propagate: a value that
// may already be known, or may resolve later on some other goroutine.
package flowresult

import "sync"

// Metadata tags an async Result the way spec §4.2 requires for a
// zero-downstream propagate: {type, name, timestamp}.
type Metadata struct {
	Type      string
	Name      string
	Timestamp int64 // unix nanos; stamped once at creation, never re-stamped on resolve.
}

// Outcome is what a Result settles to.
type Outcome struct {
	Value    any
	Err      error
	Dropped  bool // true when the receive was cancelled before it settled.
	Metadata Metadata
}

// Result is a single-assignment future. It starts out either already
// resolved (Resolved) or pending (New), and every subscriber registered via
// Subscribe is called exactly once, synchronously if the Result was already
// resolved at subscribe time.
type Result struct {
	mu          sync.Mutex
	done        bool
	outcome     Outcome
	pendingMeta Metadata
	subs        []func(Outcome)
	cancelFn    func()
}

// Resolved builds an already-settled Result.
func Resolved(value any, err error, meta Metadata) *Result {
	return &Result{done: true, outcome: Outcome{Value: value, Err: err, Metadata: meta}}
}

// New builds a pending Result. cancelFn, if non-nil, is invoked by Cancel
// before the Result settles; it is the hook queue.Queue uses to stop
// delivering to a receive that the caller gave up on.
func New(cancelFn func()) *Result {
	return &Result{cancelFn: cancelFn}
}

// IsAsync reports whether the Result was still pending the instant this is
// called. Spec §4.2 uses this to decide whether to tag metadata on a
// zero-downstream propagate.
func (r *Result) IsAsync() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.done
}

// Success reports whether the Result is already resolved without error and
// without having been dropped. Matches the "async-promise predicate" from
// spec §6.
func (r *Result) Success() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done && r.outcome.Err == nil && !r.outcome.Dropped
}

// Outcome returns the settled outcome and whether it has settled yet.
func (r *Result) Outcome() (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome, r.done
}

// Resolve settles the Result exactly once; later calls are no-ops. Every
// subscriber is invoked, outside the lock, in registration order.
func (r *Result) Resolve(value any, err error) {
	r.resolve(Outcome{Value: value, Err: err})
}

// ResolveWithMetadata is Resolve plus metadata tagging, used by the
// zero-downstream propagate path.
func (r *Result) ResolveWithMetadata(value any, err error, meta Metadata) {
	r.resolve(Outcome{Value: value, Err: err, Metadata: meta})
}

// Tag attaches metadata to a still-pending Result, used as the fallback
// when it later settles via Resolve (as opposed to ResolveWithMetadata,
// which always wins). A no-op once the Result has already settled. This
// is how propagate's zero-downstream path (spec §4.2) tags a buffered
// message's eventual-delivery promise with {type, name, timestamp}
// without needing to know the value it will resolve to yet.
func (r *Result) Tag(meta Metadata) *Result {
	r.mu.Lock()
	if !r.done {
		r.pendingMeta = meta
	}
	r.mu.Unlock()
	return r
}

func (r *Result) resolve(outcome Outcome) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	if outcome.Metadata == (Metadata{}) {
		outcome.Metadata = r.pendingMeta
	}
	r.done = true
	r.outcome = outcome
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, cb := range subs {
		cb(outcome)
	}
}

// Subscribe registers cb to run once the Result settles. If it has already
// settled, cb runs synchronously before Subscribe returns.
func (r *Result) Subscribe(cb func(Outcome)) {
	r.mu.Lock()
	if r.done {
		outcome := r.outcome
		r.mu.Unlock()
		cb(outcome)
		return
	}
	r.subs = append(r.subs, cb)
	r.mu.Unlock()
}

// Cancel marks the Result as dropped and settles it if it had not already
// settled, calling the collaborator's cancelFn first. Calling Cancel on an
// already-settled Result is a no-op: a concurrent completion wins the race,
// matching spec §5's "a concurrent completion either wins the race or is
// cancelled".
func (r *Result) Cancel() {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	cancelFn := r.cancelFn
	r.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
	}

	r.resolve(Outcome{Dropped: true})
}
