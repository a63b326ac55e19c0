package flowcore

import "github.com/kflow/flowcore/flowresult"

// Outcome classifies what propagate (or a fused-chain hop) actually did
// with a message.
type Outcome int

const (
	// Delivered means the message was handed to a queue or edge; Result
	// (single target) or Fanout (multiple targets) describes how.
	Delivered Outcome = iota
	// Grounded means the node discarded the message because it has no
	// downstream and is marked grounded.
	Grounded
	// FilteredOut means the operator returned the Filtered sentinel.
	FilteredOut
	// ClosedOutcome means the node is closed or drained and refused the
	// message.
	ClosedOutcome
	// ErrorOutcome means the node is in (or just transitioned to) error
	// mode.
	ErrorOutcome
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Grounded:
		return "grounded"
	case FilteredOut:
		return "filtered"
	case ClosedOutcome:
		return "closed"
	case ErrorOutcome:
		return "error"
	default:
		return "unknown"
	}
}

// PropagateResult is what Propagate returns. For Delivered, exactly one of
// Result or Fanout is populated, depending on how many downstream edges
// the node had at the moment of delivery. Fanout is nil for every other
// outcome; Result is nil for Grounded and FilteredOut, and for
// ClosedOutcome/ErrorOutcome is either nil or an already-settled Result
// (carrying the error, for ErrorOutcome).
type PropagateResult struct {
	Outcome Outcome
	Result  *flowresult.Result
	Fanout  []PropagateResult
}

// filtered is the sentinel type an Operator returns to silently drop a
// message. Filtered is the only value of this type; compare against it
// with ==.
type filtered struct{}

// Filtered is the sentinel value an Operator returns (alongside a nil
// error) to signal that a message should be dropped rather than
// propagated.
var Filtered any = filtered{}

// Operator is a node's optional pure message transform. Returning
// (Filtered, nil) drops the message; returning a non-nil error transitions
// the node to error mode.
type Operator func(msg any) (any, error)

// Propagator is any target capable of accepting a propagated message.
// Node is one implementation; kafkaprop.SinkPropagator is another.
type Propagator interface {
	Propagate(msg any, transform bool) PropagateResult
	Downstream() int
	Transactional() bool
}

// Describable is implemented by propagators that carry an opaque label.
type Describable interface {
	Description() string
}

// Edge is a directed link from a Node to a downstream Propagator.
// Sneaky edges exist for bookkeeping only: they never count toward
// downstream count or grounding decisions. Edge must remain comparable
// with == (Link/Unlink key on edge identity), so every Propagator
// implementation should be a pointer type.
type Edge struct {
	Next        Propagator
	Description string
	Sneaky      bool
}
