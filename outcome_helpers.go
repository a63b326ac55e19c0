package flowcore

import "github.com/kflow/flowcore/flowresult"

// closedResult, drainedResult, and errorResult build the standard
// PropagateResult values used wherever a Node contract operation needs to
// report "refused: closed/drained" or "refused: errored" without going
// through a queue at all — the helper predicates spec §2 lists alongside
// closed?/drained?/split?/consumed?.
func closedResult() PropagateResult {
	return PropagateResult{Outcome: ClosedOutcome}
}

func drainedResult() PropagateResult {
	return PropagateResult{Outcome: ClosedOutcome, Result: flowresult.Resolved(nil, nil, flowresult.Metadata{})}
}

func errorResult(err error) PropagateResult {
	return PropagateResult{Outcome: ErrorOutcome, Result: flowresult.Resolved(nil, err, flowresult.Metadata{})}
}
