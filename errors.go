package flowcore

import "errors"

// Sentinel errors returned by Node operations, in the style of
// kdag.ErrNodeAlreadyExists / kdag.ErrCycleDetected.
var (
	// ErrInvalidCallbackIdentifier is returned by Receive when name is
	// already bound to a registration that is not a pending result.
	ErrInvalidCallbackIdentifier = errors.New("flowcore: name is bound to a non-result registration")

	// ErrCancelledInTransaction names the rejection of a Cancel called
	// while the node is participating in an active transactional()
	// upgrade. Cancel returns only a bool and reports that rejection as
	// false; no Node operation returns this error value.
	ErrCancelledInTransaction = errors.New("flowcore: cancel rejected inside an active transaction")
)
