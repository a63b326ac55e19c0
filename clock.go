package flowcore

import "time"

// nowFn is the now() seam propagate's zero-downstream path uses to tag a
// pending result's metadata timestamp. Resolves Open Question 2 from spec
// §9: timestamps are never coalesced — each enqueue reads the clock once,
// at the moment it happens.
var nowFn = func() int64 { return time.Now().UnixNano() }

// SetClock overrides the now() seam with a fixed or fake clock. Intended
// for tests only; production code never needs to call this.
func SetClock(fn func() int64) { nowFn = fn }

func now() int64 { return nowFn() }
