package flowcore

// Mode is the Node lifecycle state. The zero value is ModeOpen.
type Mode int

const (
	ModeOpen Mode = iota
	ModeSplit
	ModeConsumed
	ModeClosed
	ModeDrained
	ModeError
)

func (m Mode) String() string {
	switch m {
	case ModeOpen:
		return "open"
	case ModeSplit:
		return "split"
	case ModeConsumed:
		return "consumed"
	case ModeClosed:
		return "closed"
	case ModeDrained:
		return "drained"
	case ModeError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether m is a mode no further transition ever leaves:
// drained or error.
func (m Mode) Terminal() bool {
	return m == ModeDrained || m == ModeError
}
