package flowcore

// IsClosed, IsDrained, IsSplit, and IsConsumed are the mode-testing helper
// predicates from spec §2 ("closed?, drained?, split?, consumed?").
func (n *Node) IsClosed() bool   { return n.Mode() == ModeClosed }
func (n *Node) IsDrained() bool  { return n.Mode() == ModeDrained }
func (n *Node) IsSplit() bool    { return n.Mode() == ModeSplit }
func (n *Node) IsConsumed() bool { return n.Mode() == ModeConsumed }

// ErrorValue returns the error carried by a node in error mode, or nil.
func (n *Node) ErrorValue() error { return n.state.Load().Err }
