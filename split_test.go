package flowcore

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestSplitDelegatesQueueOperationsToClone(t *testing.T) {
	n := New("n", WithOperator(identity))
	n.Propagate(1, true)

	clone := n.Split()
	assert.Equal(t, ModeSplit, n.Mode())
	assert.Equal(t, ModeOpen, clone.Mode())

	got, _ := n.ReadNode(nil, nil).Outcome()
	assert.Equal(t, 1, got.Value)

	n.Propagate(2, true)
	got, _ = clone.ReadNode(nil, nil).Outcome()
	assert.Equal(t, 2, got.Value)
}

func TestSplitInheritsCancellations(t *testing.T) {
	n := New("n")
	n.OnStateChanged("w", func(Mode, int, error) {})
	clone := n.Split()

	// The clone holds the inherited registration; once it is cancelled
	// there, the original (which forwards Cancel to the clone) finds none.
	assert.True(t, clone.Cancel("w"))
	assert.False(t, n.Cancel("w"))
}
