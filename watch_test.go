package flowcore

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestOnStateChangedFiresImmediatelyThenOnTransitions(t *testing.T) {
	n := New("n")
	var seen []Mode
	ok := n.OnStateChanged("w", func(mode Mode, _ int, _ error) {
		seen = append(seen, mode)
	})
	assert.True(t, ok)
	assert.Equal(t, []Mode{ModeOpen}, seen)

	n.Close(false)
	assert.Equal(t, []Mode{ModeOpen, ModeDrained}, seen)
}

func TestOnStateChangedNoopOnTerminalNode(t *testing.T) {
	n := New("n")
	n.Close(false)
	ok := n.OnStateChanged("w", func(Mode, int, error) {})
	assert.False(t, ok)
}

func TestCancelRemovesWatcherRegistration(t *testing.T) {
	n := New("n")
	calls := 0
	n.OnStateChanged("w", func(Mode, int, error) { calls++ })
	assert.Equal(t, 1, calls)

	assert.True(t, n.Cancel("w"))
	n.Close(false)
	assert.Equal(t, 1, calls) // watcher was removed before close fired
}

func TestCancelUnknownNameReturnsFalse(t *testing.T) {
	n := New("n")
	assert.False(t, n.Cancel("missing"))
}

func TestWatchersClearedOnTerminalTransition(t *testing.T) {
	n := New("n")
	n.OnStateChanged("w", func(Mode, int, error) {})
	n.Close(false)
	assert.False(t, n.Cancel("w"))
}
