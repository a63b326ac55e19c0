package flowcore

import (
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

// Scenario 6 (spec §8): A join B; erroring A cascades, via the cleanup
// queue, into erroring B with the same error.
func TestScenarioCascadingErrorViaJoin(t *testing.T) {
	InitCleanup(2)
	defer ShutdownCleanup()

	a := New("a")
	b := New("b")
	assert.True(t, Join(a, b, nil, nil))

	boom := errors.New("boom")
	assert.True(t, a.Error(boom, false))

	waitForMode(t, b, ModeError)
	assert.Equal(t, ModeError, a.Mode())
	assert.Equal(t, boom, a.ErrorValue())
	assert.Equal(t, boom, b.ErrorValue())
}

func TestSiphonDoesNotPropagateErrorUpstream(t *testing.T) {
	InitCleanup(2)
	defer ShutdownCleanup()

	a := New("a")
	b := New("b")
	assert.True(t, Siphon(a, b, nil, nil))

	boom := errors.New("boom")
	assert.True(t, b.Error(boom, false))

	// The siphon only unlinks a from b; with no downstream edges left, a
	// (not permanent) closes and drains instead of taking b's error.
	waitForDownstream(t, a, 0)
	waitForMode(t, a, ModeDrained)
	assert.Equal(t, ModeDrained, a.Mode())
	assert.NoError(t, a.ErrorValue())
}

func waitForMode(t *testing.T, n *Node, want Mode) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if n.Mode() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("node %q never reached mode %v, stuck at %v", n.Description(), want, n.Mode())
}

func waitForDownstream(t *testing.T, n *Node, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if n.Downstream() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("node %q downstream count never reached %d, stuck at %d", n.Description(), want, n.Downstream())
}
