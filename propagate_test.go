package flowcore

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

// Scenario 1 (spec §8): solo enqueue then consume.
func TestScenarioSoloEnqueueThenConsume(t *testing.T) {
	n := New("n", WithOperator(identity))
	for _, v := range []int{1, 2, 3} {
		n.Propagate(v, true)
	}

	consumer := New("consumer")
	thunk, ok := n.Consume(Edge{Next: consumer, Description: "consumer"})
	assert.True(t, ok)
	assert.Equal(t, ModeConsumed, n.Mode())

	for _, want := range []int{1, 2, 3} {
		got, _ := n.ReadNode(nil, nil).Outcome()
		assert.Equal(t, any(want), got.Value)
	}

	assert.True(t, thunk())
	assert.Equal(t, ModeOpen, n.Mode())
}

// Scenario 2 (spec §8): single-edge fusion across A→B→C.
func TestScenarioSingleEdgeFusion(t *testing.T) {
	a := New("a", WithOperator(identity))
	b := New("b", WithOperator(identity))
	c := New("c", WithOperator(identity))

	assert.True(t, a.Link("", Edge{Next: b, Description: "b"}, nil, nil))
	assert.True(t, b.Link("", Edge{Next: c, Description: "c"}, nil, nil))

	result := a.Propagate(42, true)
	assert.Equal(t, Delivered, result.Outcome)

	got, done := c.ReadNode(nil, nil).Outcome()
	assert.True(t, done)
	assert.Equal(t, any(42), got.Value)
}

// Scenario 3 (spec §8): the Filtered sentinel drops odd values; even
// values are delivered into the node's own queue (it has zero downstream
// edges and is not grounded).
func TestScenarioFilterSentinel(t *testing.T) {
	evensOnly := func(msg any) (any, error) {
		v := msg.(int)
		if v%2 == 0 {
			return v, nil
		}
		return Filtered, nil
	}
	n := New("n", WithOperator(evensOnly))

	var outcomes []Outcome
	for _, v := range []int{1, 2, 3, 4} {
		outcomes = append(outcomes, n.Propagate(v, true).Outcome)
	}
	assert.Equal(t, []Outcome{FilteredOut, Delivered, FilteredOut, Delivered}, outcomes)
	assert.Equal(t, 2, n.Size())
}

// Scenario 4 (spec §8): operator throw transitions to error.
func TestScenarioOperatorThrowTransitionsToError(t *testing.T) {
	boom := errors.New("boom")
	n := New("n", WithOperator(func(any) (any, error) { return nil, boom }))

	r := n.Propagate("x", true)
	assert.Equal(t, ErrorOutcome, r.Outcome)
	assert.Equal(t, ModeError, n.Mode())
	assert.Equal(t, boom, n.ErrorValue())

	r2 := n.Propagate("y", true)
	assert.Equal(t, ErrorOutcome, r2.Outcome)
	assert.False(t, n.Link("l", Edge{Next: New("x")}, nil, nil))
}

// Scenario 5 (spec §8): close with pending messages drains through the
// one consumer, then a second close returns false.
func TestScenarioCloseWithPendingMessages(t *testing.T) {
	n := New("n", WithOperator(identity))
	for _, v := range []int{1, 2, 3} {
		n.Propagate(v, true)
	}
	consumer := New("consumer")
	_, ok := n.Consume(Edge{Next: consumer, Description: "consumer"})
	assert.True(t, ok)

	assert.True(t, n.Close(false))
	assert.Equal(t, ModeClosed, n.Mode())

	for _, want := range []int{1, 2, 3} {
		got, _ := n.ReadNode(nil, nil).Outcome()
		assert.Equal(t, any(want), got.Value)
	}
	assert.True(t, n.IsDrained())
	assert.False(t, n.Close(false))
}

func TestFanOutDeliversToEveryNonSneakyEdge(t *testing.T) {
	n := New("n", WithOperator(identity))
	a := New("a")
	b := New("b")
	sneaky := New("sneaky")

	assert.True(t, n.Link("", Edge{Next: a, Description: "a"}, nil, nil))
	assert.True(t, n.Link("", Edge{Next: b, Description: "b"}, nil, nil))
	assert.True(t, n.Link("", Edge{Next: sneaky, Description: "sneaky", Sneaky: true}, nil, nil))
	assert.Equal(t, 2, n.Downstream())

	result := n.Propagate(7, true)
	assert.Equal(t, Delivered, result.Outcome)
	assert.Equal(t, 2, len(result.Fanout))

	got, _ := a.ReadNode(nil, nil).Outcome()
	assert.Equal(t, any(7), got.Value)
	got, _ = b.ReadNode(nil, nil).Outcome()
	assert.Equal(t, any(7), got.Value)
	got, _ = sneaky.ReadNode(nil, nil).Outcome()
	assert.Equal(t, any(7), got.Value)
}

func TestFanOutErrorTransitionsSourceToError(t *testing.T) {
	n := New("n", WithOperator(identity))
	a := New("a")
	failing := New("failing", WithOperator(func(any) (any, error) { return nil, errors.New("edge boom") }))

	assert.True(t, n.Link("", Edge{Next: a, Description: "a"}, nil, nil))
	assert.True(t, n.Link("", Edge{Next: failing, Description: "failing"}, nil, nil))

	result := n.Propagate(1, true)
	assert.Equal(t, ErrorOutcome, result.Outcome)
	assert.Equal(t, ModeError, n.Mode())
}
