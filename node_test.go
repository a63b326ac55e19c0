package flowcore

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func identity(msg any) (any, error) { return msg, nil }

func TestNewNodeStartsOpenWithNoQueue(t *testing.T) {
	n := New("n")
	assert.Equal(t, ModeOpen, n.Mode())
	assert.Equal(t, 0, n.Downstream())
	assert.Equal(t, 0, n.Size())
	assert.False(t, n.IsClosed())
	assert.False(t, n.IsDrained())
}

func TestGroundedDiscardsWithNoDownstream(t *testing.T) {
	n := New("n", WithGrounded(true), WithOperator(identity))
	r := n.Propagate(1, true)
	assert.Equal(t, Grounded, r.Outcome)
	assert.Equal(t, 0, n.Size())
}

func TestPermanentUnlinkToZeroReopens(t *testing.T) {
	n := New("n", WithPermanent(true))
	consumer := New("consumer")
	edge := Edge{Next: consumer, Description: "e"}
	assert.True(t, n.Link("e", edge, nil, nil))
	assert.True(t, n.Unlink(edge))
	assert.Equal(t, ModeOpen, n.Mode())
	assert.Equal(t, 0, n.Downstream())
}

func TestUnlinkNonMemberEdgeIsNoop(t *testing.T) {
	n := New("n")
	other := New("other")
	edge := Edge{Next: other, Description: "e"}
	assert.False(t, n.Unlink(edge))
}

func TestRelinkingSameNameFailsWithoutMutation(t *testing.T) {
	n := New("n")
	a := New("a")
	b := New("b")
	assert.True(t, n.Link("x", Edge{Next: a}, nil, nil))
	assert.False(t, n.Link("x", Edge{Next: b}, nil, nil))
	assert.Equal(t, 1, n.Downstream())
}

func TestDoubleCloseReturnsTrueThenFalse(t *testing.T) {
	n := New("n")
	assert.True(t, n.Close(false))
	assert.False(t, n.Close(false))
	assert.True(t, n.IsDrained())
}

func TestErrorOnOperatorThrow(t *testing.T) {
	boom := errors.New("boom")
	n := New("n", WithOperator(func(any) (any, error) { return nil, boom }))
	r := n.Propagate("x", true)
	assert.Equal(t, ErrorOutcome, r.Outcome)
	assert.Equal(t, boom, n.ErrorValue())

	r2 := n.Propagate("y", true)
	assert.Equal(t, ErrorOutcome, r2.Outcome)

	assert.False(t, n.Link("l", Edge{Next: New("x")}, nil, nil))
}

func TestTransactionalIsIdempotent(t *testing.T) {
	n := New("n")
	assert.True(t, n.Transactional())
	assert.True(t, n.State().Transactional)
	assert.True(t, n.Transactional())
}
