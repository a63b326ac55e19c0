package cleanup

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestEnqueueRunsOnWorker(t *testing.T) {
	q := New(2, nil)
	defer q.Close()

	var n int32
	done := make(chan struct{})
	q.Enqueue(func() {
		atomic.AddInt32(&n, 1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for deferred work")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&n))
}

func TestPanicInWorkIsSwallowed(t *testing.T) {
	q := New(1, nil)
	defer q.Close()

	q.Enqueue(func() { panic("boom") })

	var n int32
	done := make(chan struct{})
	q.Enqueue(func() {
		atomic.AddInt32(&n, 1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker appears to have died after panic")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&n))
}

func TestCloseWaitsForWorkers(t *testing.T) {
	q := New(1, nil)
	var ran int32
	q.Enqueue(func() { atomic.AddInt32(&ran, 1) })
	q.Close()
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}
