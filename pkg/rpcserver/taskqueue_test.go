package rpcserver

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskQueueBoundsConcurrency(t *testing.T) {
	q := newTaskQueue(2)
	release := make(chan struct{})
	var running int32

	for i := 0; i < 2; i++ {
		ok := q.TrySubmit(func() {
			atomic.AddInt32(&running, 1)
			<-release
		})
		assert.True(t, ok)
	}

	ok := q.TrySubmit(func() {})
	assert.False(t, ok, "third task should be rejected at capacity 2")

	close(release)
	q.Wait()
}

func TestTaskQueueLen(t *testing.T) {
	q := newTaskQueue(4)
	release := make(chan struct{})
	q.TrySubmit(func() { <-release })
	assert.Equal(t, 1, q.Len())
	close(release)
	q.Wait()
}
