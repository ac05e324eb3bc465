package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesFailedJobs(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("boom")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "reconcile"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueCoalescesWaitingJobsByKey(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{}, 4)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		started <- struct{}{}
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Key: "Monday"}))
	<-started

	// the first job is running, so the key is free again
	require.NoError(t, q.Enqueue(Job{ID: "2", Key: "Monday"}))
	assert.ErrorIs(t, q.Enqueue(Job{ID: "3", Key: "Monday"}), ErrDuplicate)
	require.NoError(t, q.Enqueue(Job{ID: "4", Key: "Tuesday"}))
	assert.Equal(t, 2, q.Pending())

	close(block)
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "1"}))
}
