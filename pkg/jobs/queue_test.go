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

func TestQueueProcessesJobs(t *testing.T) {
	var handled int32
	done := make(chan struct{}, 2)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "refresh"}))
	require.NoError(t, q.Enqueue(Job{ID: "2", Type: "refresh"}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&handled))
}

func TestQueueRetries(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	q := NewQueue("retry", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("boom")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job not retried")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueRequiresStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})

	assert.Error(t, q.Enqueue(Job{}))
	_, err := q.TryEnqueue(Job{})
	assert.Error(t, err)
	assert.Error(t, q.Every(time.Second, func() Job { return Job{} }))
}

func TestQueueEvery(t *testing.T) {
	ticks := make(chan struct{}, 4)
	q := NewQueue("ticker", func(context.Context, Job) error {
		select {
		case ticks <- struct{}{}:
		default:
		}
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Every(5*time.Millisecond, func() Job { return Job{Type: "refresh"} }))

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job never ran")
	}
	assert.Error(t, q.Every(0, func() Job { return Job{} }))
}

func TestTryEnqueueFullBuffer(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(context.Context, Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(block)

	ok, err := q.TryEnqueue(Job{ID: "running"})
	require.NoError(t, err)
	require.True(t, ok)

	deadline := time.Now().Add(2 * time.Second)
	var queued bool
	for time.Now().Before(deadline) {
		if queued, err = q.TryEnqueue(Job{ID: "buffered"}); queued {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, queued)
	ok, err = q.TryEnqueue(Job{ID: "dropped"})
	require.NoError(t, err)
	assert.False(t, ok)
}
