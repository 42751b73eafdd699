package utils

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoroutinePool_ExecutesTasks(t *testing.T) {
	pool := NewGoroutinePool(WithWorkers(2), WithTaskQueueSize(10))
	pool.Start()
	defer pool.Stop()

	var count int32
	done := make(chan struct{}, 5)
	for i := 0; i < 5; i++ {
		require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
			atomic.AddInt32(&count, 1)
			done <- struct{}{}
			return nil
		}))
	}
	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("任务未在预期时间内完成")
		}
	}

	assert.Equal(t, int32(5), atomic.LoadInt32(&count))
	assert.Eventually(t, func() bool {
		return pool.GetStats().CompletedTasks == 5
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(5), pool.GetStats().TotalTasks)
}

func TestGoroutinePool_RejectsWhenQueueFull(t *testing.T) {
	// 未启动时任务只会堆在队列中
	pool := NewGoroutinePool(WithWorkers(1), WithTaskQueueSize(1))

	require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error { return nil }))
	err := pool.SubmitFunc(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolFull)

	stats := pool.GetStats()
	assert.Equal(t, 1, stats.QueuedTasks)
	assert.Equal(t, int64(1), stats.RejectedTasks)
}

func TestGoroutinePool_RejectsAfterStop(t *testing.T) {
	pool := NewGoroutinePool()
	pool.Start()
	pool.Stop()

	err := pool.SubmitFunc(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestGoroutinePool_TaskTimeoutCancelsContext(t *testing.T) {
	pool := NewGoroutinePool(WithWorkers(1), WithTaskTimeout(50*time.Millisecond))
	pool.Start()
	defer pool.Stop()

	result := make(chan error, 1)
	require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
		<-ctx.Done()
		result <- ctx.Err()
		return ctx.Err()
	}))

	select {
	case err := <-result:
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	case <-time.After(5 * time.Second):
		t.Fatal("任务超时未生效")
	}
	assert.Eventually(t, func() bool {
		return pool.GetStats().FailedTasks == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGoroutinePool_RecoversPanic(t *testing.T) {
	pool := NewGoroutinePool(WithWorkers(1))
	pool.Start()
	defer pool.Stop()

	require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
		panic("boom")
	}))

	done := make(chan struct{})
	require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("panic 后工作线程未继续执行")
	}
	assert.Eventually(t, func() bool {
		return pool.GetStats().FailedTasks == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGoroutinePool_StopDropsQueuedTasks(t *testing.T) {
	pool := NewGoroutinePool(WithWorkers(1), WithTaskQueueSize(1))
	pool.Start()

	started := make(chan struct{})
	require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	}))
	<-started

	var ran int32
	require.NoError(t, pool.SubmitFunc(func(ctx context.Context) error {
		atomic.StoreInt32(&ran, 1)
		return nil
	}))

	pool.Stop()

	select {
	case <-pool.Done():
	default:
		t.Fatal("停止后 Done 未关闭")
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))
}
