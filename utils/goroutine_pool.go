package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrPoolFull 任务队列已满
	ErrPoolFull = errors.New("goroutine pool queue is full")
	// ErrPoolClosed 池已停止
	ErrPoolClosed = errors.New("goroutine pool is closed")
)

// Task 任务接口，ctx 在池停止或任务超时时取消
type Task interface {
	Do(ctx context.Context) error
}

// FuncTask 函数任务实现
type FuncTask struct {
	f func(ctx context.Context) error
}

// Do 执行任务
func (ft *FuncTask) Do(ctx context.Context) error {
	if ft.f != nil {
		return ft.f(ctx)
	}
	return nil
}

// NewFuncTask 创建函数任务
func NewFuncTask(f func(ctx context.Context) error) *FuncTask {
	return &FuncTask{f: f}
}

// GoroutinePool 固定大小的Goroutine池，队列满时拒绝提交
type GoroutinePool struct {
	workers       int
	taskQueueSize int
	taskTimeout   time.Duration

	busyWorkers    int32
	totalTasks     int64
	completedTasks int64
	failedTasks    int64
	rejectedTasks  int64

	taskQueue chan Task
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	closed    int32
}

// PoolStats Goroutine池统计信息
type PoolStats struct {
	Workers        int   `json:"workers"`
	BusyWorkers    int32 `json:"busyWorkers"`
	QueuedTasks    int   `json:"queuedTasks"`
	TaskQueueSize  int   `json:"taskQueueSize"`
	TotalTasks     int64 `json:"totalTasks"`
	CompletedTasks int64 `json:"completedTasks"`
	FailedTasks    int64 `json:"failedTasks"`
	RejectedTasks  int64 `json:"rejectedTasks"`
}

// Option Goroutine池配置选项
type Option func(*GoroutinePool)

// WithWorkers 设置工作线程数
func WithWorkers(n int) Option {
	return func(pool *GoroutinePool) {
		pool.workers = n
	}
}

// WithTaskQueueSize 设置任务队列大小
func WithTaskQueueSize(n int) Option {
	return func(pool *GoroutinePool) {
		pool.taskQueueSize = n
	}
}

// WithTaskTimeout 设置单个任务超时时间，0 表示不限制
func WithTaskTimeout(d time.Duration) Option {
	return func(pool *GoroutinePool) {
		pool.taskTimeout = d
	}
}

// NewGoroutinePool 创建新的Goroutine池，需要调用 Start 后才会执行任务
func NewGoroutinePool(opts ...Option) *GoroutinePool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &GoroutinePool{
		workers:       2,
		taskQueueSize: 100,
		taskTimeout:   10 * time.Minute,
		ctx:           ctx,
		cancel:        cancel,
	}

	for _, opt := range opts {
		opt(pool)
	}

	if pool.workers < 1 {
		pool.workers = 1
	}
	if pool.taskQueueSize < 0 {
		pool.taskQueueSize = 0
	}

	pool.taskQueue = make(chan Task, pool.taskQueueSize)
	return pool
}

// Start 启动Goroutine池
func (pool *GoroutinePool) Start() {
	pool.startOnce.Do(func() {
		for i := 0; i < pool.workers; i++ {
			pool.wg.Add(1)
			go pool.run(i)
		}

		Info("Goroutine池启动", map[string]string{
			"workers":       fmt.Sprintf("%d", pool.workers),
			"taskQueueSize": fmt.Sprintf("%d", pool.taskQueueSize),
			"taskTimeout":   pool.taskTimeout.String(),
		})
	})
}

// Submit 提交任务，不阻塞；队列已满返回 ErrPoolFull
func (pool *GoroutinePool) Submit(task Task) error {
	if task == nil {
		return fmt.Errorf("任务不能为空")
	}
	if atomic.LoadInt32(&pool.closed) == 1 {
		return ErrPoolClosed
	}

	select {
	case pool.taskQueue <- task:
		atomic.AddInt64(&pool.totalTasks, 1)
		return nil
	default:
		atomic.AddInt64(&pool.rejectedTasks, 1)
		return ErrPoolFull
	}
}

// SubmitFunc 提交函数任务
func (pool *GoroutinePool) SubmitFunc(f func(ctx context.Context) error) error {
	return pool.Submit(NewFuncTask(f))
}

// Stop 停止Goroutine池，等待正在执行的任务返回；队列中未执行的任务被丢弃
func (pool *GoroutinePool) Stop() {
	pool.stopOnce.Do(func() {
		Info("正在停止Goroutine池", nil)

		atomic.StoreInt32(&pool.closed, 1)
		pool.cancel()
		pool.wg.Wait()

		Info("Goroutine池已停止", map[string]string{
			"totalTasks":     fmt.Sprintf("%d", atomic.LoadInt64(&pool.totalTasks)),
			"completedTasks": fmt.Sprintf("%d", atomic.LoadInt64(&pool.completedTasks)),
			"failedTasks":    fmt.Sprintf("%d", atomic.LoadInt64(&pool.failedTasks)),
		})
	})
}

// Done 池停止后关闭，停止时队列中未执行的任务不会再运行
func (pool *GoroutinePool) Done() <-chan struct{} {
	return pool.ctx.Done()
}

// GetStats 获取池统计信息
func (pool *GoroutinePool) GetStats() *PoolStats {
	return &PoolStats{
		Workers:        pool.workers,
		BusyWorkers:    atomic.LoadInt32(&pool.busyWorkers),
		QueuedTasks:    len(pool.taskQueue),
		TaskQueueSize:  pool.taskQueueSize,
		TotalTasks:     atomic.LoadInt64(&pool.totalTasks),
		CompletedTasks: atomic.LoadInt64(&pool.completedTasks),
		FailedTasks:    atomic.LoadInt64(&pool.failedTasks),
		RejectedTasks:  atomic.LoadInt64(&pool.rejectedTasks),
	}
}

// run 工作线程运行方法
func (pool *GoroutinePool) run(id int) {
	defer pool.wg.Done()

	for {
		select {
		case <-pool.ctx.Done():
			return
		case task := <-pool.taskQueue:
			if pool.ctx.Err() != nil {
				return
			}
			atomic.AddInt32(&pool.busyWorkers, 1)
			pool.execute(id, task)
			atomic.AddInt32(&pool.busyWorkers, -1)
		}
	}
}

// execute 执行任务，panic 计为失败
func (pool *GoroutinePool) execute(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			Error("任务执行发生panic", map[string]string{
				"workerId": fmt.Sprintf("%d", id),
				"panic":    fmt.Sprintf("%v", r),
			})
			atomic.AddInt64(&pool.failedTasks, 1)
		}
	}()

	ctx := pool.ctx
	if pool.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pool.taskTimeout)
		defer cancel()
	}

	if err := task.Do(ctx); err != nil {
		Error("任务执行失败", map[string]string{
			"workerId": fmt.Sprintf("%d", id),
			"error":    err.Error(),
		})
		atomic.AddInt64(&pool.failedTasks, 1)
		return
	}
	atomic.AddInt64(&pool.completedTasks, 1)
}
