package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Cokefish9527/clipper/queue"
	"github.com/Cokefish9527/clipper/utils"
)

// JobProcessor 执行单个任务
type JobProcessor interface {
	Process(ctx context.Context, job Job) *Result
}

// WorkerPool 把阻塞的下载/编码/上传放到固定大小的Goroutine池执行，
// 调用方通过 Run 等待完成信号
type WorkerPool struct {
	processor     JobProcessor
	store         queue.JobStore
	goroutinePool *utils.GoroutinePool
}

// NewWorkerPool 创建工作池，jobTimeout 为0表示不限制单个任务时长
func NewWorkerPool(processor JobProcessor, store queue.JobStore, workers, queueSize int, jobTimeout time.Duration) *WorkerPool {
	goroutinePool := utils.NewGoroutinePool(
		utils.WithWorkers(workers),
		utils.WithTaskQueueSize(queueSize),
		utils.WithTaskTimeout(jobTimeout),
	)

	utils.Info("创建工作池", map[string]string{
		"workers":    fmt.Sprintf("%d", workers),
		"queueSize":  fmt.Sprintf("%d", queueSize),
		"jobTimeout": jobTimeout.String(),
	})

	return &WorkerPool{
		processor:     processor,
		store:         store,
		goroutinePool: goroutinePool,
	}
}

// Start 启动工作池
func (wp *WorkerPool) Start() {
	wp.goroutinePool.Start()
}

// Stop 停止工作池，正在执行的任务会收到取消信号
func (wp *WorkerPool) Stop() {
	wp.goroutinePool.Stop()
}

// Stats 工作池统计
func (wp *WorkerPool) Stats() *utils.PoolStats {
	return wp.goroutinePool.GetStats()
}

// Run 提交任务并等待结果。调用方 ctx 取消时任务也随之取消，返回 KindCanceled；
// 队列已满或工作池停止时返回 KindBusy；处理过程 panic 时返回 KindInternal
func (wp *WorkerPool) Run(ctx context.Context, job Job) *Result {
	record := &queue.JobRecord{
		ID:      uuid.New().String(),
		JobID:   job.JobID,
		FileURL: job.FileURL,
		Status:  queue.JobStatusQueued,
		Created: time.Now(),
	}
	wp.saveRecord(record, true)

	job.RequestID = record.ID

	// claimed 决定记录归属：任务开始执行时由任务goroutine认领，
	// 任务仍在排队时由 Run 认领并收尾，此后任务不再执行
	var claimed int32
	claim := func() bool {
		return atomic.CompareAndSwapInt32(&claimed, 0, 1)
	}

	done := make(chan *Result, 1)
	err := wp.goroutinePool.SubmitFunc(func(taskCtx context.Context) (err error) {
		if !claim() {
			return nil
		}

		defer func() {
			if r := recover(); r != nil {
				utils.Error("任务处理发生panic", map[string]string{
					"id":    record.ID,
					"jobId": job.JobID,
					"panic": fmt.Sprintf("%v", r),
				})
				result := newResult(record.ID, job.JobID).fail(KindInternal, errors.Errorf("任务处理异常: %v", r))
				wp.finishRecord(record, result)
				done <- result
				err = result.Err
			}
		}()

		jobCtx, cancel := context.WithCancel(taskCtx)
		defer cancel()
		stop := context.AfterFunc(ctx, cancel)
		defer stop()

		record.Status = queue.JobStatusProcessing
		record.Started = time.Now()
		wp.saveRecord(record, false)

		result := wp.processor.Process(jobCtx, job)
		wp.finishRecord(record, result)
		done <- result
		if result.Kind != KindCompleted {
			return result.Err
		}
		return nil
	})
	if err != nil {
		result := newResult(record.ID, job.JobID).fail(KindBusy, errors.Wrap(err, "服务繁忙，请稍后重试"))
		wp.finishRecord(record, result)
		utils.Warn("任务提交失败", map[string]string{"jobId": job.JobID, "error": err.Error()})
		return result
	}

	poolDone := wp.goroutinePool.Done()
	for {
		select {
		case result := <-done:
			return result
		case <-ctx.Done():
			result := newResult(record.ID, job.JobID).fail(KindCanceled, errors.Wrap(ctx.Err(), "请求已取消"))
			if claim() {
				wp.finishRecord(record, result)
			}
			// 已开始的任务随 ctx 一起取消，记录由任务goroutine收尾
			return result
		case <-poolDone:
			if claim() {
				result := newResult(record.ID, job.JobID).fail(KindBusy, errors.New("服务正在关闭，任务未执行"))
				wp.finishRecord(record, result)
				utils.Warn("工作池已停止，排队任务被丢弃", map[string]string{"id": record.ID, "jobId": job.JobID})
				return result
			}
			// 正在执行的任务会收到取消信号并返回结果
			poolDone = nil
		}
	}
}

func (wp *WorkerPool) saveRecord(record *queue.JobRecord, create bool) {
	if wp.store == nil {
		return
	}
	var err error
	if create {
		err = wp.store.Add(record)
	} else {
		err = wp.store.Update(record)
	}
	if err != nil {
		utils.Warn("保存任务记录失败", map[string]string{"id": record.ID, "error": err.Error()})
	}
}

func (wp *WorkerPool) finishRecord(record *queue.JobRecord, result *Result) {
	if result.JobID != "" {
		record.JobID = result.JobID
	}
	record.Status = result.Status()
	record.ClipCount = len(result.Clips)
	record.Links = result.Links
	record.Finished = time.Now()
	if result.Kind != KindCompleted {
		record.ErrorKind = string(result.Kind)
		record.Error = result.Message()
	}
	wp.saveRecord(record, false)
}
