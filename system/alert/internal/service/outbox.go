package service

import (
	"context"
	"sync"
	"time"

	"alerthub/pkg/core/logger"
)

// Job 投递到发件箱的低优先级任务
type Job struct {
	Name    string
	AlertID string
	Run     func(ctx context.Context) error
}

// Outbox 单 worker 消费的缓冲队列，确认/解决通知和事件发布都经由这里，不阻塞调用方。
// 队列满时丢弃任务并记录日志。
type Outbox struct {
	jobs       chan Job
	jobTimeout time.Duration
	log        *logger.Log

	mu      sync.RWMutex
	started bool
	closed  bool
	done    chan struct{}
}

func NewOutbox(size int, jobTimeout time.Duration, log *logger.Log) *Outbox {
	if size <= 0 {
		size = 1024
	}
	if jobTimeout <= 0 {
		jobTimeout = time.Minute
	}
	return &Outbox{
		jobs:       make(chan Job, size),
		jobTimeout: jobTimeout,
		log:        log.WithEntryName("Outbox"),
		done:       make(chan struct{}),
	}
}

func (o *Outbox) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started || o.closed {
		return
	}
	o.started = true
	go o.run()
}

func (o *Outbox) run() {
	defer close(o.done)
	for job := range o.jobs {
		o.execute(job)
	}
}

func (o *Outbox) execute(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), o.jobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			o.log.WithAlert(job.AlertID).WithOp(job.Name).WithField("panic", r).Error("发件箱任务异常")
		}
	}()
	if err := job.Run(ctx); err != nil {
		o.log.WithAlert(job.AlertID).WithOp(job.Name).WithErr(err).Error("发件箱任务执行失败")
	}
}

// Enqueue 返回 false 表示任务被丢弃
func (o *Outbox) Enqueue(job Job) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.log.WithAlert(job.AlertID).WithOp(job.Name).Warn("发件箱已关闭，丢弃任务")
		return false
	}
	select {
	case o.jobs <- job:
		return true
	default:
		o.log.WithAlert(job.AlertID).WithOp(job.Name).Warn("发件箱已满，丢弃任务")
		return false
	}
}

// Stop 关闭队列并等待剩余任务执行完毕，未启动时在当前 goroutine 中执行剩余任务
func (o *Outbox) Stop() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		<-o.done
		return
	}
	o.closed = true
	close(o.jobs)
	started := o.started
	o.mu.Unlock()

	if !started {
		o.run()
		return
	}
	<-o.done
}
