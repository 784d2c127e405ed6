package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"alerthub/pkg/clock"
	"alerthub/pkg/core/logger"
)

// Scheduler 单定时器驱动的任务调度器：任务按下次执行时间放入最小堆，
// 只为堆顶任务设置一个定时器。
type Scheduler struct {
	nodeID     string
	locker     Locker
	lockPrefix string
	clock      clock.Clock

	isRunning atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	taskHeap        *TaskHeap
	workerSemaphore chan struct{}

	timer   clock.Timer
	timerMu sync.Mutex

	log     *logger.Log
	statsMu sync.RWMutex
	stats   SchedulerStats
}

type SchedulerStats struct {
	TotalTasks      int64     `json:"total_tasks"`
	CompletedTasks  int64     `json:"completed_tasks"`
	FailedTasks     int64     `json:"failed_tasks"`
	SkippedTasks    int64     `json:"skipped_tasks"`
	LastExecuteTime time.Time `json:"last_execute_time"`
}

type SchedulerConfig struct {
	NodeID     string
	LockPrefix string
	MaxWorkers int
	// Locker 为空时分布式任务退化为本地执行
	Locker Locker
	Clock  clock.Clock
}

func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		NodeID:     fmt.Sprintf("scheduler-%d", time.Now().UnixNano()),
		LockPrefix: "alerthub:scheduler:",
		MaxWorkers: 10,
		Clock:      clock.Real(),
	}
}

func NewScheduler(config *SchedulerConfig) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 10
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		nodeID:          config.NodeID,
		locker:          config.Locker,
		lockPrefix:      config.LockPrefix,
		clock:           config.Clock,
		ctx:             ctx,
		cancel:          cancel,
		taskHeap:        NewTaskHeap(),
		workerSemaphore: make(chan struct{}, config.MaxWorkers),
		log:             logger.GetLogger().WithEntryName("Scheduler").WithField("node", config.NodeID),
	}
}

func (s *Scheduler) Start() error {
	if !s.isRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("调度器已经在运行")
	}
	s.log.Info("启动调度器")
	s.resetTimer()
	return nil
}

// Stop 停止调度并等待执行中的任务结束
func (s *Scheduler) Stop() error {
	if !s.isRunning.CompareAndSwap(true, false) {
		return nil
	}
	s.log.Info("停止调度器")
	s.cancel()
	s.stopTimer()
	s.wg.Wait()
	s.log.Info("调度器已停止")
	return nil
}

func (s *Scheduler) AddTask(task Task) error {
	if !s.isRunning.Load() {
		return fmt.Errorf("调度器未运行")
	}

	task.Prepare(s.clock.Now())
	s.taskHeap.SafePush(task)
	s.record(func(st *SchedulerStats) { st.TotalTasks++ })

	s.log.Infof("添加任务: %s [%s]，首次执行时间 %s", task.GetName(), task.GetID(), task.GetNextTime().Format(time.RFC3339))
	s.resetTimer()
	return nil
}

func (s *Scheduler) RemoveTask(taskID string) bool {
	removed := s.taskHeap.SafeRemove(taskID)
	if removed {
		s.log.Infof("移除任务: %s", taskID)
		s.resetTimer()
	}
	return removed
}

func (s *Scheduler) ListTasks() []Task {
	return s.taskHeap.SafeList()
}

func (s *Scheduler) GetStats() SchedulerStats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	return s.stats
}

func (s *Scheduler) resetTimer() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !s.isRunning.Load() {
		return
	}

	nextTime := s.taskHeap.GetNextExecuteTime()
	if nextTime == nil {
		return
	}
	wait := nextTime.Sub(s.clock.Now())
	if wait < 0 {
		wait = 0
	}
	s.timer = s.clock.AfterFunc(wait, s.onTimerFired)
}

func (s *Scheduler) stopTimer() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) onTimerFired() {
	if !s.isRunning.Load() {
		return
	}

	readyTasks := s.taskHeap.PopReadyTasks(s.clock.Now())
	for _, task := range readyTasks {
		s.dispatch(task)
	}
	// 剩余任务的定时器，执行中的任务完成后会再次重置
	s.resetTimer()
}

func (s *Scheduler) dispatch(task Task) {
	select {
	case s.workerSemaphore <- struct{}{}:
		s.wg.Add(1)
		go func(t Task) {
			defer s.wg.Done()
			defer func() { <-s.workerSemaphore }()
			s.runTask(t)
		}(task)
	default:
		s.log.Warnf("工作者池已满，任务顺延一秒: %s", task.GetName())
		s.reschedule(task, s.clock.Now().Add(time.Second))
	}
}

func (s *Scheduler) runTask(task Task) {
	defer s.reschedule(task, time.Time{})

	ctx, cancel := context.WithTimeout(s.ctx, task.GetTimeout())
	defer cancel()

	if task.GetExecuteMode() == TaskExecuteModeDistributed && s.locker != nil {
		unlock, ok, err := s.locker.TryLock(ctx, s.lockPrefix+task.GetName(), task.GetTimeout())
		if err != nil {
			s.log.WithErr(err).Errorf("获取任务锁失败，本轮跳过: %s", task.GetName())
			s.record(func(st *SchedulerStats) { st.SkippedTasks++ })
			return
		}
		if !ok {
			s.log.Debugf("任务由其他实例执行，本轮跳过: %s", task.GetName())
			s.record(func(st *SchedulerStats) { st.SkippedTasks++ })
			return
		}
		defer unlock()
	}

	start := s.clock.Now()
	s.log.Infof("开始执行任务: %s [%s]", task.GetName(), task.GetID())
	err := task.Execute(ctx)
	s.record(func(st *SchedulerStats) { st.LastExecuteTime = start })

	if err != nil {
		s.log.WithErr(err).Errorf("任务执行失败: %s [%s]", task.GetName(), task.GetID())
		s.record(func(st *SchedulerStats) { st.FailedTasks++ })
		return
	}
	s.log.Infof("任务执行成功: %s [%s]", task.GetName(), task.GetID())
	s.record(func(st *SchedulerStats) { st.CompletedTasks++ })
}

// reschedule at 为零值时按任务自身周期计算下次时间
func (s *Scheduler) reschedule(task Task, at time.Time) {
	if !s.isRunning.Load() || task.GetStatus() == TaskStatusCanceled {
		return
	}
	if at.IsZero() {
		task.UpdateNextTime(s.clock.Now())
	} else if bt, ok := task.(interface{ setNextTime(time.Time) }); ok {
		bt.setNextTime(at)
	}
	s.taskHeap.SafePush(task)
	s.resetTimer()
}

func (s *Scheduler) record(f func(st *SchedulerStats)) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	f(&s.stats)
}
