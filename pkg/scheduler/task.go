package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// TaskType 任务类型
type TaskType int

const (
	TaskTypeInterval TaskType = iota
	TaskTypeCron
)

// TaskStatus 任务状态
type TaskStatus int

const (
	TaskStatusWaiting TaskStatus = iota
	TaskStatusRunning
	TaskStatusFailed
	TaskStatusCanceled
)

// TaskExecuteMode 任务执行模式
type TaskExecuteMode int

const (
	// TaskExecuteModeDistributed 多实例部署时同一时刻只有一个实例执行，需要配置 Locker
	TaskExecuteModeDistributed TaskExecuteMode = iota
	// TaskExecuteModeLocal 每个实例都执行
	TaskExecuteModeLocal
)

// TaskFunc 任务执行函数
type TaskFunc func(ctx context.Context) error

type Task interface {
	GetID() string
	GetName() string
	GetType() TaskType
	GetExecuteMode() TaskExecuteMode
	GetNextTime() time.Time
	GetTimeout() time.Duration
	Execute(ctx context.Context) error
	// Prepare 加入调度器时根据当前时间确定首次执行时间
	Prepare(now time.Time)
	// UpdateNextTime 执行完成后计算下次执行时间
	UpdateNextTime(currentTime time.Time) time.Time
	CanExecute(currentTime time.Time) bool
	GetStatus() TaskStatus
	SetStatus(status TaskStatus)
}

type BaseTask struct {
	mu          sync.RWMutex
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        TaskType        `json:"type"`
	ExecuteMode TaskExecuteMode `json:"execute_mode"`
	Status      TaskStatus      `json:"status"`
	NextTime    time.Time       `json:"next_time"`
	Timeout     time.Duration   `json:"timeout"`
	Func        TaskFunc        `json:"-"`
}

func newBaseTask(name string, taskType TaskType, mode TaskExecuteMode, timeout time.Duration, fn TaskFunc) *BaseTask {
	return &BaseTask{
		ID:          uuid.New().String(),
		Name:        name,
		Type:        taskType,
		ExecuteMode: mode,
		Status:      TaskStatusWaiting,
		Timeout:     timeout,
		Func:        fn,
	}
}

func (t *BaseTask) GetID() string {
	return t.ID
}

func (t *BaseTask) GetName() string {
	return t.Name
}

func (t *BaseTask) GetType() TaskType {
	return t.Type
}

func (t *BaseTask) GetExecuteMode() TaskExecuteMode {
	return t.ExecuteMode
}

func (t *BaseTask) GetNextTime() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.NextTime
}

func (t *BaseTask) setNextTime(next time.Time) {
	t.mu.Lock()
	t.NextTime = next
	t.mu.Unlock()
}

// GetTimeout 未设置时默认 30 秒
func (t *BaseTask) GetTimeout() time.Duration {
	if t.Timeout <= 0 {
		return 30 * time.Second
	}
	return t.Timeout
}

func (t *BaseTask) Execute(ctx context.Context) error {
	if t.Func == nil {
		return nil
	}

	t.SetStatus(TaskStatusRunning)
	err := t.Func(ctx)
	if err != nil {
		t.SetStatus(TaskStatusFailed)
	} else {
		t.SetStatus(TaskStatusWaiting)
	}
	return err
}

// CanExecute 失败的任务也会继续按周期执行
func (t *BaseTask) CanExecute(currentTime time.Time) bool {
	status := t.GetStatus()
	return (status == TaskStatusWaiting || status == TaskStatusFailed) && !currentTime.Before(t.GetNextTime())
}

func (t *BaseTask) GetStatus() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

func (t *BaseTask) SetStatus(status TaskStatus) {
	t.mu.Lock()
	t.Status = status
	t.mu.Unlock()
}

// IntervalTask 固定间隔任务
type IntervalTask struct {
	*BaseTask
	Interval  time.Duration `json:"interval"`
	startTime time.Time
}

// NewIntervalTask startTime 为零值时从加入调度器起等待一个间隔后首次执行
func NewIntervalTask(name string, startTime time.Time, interval time.Duration, executeMode TaskExecuteMode, timeout time.Duration, fn TaskFunc) *IntervalTask {
	return &IntervalTask{
		BaseTask:  newBaseTask(name, TaskTypeInterval, executeMode, timeout, fn),
		Interval:  interval,
		startTime: startTime,
	}
}

func (t *IntervalTask) Prepare(now time.Time) {
	if t.startTime.IsZero() {
		t.setNextTime(now.Add(t.Interval))
		return
	}
	t.setNextTime(t.startTime)
}

func (t *IntervalTask) UpdateNextTime(currentTime time.Time) time.Time {
	next := currentTime.Add(t.Interval)
	t.setNextTime(next)
	return next
}

// CronTask 基于Cron表达式的任务，表达式带秒字段
type CronTask struct {
	*BaseTask
	CronExpr string `json:"cron_expr"`
	schedule cron.Schedule
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func NewCronTask(name string, cronExpr string, executeMode TaskExecuteMode, timeout time.Duration, fn TaskFunc) (*CronTask, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return nil, err
	}
	return &CronTask{
		BaseTask: newBaseTask(name, TaskTypeCron, executeMode, timeout, fn),
		CronExpr: cronExpr,
		schedule: schedule,
	}, nil
}

func (t *CronTask) Prepare(now time.Time) {
	t.setNextTime(t.schedule.Next(now))
}

func (t *CronTask) UpdateNextTime(currentTime time.Time) time.Time {
	next := t.schedule.Next(currentTime)
	t.setNextTime(next)
	return next
}
