package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// TaskHeap 按下次执行时间排序的最小堆
type TaskHeap struct {
	mu    sync.RWMutex
	tasks []Task
}

func NewTaskHeap() *TaskHeap {
	th := &TaskHeap{tasks: make([]Task, 0)}
	heap.Init(th)
	return th
}

func (th *TaskHeap) Len() int {
	return len(th.tasks)
}

func (th *TaskHeap) Less(i, j int) bool {
	return th.tasks[i].GetNextTime().Before(th.tasks[j].GetNextTime())
}

func (th *TaskHeap) Swap(i, j int) {
	th.tasks[i], th.tasks[j] = th.tasks[j], th.tasks[i]
}

func (th *TaskHeap) Push(x interface{}) {
	th.tasks = append(th.tasks, x.(Task))
}

func (th *TaskHeap) Pop() interface{} {
	old := th.tasks
	n := len(old)
	task := old[n-1]
	th.tasks = old[0 : n-1]
	return task
}

func (th *TaskHeap) SafePush(task Task) {
	th.mu.Lock()
	defer th.mu.Unlock()
	heap.Push(th, task)
}

func (th *TaskHeap) SafeRemove(taskID string) bool {
	th.mu.Lock()
	defer th.mu.Unlock()

	for i, task := range th.tasks {
		if task.GetID() == taskID {
			heap.Remove(th, i)
			return true
		}
	}
	return false
}

func (th *TaskHeap) SafeList() []Task {
	th.mu.RLock()
	defer th.mu.RUnlock()

	result := make([]Task, len(th.tasks))
	copy(result, th.tasks)
	return result
}

func (th *TaskHeap) SafeSize() int {
	th.mu.RLock()
	defer th.mu.RUnlock()
	return th.Len()
}

// GetNextExecuteTime 堆为空时返回 nil
func (th *TaskHeap) GetNextExecuteTime() *time.Time {
	th.mu.RLock()
	defer th.mu.RUnlock()

	if th.Len() == 0 {
		return nil
	}
	nextTime := th.tasks[0].GetNextTime()
	return &nextTime
}

// PopReadyTasks 弹出所有已到执行时间的任务
func (th *TaskHeap) PopReadyTasks(currentTime time.Time) []Task {
	th.mu.Lock()
	defer th.mu.Unlock()

	var readyTasks []Task
	for th.Len() > 0 && th.tasks[0].CanExecute(currentTime) {
		readyTasks = append(readyTasks, heap.Pop(th).(Task))
	}
	return readyTasks
}
