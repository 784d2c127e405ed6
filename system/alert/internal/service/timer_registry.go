package service

import (
	"sync"
	"time"

	"alerthub/pkg/clock"
)

type timerEntry struct {
	token uint64
	timer clock.Timer
}

// TimerRegistry 告警 ID 到待触发升级定时器的映射，每个 ID 至多一个有效定时器。
// 只允许 Schedule（插入或替换）、Cancel 和 Release 三种修改。
type TimerRegistry struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]timerEntry
	gen     uint64
}

func NewTimerRegistry(c clock.Clock) *TimerRegistry {
	return &TimerRegistry{
		clock:   c,
		entries: make(map[string]timerEntry),
	}
}

// Schedule 在 d 后调用 fire，已有定时器会被停止并替换。
// fire 收到的 token 需交给 Release 以确认自己仍是当前定时器。
func (r *TimerRegistry) Schedule(id string, d time.Duration, fire func(token uint64)) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[id]; ok {
		old.timer.Stop()
	}
	r.gen++
	token := r.gen
	timer := r.clock.AfterFunc(d, func() { fire(token) })
	r.entries[id] = timerEntry{token: token, timer: timer}
	return token
}

// Cancel 停止并移除定时器，返回是否存在待触发的定时器
func (r *TimerRegistry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return false
	}
	delete(r.entries, id)
	entry.timer.Stop()
	return true
}

// Release 触发中的定时器调用，token 不是当前值时返回 false，调用方应放弃执行
func (r *TimerRegistry) Release(id string, token uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok || entry.token != token {
		return false
	}
	delete(r.entries, id)
	return true
}

func (r *TimerRegistry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// CancelAll 停止全部定时器，返回停止的数量
func (r *TimerRegistry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.entries)
	for id, entry := range r.entries {
		entry.timer.Stop()
		delete(r.entries, id)
	}
	return n
}

func (r *TimerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
