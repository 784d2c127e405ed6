package clock

import (
	"sync"
	"time"
)

// Fake 手动推进的时钟。到期的回调在调用 Advance 的 goroutine 上同步执行，
// 按到期时间先后排列，到期时间相同时按创建顺序。
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *Fake
	due   time.Time
	seq   uint64
	fn    func()
	done  bool
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	t := &fakeTimer{clock: f, due: f.now.Add(d), seq: f.seq, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

// Advance 推进时间并执行窗口内到期的回调，回调中新建且仍在窗口内的定时器同样会被执行
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()
	f.runUntil(target)
}

// Set 将时间设置到 t，t 早于当前时间时只修改时间不触发回调
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	if !t.After(f.now) {
		f.now = t
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	f.runUntil(t)
}

// Pending 返回尚未触发也未取消的定时器数量
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

func (f *Fake) runUntil(target time.Time) {
	for {
		f.mu.Lock()
		next := f.popDue(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		if next.due.After(f.now) {
			f.now = next.due
		}
		f.mu.Unlock()

		next.fn()
	}
}

// popDue 调用方需持有锁
func (f *Fake) popDue(target time.Time) *fakeTimer {
	idx := -1
	for i, t := range f.timers {
		if t.due.After(target) {
			continue
		}
		if idx < 0 || t.due.Before(f.timers[idx].due) ||
			(t.due.Equal(f.timers[idx].due) && t.seq < f.timers[idx].seq) {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}
	t := f.timers[idx]
	f.timers = append(f.timers[:idx], f.timers[idx+1:]...)
	t.done = true
	return t
}

func (t *fakeTimer) Stop() bool {
	f := t.clock
	f.mu.Lock()
	defer f.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	for i, item := range f.timers {
		if item == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			break
		}
	}
	return true
}
