package service

import (
	"sync"
	"sync/atomic"
	"time"

	"alerthub/system/alert/internal/model"
)

// TrackedAlert 内存中的告警。状态修改必须持有 mu；
// halted 在确认或解决时置位，发送过程无需加锁即可感知。
type TrackedAlert struct {
	mu     sync.Mutex
	alert  *model.Alert
	halted atomic.Bool
	// seq 纳入内存索引的顺序，只在 Tracker.mu 下赋值
	seq uint64
}

func newTrackedAlert(alert *model.Alert, seq uint64) *TrackedAlert {
	t := &TrackedAlert{alert: alert, seq: seq}
	if alert.Terminal() {
		t.halted.Store(true)
	}
	return t
}

func (t *TrackedAlert) ID() string {
	return t.alert.ID
}

func (t *TrackedAlert) Halted() bool {
	return t.halted.Load()
}

// Snapshot 返回当前状态的副本
func (t *TrackedAlert) Snapshot() *model.Alert {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.alert.Clone()
}

// Tracker 未解决告警的内存索引，进程内以它为准。
// retired 记录本进程内已解决告警的解决时间，用于识别存储中未及时更新的旧记录。
type Tracker struct {
	mu      sync.RWMutex
	alerts  map[string]*TrackedAlert
	retired map[string]time.Time
	seq     uint64
}

func NewTracker() *Tracker {
	return &Tracker{
		alerts:  make(map[string]*TrackedAlert),
		retired: make(map[string]time.Time),
	}
}

// Track 已存在同 ID 时返回已有实例
func (t *Tracker) Track(alert *model.Alert) (*TrackedAlert, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.alerts[alert.ID]; ok {
		return existing, false
	}
	t.seq++
	tracked := newTrackedAlert(alert, t.seq)
	t.alerts[alert.ID] = tracked
	return tracked, true
}

func (t *Tracker) Get(id string) *TrackedAlert {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alerts[id]
}

// Retire 解决后移出内存索引并记录解决时间
func (t *Tracker) Retire(id string, resolvedAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.alerts, id)
	t.retired[id] = resolvedAt
}

// RetiredAt 本进程内解决过的告警返回解决时间
func (t *Tracker) RetiredAt(id string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	at, ok := t.retired[id]
	return at, ok
}

// PruneRetired 清理解决时间早于 before 的记录，返回清理数量
func (t *Tracker) PruneRetired(before time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id, at := range t.retired {
		if at.Before(before) {
			delete(t.retired, id)
			n++
		}
	}
	return n
}

func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.alerts)
}

// Snapshots 返回全部告警的副本，顺序不定
func (t *Tracker) Snapshots() []*model.Alert {
	t.mu.RLock()
	items := make([]*TrackedAlert, 0, len(t.alerts))
	for _, item := range t.alerts {
		items = append(items, item)
	}
	t.mu.RUnlock()

	out := make([]*model.Alert, 0, len(items))
	for _, item := range items {
		out = append(out, item.Snapshot())
	}
	return out
}

// HasSimilar 是否存在 since 之后创建、同类型同来源的未解决告警。
// 只比较比 id 更早纳入索引的告警，同时创建的两条告警只有后者被视为重复；id 未被跟踪时与全部告警比较。
func (t *Tracker) HasSimilar(alertType model.AlertType, source string, since time.Time, id string) bool {
	t.mu.RLock()
	limit := ^uint64(0)
	if self, ok := t.alerts[id]; ok {
		limit = self.seq
	}
	items := make([]*TrackedAlert, 0, len(t.alerts))
	for _, item := range t.alerts {
		if item.seq < limit && item.ID() != id {
			items = append(items, item)
		}
	}
	t.mu.RUnlock()

	for _, item := range items {
		a := item.Snapshot()
		if a.Resolved {
			continue
		}
		if a.Type == alertType && a.Source == source && a.Timestamp.After(since) {
			return true
		}
	}
	return false
}
