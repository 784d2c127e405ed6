package dao

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"alerthub/pkg/clock"
	errorc "alerthub/pkg/core/err"
)

type memoryEntry struct {
	value    []byte
	expireAt time.Time
}

// MemoryKV 内存实现，过期时间按注入的时钟判断，读取时惰性清理
type MemoryKV struct {
	mu     sync.Mutex
	clock  clock.Clock
	values map[string]memoryEntry
	sets   map[string]map[string]struct{}
	err    *errorc.ErrorBuilder
}

func NewMemoryKV(c clock.Clock) *MemoryKV {
	if c == nil {
		c = clock.Real()
	}
	return &MemoryKV{
		clock:  c,
		values: make(map[string]memoryEntry),
		sets:   make(map[string]map[string]struct{}),
		err:    errorc.NewErrorBuilder("MemoryKV"),
	}
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(key, value, ttl)
	return nil
}

func (m *MemoryKV) put(key string, value []byte, ttl time.Duration) {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expireAt = m.clock.Now().Add(ttl)
	}
	m.values[key] = e
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(key)
	if !ok {
		return nil, m.err.New("键不存在: "+key, nil).NotFound()
	}
	return append([]byte(nil), e.value...), nil
}

// lookup 调用方需持有锁
func (m *MemoryKV) lookup(key string) (memoryEntry, bool) {
	e, ok := m.values[key]
	if !ok {
		return e, false
	}
	if !e.expireAt.IsZero() && !m.clock.Now().Before(e.expireAt) {
		delete(m.values, key)
		return e, false
	}
	return e, true
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryKV) AddToSet(_ context.Context, setKey, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addToSet(setKey, member)
	return nil
}

func (m *MemoryKV) addToSet(setKey, member string) {
	set, ok := m.sets[setKey]
	if !ok {
		set = make(map[string]struct{})
		m.sets[setKey] = set
	}
	set[member] = struct{}{}
}

func (m *MemoryKV) RemoveFromSet(_ context.Context, setKey, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeFromSet(setKey, member)
	return nil
}

func (m *MemoryKV) removeFromSet(setKey, member string) {
	if set, ok := m.sets[setKey]; ok {
		delete(set, member)
		if len(set) == 0 {
			delete(m.sets, setKey)
		}
	}
}

func (m *MemoryKV) MembersOf(_ context.Context, setKey string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sets[setKey]))
	for member := range m.sets[setKey] {
		out = append(out, member)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryKV) KeysMatching(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for key := range m.values {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if _, ok := m.lookup(key); ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryKV) PutIndexed(_ context.Context, key string, value []byte, ttl time.Duration, setKey, member string, inIndex bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(key, value, ttl)
	if inIndex {
		m.addToSet(setKey, member)
	} else {
		m.removeFromSet(setKey, member)
	}
	return nil
}

func (m *MemoryKV) DeleteIndexed(_ context.Context, key, setKey, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	m.removeFromSet(setKey, member)
	return nil
}
