package app

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"alerthub/pkg/clock"
	"alerthub/pkg/core/config"
	"alerthub/pkg/notifier"
	"alerthub/system/alert/internal/dao"
	"alerthub/system/alert/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gateKV 让前 n 次 PutIndexed 互相等待，直到 n 个调用都已到达
type gateKV struct {
	*dao.MemoryKV
	n       int
	mu      sync.Mutex
	arrived int
	release chan struct{}
}

func newGateKV(c clock.Clock, n int) *gateKV {
	return &gateKV{MemoryKV: dao.NewMemoryKV(c), n: n, release: make(chan struct{})}
}

func (g *gateKV) PutIndexed(ctx context.Context, key string, value []byte, ttl time.Duration, setKey, member string, inIndex bool) error {
	g.mu.Lock()
	g.arrived++
	gated := g.arrived <= g.n
	if g.arrived == g.n {
		close(g.release)
	}
	g.mu.Unlock()
	if gated {
		<-g.release
	}
	return g.MemoryKV.PutIndexed(ctx, key, value, ttl, setKey, member, inIndex)
}

func TestConcurrentIdenticalAlertsOneEscalates(t *testing.T) {
	c := clock.NewFake(t0)
	sender := &recordingSender{failing: map[string]bool{}}
	a, err := NewApp(Options{Store: newGateKV(c, 2), Sender: sender, Clock: c})
	require.NoError(t, err)
	t.Cleanup(a.Stop)

	var wg sync.WaitGroup
	levels := make([]int, 2)
	for i := range levels {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			alert, err := a.DatabaseError(context.Background(), "SELECT", nil)
			if assert.NoError(t, err) {
				levels[i] = alert.EscalationLevel
			}
		}(i)
	}
	wg.Wait()

	sort.Ints(levels)
	assert.Equal(t, []int{0, 1}, levels)
	assert.Equal(t, 4, sender.count())
	assert.Equal(t, 1, c.Pending())
}

func TestCreateAlertWithCancelledContext(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	alert, err := h.app.DatabaseError(ctx, "SELECT", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, alert.EscalationLevel)
	assert.Len(t, alert.NotificationsSent, 4)
	assert.Equal(t, 4, h.sender.count())

	h.clock.Advance(10 * time.Minute)
	assert.Equal(t, 8, h.sender.count())
}

// slowSender 每次发送等待 delay，按告警ID统计升级通知
type slowSender struct {
	delay time.Duration
	mu    sync.Mutex
	sends map[string]int
}

func (s *slowSender) Send(_ context.Context, channel notifier.ChannelType, recipient string, msg *notifier.Message) (*notifier.Result, error) {
	time.Sleep(s.delay)
	if strings.HasPrefix(msg.Title, "🚨") {
		s.mu.Lock()
		s.sends[msg.ID]++
		s.mu.Unlock()
	}
	return &notifier.Result{Channel: channel, Recipient: recipient, Success: true}, nil
}

func (s *slowSender) count(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sends[id]
}

func TestResolveRacingEscalationOnRealClock(t *testing.T) {
	c := clock.Real()
	sender := &slowSender{delay: 200 * time.Microsecond, sends: map[string]int{}}
	a, err := NewApp(Options{
		Config: config.AlertConfig{
			OutboxSize: 1024,
			Rules: []config.RuleConfig{{
				Type:     "race_check",
				Severity: string(model.SeverityHigh),
				Escalation: []config.EscalationConfig{
					{Level: 1, Channels: []string{"email", "sms"}, Recipients: []string{"a", "b", "c"}},
					{Level: 2, Channels: []string{"email", "sms"}, Recipients: []string{"d", "e", "f"}},
					{Level: 3, Channels: []string{"phone"}, Recipients: []string{"g", "h"}},
				},
			}},
		},
		Store:  dao.NewMemoryKV(c),
		Sender: sender,
		Clock:  c,
	})
	require.NoError(t, err)
	t.Cleanup(a.Stop)
	ctx := context.Background()

	done := make(chan struct{})
	resolverDone := make(chan struct{})
	go func() {
		defer close(resolverDone)
		for {
			select {
			case <-done:
				return
			default:
			}
			active, err := a.GetActiveAlerts(ctx)
			if err != nil {
				continue
			}
			for _, alert := range active {
				_, _ = a.ResolveAlert(ctx, alert.ID, "巡检", "")
			}
			runtime.Gosched()
		}
	}()

	const n = 20
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			alert, err := a.CreateAlert(ctx, model.AlertInput{
				Type:     "race_check",
				Severity: model.SeverityHigh,
				Title:    "并发检查",
				Message:  "并发创建与解决",
				Source:   fmt.Sprintf("node-%d", i),
			})
			if assert.NoError(t, err) {
				ids[i] = alert.ID
			}
		}(i)
	}
	wg.Wait()
	close(done)
	<-resolverDone

	for _, id := range ids {
		_, err := a.ResolveAlert(ctx, id, "巡检", "")
		require.NoError(t, err)
	}

	for _, id := range ids {
		got, err := a.GetAlert(ctx, id)
		require.NoError(t, err)
		require.True(t, got.Resolved, id)
		require.NotNil(t, got.ResolvedAt)

		// 每次到达发送端的尝试都被记录，且记录时间不晚于解决时间
		assert.Equal(t, sender.count(id), len(got.NotificationsSent), id)
		for _, entry := range got.NotificationsSent {
			parts := strings.SplitN(entry, ":", 3)
			require.Len(t, parts, 3, entry)
			at, err := time.Parse(time.RFC3339, parts[2])
			require.NoError(t, err)
			assert.False(t, at.After(*got.ResolvedAt), "%s 在 %s 之后发送", entry, got.ResolvedAt)
		}
		assert.LessOrEqual(t, got.EscalationLevel, 3)
	}

	active, err := a.GetActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

// flakyKV 写入失败开关
type flakyKV struct {
	*dao.MemoryKV
	failWrites atomic.Bool
}

func (f *flakyKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.failWrites.Load() {
		return errStoreDown
	}
	return f.MemoryKV.Put(ctx, key, value, ttl)
}

func (f *flakyKV) PutIndexed(ctx context.Context, key string, value []byte, ttl time.Duration, setKey, member string, inIndex bool) error {
	if f.failWrites.Load() {
		return errStoreDown
	}
	return f.MemoryKV.PutIndexed(ctx, key, value, ttl, setKey, member, inIndex)
}

func TestStaleStoreRecordAfterFailedResolve(t *testing.T) {
	c := clock.NewFake(t0)
	kv := &flakyKV{MemoryKV: dao.NewMemoryKV(c)}
	sender := &recordingSender{failing: map[string]bool{}}
	a, err := NewApp(Options{Store: kv, Sender: sender, Clock: c})
	require.NoError(t, err)
	t.Cleanup(a.Stop)
	ctx := context.Background()

	alert, err := a.DatabaseError(ctx, "SELECT", nil)
	require.NoError(t, err)

	kv.failWrites.Store(true)
	ok, err := a.ResolveAlert(ctx, alert.ID, "张三", "")
	require.NoError(t, err)
	assert.True(t, ok)
	kv.failWrites.Store(false)

	// 存储中仍是未解决的记录，不能借此重新激活
	ok, err = a.AcknowledgeAlert(ctx, alert.ID, "李四")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = a.ResolveAlert(ctx, alert.ID, "李四", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSuppressedAlertNoticeGoesToFirstLevel(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})
	ctx := context.Background()

	_, err := h.app.DatabaseError(ctx, "SELECT", nil)
	require.NoError(t, err)
	levelOne := map[string]bool{}
	for _, s := range h.sender.all() {
		levelOne[s.Recipient] = true
	}

	h.clock.Advance(time.Minute)
	suppressed, err := h.app.DatabaseError(ctx, "SELECT", nil)
	require.NoError(t, err)
	require.Equal(t, 0, suppressed.EscalationLevel)

	ok, err := h.app.AcknowledgeAlert(ctx, suppressed.ID, "张三")
	require.NoError(t, err)
	assert.True(t, ok)

	h.app.Stop()
	notices := h.sender.all()[4:]
	require.NotEmpty(t, notices)
	for _, n := range notices {
		assert.True(t, strings.HasPrefix(n.Title, "告警已确认"), n.Title)
		assert.True(t, levelOne[n.Recipient], n.Recipient)
	}
}
