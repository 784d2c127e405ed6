package app

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"alerthub/pkg/clock"
	"alerthub/pkg/core/config"
	errorc "alerthub/pkg/core/err"
	"alerthub/pkg/core/logger"
	"alerthub/pkg/notifier"
	"alerthub/pkg/scheduler"
	"alerthub/system/alert/internal/dao"
	"alerthub/system/alert/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

type sent struct {
	Channel   notifier.ChannelType
	Recipient string
	Title     string
}

type recordingSender struct {
	mu      sync.Mutex
	sent    []sent
	failing map[string]bool
}

func (r *recordingSender) Send(_ context.Context, channel notifier.ChannelType, recipient string, msg *notifier.Message) (*notifier.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{Channel: channel, Recipient: recipient, Title: msg.Title})
	if r.failing[string(channel)+":"+recipient] {
		return nil, errors.New("网关不可用")
	}
	return &notifier.Result{Channel: channel, Recipient: recipient, Success: true}, nil
}

func (r *recordingSender) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.sent...)
}

func (r *recordingSender) count() int {
	return len(r.all())
}

type harness struct {
	app    *App
	clock  *clock.Fake
	sender *recordingSender
	kv     *dao.MemoryKV
}

func newHarness(t *testing.T, cfg config.AlertConfig) *harness {
	c := clock.NewFake(t0)
	kv := dao.NewMemoryKV(c)
	return newHarnessOn(t, cfg, c, kv)
}

func newHarnessOn(t *testing.T, cfg config.AlertConfig, c *clock.Fake, kv *dao.MemoryKV) *harness {
	sender := &recordingSender{failing: map[string]bool{}}
	a, err := NewApp(Options{Config: cfg, Store: kv, Sender: sender, Clock: c})
	require.NoError(t, err)
	t.Cleanup(a.Stop)
	return &harness{app: a, clock: c, sender: sender, kv: kv}
}

func TestNewAppRequiresStoreAndSender(t *testing.T) {
	_, err := NewApp(Options{})
	assert.True(t, errorc.HasCode(err, errorc.ErrorCodeValid))
}

func TestCreateAlertEscalatesImmediatelyThenOnTimer(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})
	ctx := context.Background()

	alert, err := h.app.DatabaseError(ctx, "SELECT orders", errors.New("连接超时"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ALERT-\d+-[0-9a-f]{8}$`), alert.ID)
	assert.Equal(t, 1, alert.EscalationLevel)
	assert.Len(t, alert.NotificationsSent, 4)
	assert.Equal(t, "email:admin@alerthub.local:2026-04-01T08:00:00Z", alert.NotificationsSent[0])
	assert.Equal(t, 4, h.sender.count())

	h.clock.Advance(9 * time.Minute)
	assert.Equal(t, 4, h.sender.count())

	h.clock.Advance(time.Minute)
	assert.Equal(t, 8, h.sender.count())

	got, err := h.app.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.EscalationLevel)
	assert.Len(t, got.NotificationsSent, 8)
	assert.Equal(t, "sms:dba@alerthub.local:2026-04-01T08:10:00Z", got.NotificationsSent[7])

	// 已到最高级别，没有待触发的定时器
	assert.Equal(t, 0, h.clock.Pending())

	stored, err := dao.NewAlertDao(h.kv, "", time.Hour, logger.GetLogger()).Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.EscalationLevel)
}

func TestEscalationLevelNeverDecreases(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})
	ctx := context.Background()

	alert, err := h.app.SystemFailure(ctx, "payment", errors.New("panic"))
	require.NoError(t, err)

	last := alert.EscalationLevel
	for i := 0; i < 30; i++ {
		h.clock.Advance(time.Minute)
		got, err := h.app.GetAlert(ctx, alert.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.EscalationLevel, last)
		last = got.EscalationLevel
	}
	assert.Equal(t, 3, last)
}

func TestNotificationFailureDoesNotStopEscalation(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})
	h.sender.failing["email:admin@alerthub.local"] = true

	alert, err := h.app.DatabaseError(context.Background(), "INSERT", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, alert.EscalationLevel)
	assert.Len(t, alert.NotificationsSent, 4)
	assert.Equal(t, 1, h.clock.Pending())
}

func TestSimilarAlertSuppressed(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})
	ctx := context.Background()

	first, err := h.app.DatabaseError(ctx, "SELECT", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.EscalationLevel)

	h.clock.Advance(time.Minute)
	second, err := h.app.DatabaseError(ctx, "SELECT", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.EscalationLevel)
	assert.Empty(t, second.NotificationsSent)
	assert.Equal(t, 4, h.sender.count())

	// 被抑制的告警仍然是活跃告警
	active, err := h.app.GetActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, second.ID, active[0].ID)

	// 窗口过后第一条告警的第二级照常触发，新告警不再被抑制
	h.clock.Advance(19 * time.Minute)
	assert.Equal(t, 8, h.sender.count())
	third, err := h.app.DatabaseError(ctx, "SELECT", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, third.EscalationLevel)
	assert.Equal(t, 12, h.sender.count())
}

func TestAcknowledgeHaltsEscalation(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})
	ctx := context.Background()

	alert, err := h.app.DatabaseError(ctx, "UPDATE", nil)
	require.NoError(t, err)

	ok, err := h.app.AcknowledgeAlert(ctx, alert.ID, "张三")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, h.clock.Pending())

	h.clock.Advance(30 * time.Minute)
	assert.Equal(t, 4, h.sender.count())

	got, err := h.app.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, got.Acknowledged)
	assert.Equal(t, "张三", got.AcknowledgedBy)
	require.NotNil(t, got.AcknowledgedAt)
	assert.True(t, t0.Equal(*got.AcknowledgedAt))
	assert.Equal(t, 1, got.EscalationLevel)

	ok, err = h.app.AcknowledgeAlert(ctx, alert.ID, "李四")
	require.NoError(t, err)
	assert.False(t, ok)

	// 已确认的告警仍可解决
	ok, err = h.app.ResolveAlert(ctx, alert.ID, "李四", "")
	require.NoError(t, err)
	assert.True(t, ok)

	// 生命周期通知在发件箱中，Stop 时执行完毕
	h.app.Stop()
	notices := h.sender.all()[4:]
	require.Len(t, notices, 8)
	for _, n := range notices[:4] {
		assert.True(t, strings.HasPrefix(n.Title, "告警已确认"), n.Title)
	}
	for _, n := range notices[4:] {
		assert.True(t, strings.HasPrefix(n.Title, "告警已解决"), n.Title)
	}
}

func TestResolveIsFinal(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})
	ctx := context.Background()

	alert, err := h.app.SystemFailure(ctx, "api-gateway", errors.New("oom"))
	require.NoError(t, err)

	h.clock.Advance(2 * time.Minute)
	ok, err := h.app.ResolveAlert(ctx, alert.ID, "值班", "已重启")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, h.clock.Pending())

	got, err := h.app.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, got.Resolved)
	assert.Equal(t, "值班", got.ResolvedBy)
	assert.Equal(t, "已重启", got.Metadata["resolution"])
	require.NotNil(t, got.ResolvedAt)
	assert.True(t, t0.Add(2*time.Minute).Equal(*got.ResolvedAt))

	active, err := h.app.GetActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	ok, err = h.app.ResolveAlert(ctx, alert.ID, "值班", "")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = h.app.AcknowledgeAlert(ctx, alert.ID, "值班")
	require.NoError(t, err)
	assert.False(t, ok)

	h.clock.Advance(time.Hour)
	got, err = h.app.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.EscalationLevel)
}

func TestTransitionsOnUnknownAlert(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})
	ctx := context.Background()

	ok, err := h.app.AcknowledgeAlert(ctx, "ALERT-0-deadbeef", "张三")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.app.ResolveAlert(ctx, "ALERT-0-deadbeef", "张三", "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.app.AcknowledgeAlert(ctx, "", "张三")
	assert.True(t, errorc.HasCode(err, errorc.ErrorCodeValid))
	_, err = h.app.ResolveAlert(ctx, "ALERT-0-deadbeef", "", "")
	assert.True(t, errorc.HasCode(err, errorc.ErrorCodeValid))

	_, err = h.app.GetAlert(ctx, "ALERT-0-deadbeef")
	assert.True(t, errorc.IsNotFound(err))
}

func TestCleanupResolvedAlerts(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})
	ctx := context.Background()

	old, err := h.app.SecurityBreach(ctx, "vpn", map[string]interface{}{"ip": "10.0.0.1"})
	require.NoError(t, err)
	open, err := h.app.CreateAlert(ctx, model.AlertInput{
		Type: "custom_check", Severity: model.SeverityLow, Title: "自定义检查", Message: "检查失败", Source: "cron",
	})
	require.NoError(t, err)
	_, err = h.app.ResolveAlert(ctx, old.ID, "安全组", "误报")
	require.NoError(t, err)

	h.clock.Advance(23 * time.Hour)
	recent, err := h.app.SecurityBreach(ctx, "vpn", nil)
	require.NoError(t, err)
	_, err = h.app.ResolveAlert(ctx, recent.ID, "安全组", "")
	require.NoError(t, err)

	h.clock.Advance(2 * time.Hour)
	n, err := h.app.CleanupResolvedAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = h.app.GetAlert(ctx, old.ID)
	assert.True(t, errorc.IsNotFound(err))

	history, err := h.app.GetAlertHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, recent.ID, history[0].ID)
	assert.Equal(t, open.ID, history[1].ID)

	n, err = h.app.CleanupResolvedAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUnresolvedAlertsAreNeverPurged(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})
	ctx := context.Background()

	alert, err := h.app.CreateAlert(ctx, model.AlertInput{
		Type: "custom_check", Severity: model.SeverityMedium, Title: "磁盘巡检", Message: "巡检失败", Source: "cron",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, alert.EscalationLevel)
	assert.Equal(t, 0, h.sender.count())

	h.clock.Advance(10 * 24 * time.Hour)
	n, err := h.app.CleanupResolvedAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := h.app.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.False(t, got.Resolved)
}

func TestDisabledRuleDoesNotEscalate(t *testing.T) {
	disabled := false
	h := newHarness(t, config.AlertConfig{Rules: []config.RuleConfig{{
		Type:     string(model.AlertTypeDatabaseError),
		Severity: string(model.SeverityCritical),
		Enabled:  &disabled,
		Escalation: []config.EscalationConfig{
			{Level: 1, Channels: []string{"email"}, Recipients: []string{"dba@example.com"}},
		},
	}}})

	alert, err := h.app.DatabaseError(context.Background(), "SELECT", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, alert.EscalationLevel)
	assert.Equal(t, 0, h.sender.count())
	assert.Equal(t, 0, h.clock.Pending())
}

func TestConfiguredRuleOverridesDefault(t *testing.T) {
	h := newHarness(t, config.AlertConfig{Rules: []config.RuleConfig{{
		Type:     string(model.AlertTypeDatabaseError),
		Severity: string(model.SeverityCritical),
		Escalation: []config.EscalationConfig{
			{Level: 1, Channels: []string{"email"}, Recipients: []string{"dba@example.com"}},
		},
	}}})

	alert, err := h.app.DatabaseError(context.Background(), "SELECT", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"email:dba@example.com:2026-04-01T08:00:00Z"}, alert.NotificationsSent)
}

func TestCreateAlertValidation(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})
	ctx := context.Background()

	_, err := h.app.CreateAlert(ctx, model.AlertInput{Type: model.AlertTypeSystemFailure, Severity: "fatal", Title: "x", Message: "y", Source: "z"})
	assert.True(t, errorc.HasCode(err, errorc.ErrorCodeValid))

	_, err = h.app.CreateAlert(ctx, model.AlertInput{Type: model.AlertTypeSystemFailure, Severity: model.SeverityHigh, Message: "y", Source: "z"})
	assert.True(t, errorc.HasCode(err, errorc.ErrorCodeValid))

	history, err := h.app.GetAlertHistory(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, 0, h.sender.count())
}

func TestFactorySeverities(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})
	ctx := context.Background()

	cases := []struct {
		name     string
		create   func() (*model.Alert, error)
		severity model.Severity
		source   string
	}{
		{"性能严重", func() (*model.Alert, error) { return h.app.PerformanceDegradation(ctx, "p99", 5000, 2000) }, model.SeverityCritical, "monitoring"},
		{"性能一般", func() (*model.Alert, error) { return h.app.PerformanceDegradation(ctx, "p99", 3000, 2000) }, model.SeverityHigh, "monitoring"},
		{"资源严重", func() (*model.Alert, error) { return h.app.ResourceExhaustion(ctx, "disk", 96, 100) }, model.SeverityCritical, "system_monitor"},
		{"资源一般", func() (*model.Alert, error) { return h.app.ResourceExhaustion(ctx, "disk", 95, 100) }, model.SeverityHigh, "system_monitor"},
		{"接口严重", func() (*model.Alert, error) { return h.app.APIErrorRate(ctx, "/orders", 25, 10) }, model.SeverityCritical, "api_monitor"},
		{"接口一般", func() (*model.Alert, error) { return h.app.APIErrorRate(ctx, "/orders", 15, 10) }, model.SeverityHigh, "api_monitor"},
		{"安全", func() (*model.Alert, error) { return h.app.SecurityBreach(ctx, "waf", nil) }, model.SeverityEmergency, "waf"},
		{"数据库", func() (*model.Alert, error) { return h.app.DatabaseError(ctx, "SELECT", nil) }, model.SeverityCritical, "database"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			alert, err := c.create()
			require.NoError(t, err)
			assert.Equal(t, c.severity, alert.Severity)
			assert.Equal(t, c.source, alert.Source)
		})
	}
}

func TestFactoryMetadata(t *testing.T) {
	h := newHarness(t, config.AlertConfig{})

	alert, err := h.app.PerformanceDegradation(context.Background(), "p99", 2500.5, 2000)
	require.NoError(t, err)
	assert.Equal(t, "p99 当前值 2500.5，超过阈值 2000", alert.Message)
	assert.Equal(t, 2500.5, alert.Metadata["value"])

	alert, err = h.app.DatabaseError(context.Background(), "DELETE", nil)
	require.NoError(t, err)
	assert.Equal(t, "数据库操作失败: DELETE - 未知错误", alert.Message)
	assert.Equal(t, "DELETE", alert.Metadata["operation"])
}

func TestRehydrateAfterRestart(t *testing.T) {
	c := clock.NewFake(t0)
	kv := dao.NewMemoryKV(c)
	ctx := context.Background()

	first := newHarnessOn(t, config.AlertConfig{}, c, kv)
	alert, err := first.app.DatabaseError(ctx, "SELECT", nil)
	require.NoError(t, err)
	first.app.Stop()

	second := newHarnessOn(t, config.AlertConfig{}, c, kv)
	ok, err := second.app.AcknowledgeAlert(ctx, alert.ID, "张三")
	require.NoError(t, err)
	assert.True(t, ok)

	third := newHarnessOn(t, config.AlertConfig{}, c, kv)
	require.NoError(t, third.app.Start(ctx))
	active, err := third.app.GetActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].Acknowledged)

	// 恢复的告警参与相似告警抑制，但不会继续升级
	suppressed, err := third.app.DatabaseError(ctx, "SELECT", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, suppressed.EscalationLevel)
	c.Advance(time.Hour)
	assert.Equal(t, 0, third.sender.count())
}

func TestStartRegistersCleanupTask(t *testing.T) {
	c := clock.NewFake(t0)
	sched := scheduler.NewScheduler(&scheduler.SchedulerConfig{NodeID: "test", MaxWorkers: 1, Clock: clock.NewFake(t0)})
	require.NoError(t, sched.Start())
	defer sched.Stop()

	a, err := NewApp(Options{Store: dao.NewMemoryKV(c), Sender: &recordingSender{}, Clock: c, Scheduler: sched})
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))

	tasks := sched.ListTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "alert_cleanup_resolved", tasks[0].GetName())
	assert.Equal(t, t0.Add(time.Hour), tasks[0].GetNextTime())

	a.Stop()
	a.Stop()
	assert.Empty(t, sched.ListTasks())
}

type failingKV struct{}

var errStoreDown = errors.New("存储不可用")

func (failingKV) Put(context.Context, string, []byte, time.Duration) error { return errStoreDown }
func (failingKV) Get(context.Context, string) ([]byte, error)              { return nil, errStoreDown }
func (failingKV) Delete(context.Context, string) error                     { return errStoreDown }
func (failingKV) AddToSet(context.Context, string, string) error           { return errStoreDown }
func (failingKV) RemoveFromSet(context.Context, string, string) error      { return errStoreDown }
func (failingKV) MembersOf(context.Context, string) ([]string, error)      { return nil, errStoreDown }
func (failingKV) KeysMatching(context.Context, string) ([]string, error)   { return nil, errStoreDown }

func TestStoreFailureIsNotFatal(t *testing.T) {
	c := clock.NewFake(t0)
	sender := &recordingSender{}
	a, err := NewApp(Options{Store: failingKV{}, Sender: sender, Clock: c})
	require.NoError(t, err)
	defer a.Stop()
	ctx := context.Background()

	require.NoError(t, a.Start(ctx))
	alert, err := a.DatabaseError(ctx, "SELECT", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, alert.EscalationLevel)
	assert.Equal(t, 4, sender.count())

	active, err := a.GetActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	ok, err := a.AcknowledgeAlert(ctx, alert.ID, "张三")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = a.GetAlertHistory(ctx, 10)
	assert.Error(t, err)
	_, err = a.CleanupResolvedAlerts(ctx)
	assert.Error(t, err)
}
