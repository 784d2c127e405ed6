package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"alerthub/pkg/clock"
	"alerthub/pkg/core/config"
	"alerthub/pkg/core/consts"
	errorc "alerthub/pkg/core/err"
	"alerthub/pkg/core/logger"
	"alerthub/pkg/scheduler"
	"alerthub/system/alert/internal/dao"
	"alerthub/system/alert/internal/model"
	"alerthub/system/alert/internal/service"
	"alerthub/utils"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const cleanupTaskName = "alert_cleanup_resolved"

// Options 外部依赖，Store 与 Sender 必填
type Options struct {
	Config config.AlertConfig
	Store  dao.KVStore
	Sender service.Sender
	Clock  clock.Clock
	// Registerer 为空时指标不注册
	Registerer  prometheus.Registerer
	Publisher   service.EventPublisher
	Maintenance service.MaintenanceSchedule
	// Scheduler 为空时不自动清理
	Scheduler *scheduler.Scheduler
}

// App 告警组件应用层
type App struct {
	cfg         config.AlertConfig
	clock       clock.Clock
	registry    *service.RuleRegistry
	alerts      *service.AlertService
	escalator   *service.Escalator
	notices     *service.NoticeService
	events      *service.EventEmitter
	outbox      *service.Outbox
	metrics     *service.Metrics
	maintenance service.MaintenanceSchedule
	scheduler   *scheduler.Scheduler

	ctx    context.Context
	cancel context.CancelFunc

	lifecycleMu sync.Mutex
	cleanupTask scheduler.Task
	stopped     bool

	log *logger.Log
	err *errorc.ErrorBuilder
}

// NewApp 创建告警组件应用层实例
func NewApp(opts Options) (*App, error) {
	log := logger.GetLogger().WithEntryName("AlertApp")
	e := errorc.NewErrorBuilder("AlertApp")

	if opts.Store == nil || opts.Sender == nil {
		return nil, e.New("告警存储和通知发送器不能为空", nil).Valid()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Maintenance == nil {
		opts.Maintenance = service.NoMaintenance{}
	}
	cfg := opts.Config.WithDefaults()

	registry := service.NewRuleRegistry(log)
	if err := service.SeedRules(registry, cfg.Rules); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	metrics := service.NewMetrics(opts.Registerer)
	outbox := service.NewOutbox(cfg.OutboxSize, cfg.SendTimeout*2, log)
	events := service.NewEventEmitter(outbox, opts.Publisher, opts.Clock)
	tracker := service.NewTracker()
	alertDao := dao.NewAlertDao(opts.Store, cfg.KeyPrefix, cfg.RecordTTL, log)

	escalator := service.NewEscalator(service.EscalatorConfig{
		Ctx:         ctx,
		Registry:    registry,
		Suppression: service.NewSuppressionEvaluator(tracker, opts.Maintenance, opts.Clock, log),
		Timers:      service.NewTimerRegistry(opts.Clock),
		Dispatcher:  service.NewDispatcher(opts.Sender, opts.Clock, metrics, log),
		Dao:         alertDao,
		Events:      events,
		Metrics:     metrics,
	}, log)

	return &App{
		cfg:         cfg,
		clock:       opts.Clock,
		registry:    registry,
		alerts:      service.NewAlertService(tracker, escalator, alertDao, opts.Clock, metrics, log),
		escalator:   escalator,
		notices:     service.NewNoticeService(opts.Sender, cfg.LifecycleChannels, opts.Clock, log),
		events:      events,
		outbox:      outbox,
		metrics:     metrics,
		maintenance: opts.Maintenance,
		scheduler:   opts.Scheduler,
		ctx:         ctx,
		cancel:      cancel,
		log:         log,
		err:         e,
	}, nil
}

// Start 恢复未解决的告警，启动发件箱并注册定时清理任务
func (a *App) Start(ctx context.Context) error {
	a.lifecycleMu.Lock()
	defer a.lifecycleMu.Unlock()

	restored, err := a.alerts.Restore(ctx)
	if err != nil {
		a.log.WithErr(err).Error("恢复未解决告警失败")
	} else if restored > 0 {
		a.log.WithField("count", restored).Info("已恢复未解决告警，升级不会继续")
	}

	a.outbox.Start()

	if a.scheduler != nil && a.cleanupTask == nil {
		task, err := scheduler.NewCronTask(cleanupTaskName, a.cfg.CleanupCron, scheduler.TaskExecuteModeDistributed, 10*time.Minute,
			func(ctx context.Context) error {
				_, err := a.CleanupResolvedAlerts(ctx)
				return err
			})
		if err != nil {
			return a.err.New("创建告警清理任务失败", err).Valid()
		}
		if err := a.scheduler.AddTask(task); err != nil {
			return a.err.New("注册告警清理任务失败", err)
		}
		a.cleanupTask = task
		a.log.WithField("cron", a.cfg.CleanupCron).Info("告警清理任务已注册")
	}
	return nil
}

// Stop 取消全部待触发的升级并等待发件箱清空
func (a *App) Stop() {
	a.lifecycleMu.Lock()
	defer a.lifecycleMu.Unlock()
	if a.stopped {
		return
	}
	a.stopped = true

	if a.scheduler != nil && a.cleanupTask != nil {
		a.cleanupTask.SetStatus(scheduler.TaskStatusCanceled)
		a.scheduler.RemoveTask(a.cleanupTask.GetID())
	}
	a.cancel()
	cancelled := a.escalator.CancelAll()
	a.outbox.Stop()
	a.log.WithField("cancelled_timers", cancelled).Info("告警组件已停止")
}

// CreateAlert 校验输入后创建告警，并同步执行第一轮升级
func (a *App) CreateAlert(ctx context.Context, input model.AlertInput) (*model.Alert, error) {
	if errMsg, err := utils.Validate(&input); err != nil {
		return nil, a.err.New(errMsg, err).Valid()
	}

	now := a.clock.Now()
	alert := &model.Alert{
		ID:                newAlertID(now),
		Type:              input.Type,
		Severity:          input.Severity,
		Title:             input.Title,
		Message:           input.Message,
		Source:            input.Source,
		Timestamp:         now,
		Metadata:          copyMetadata(input.Metadata),
		NotificationsSent: []string{},
	}

	a.log.WithAlert(alert.ID).
		WithField("type", alert.Type).
		WithField("severity", alert.Severity).
		WithField("source", alert.Source).
		Warn("🚨 创建告警: " + alert.Title)
	a.events.Emit(consts.EventAlertCreated, alert.Clone(), "")

	return a.alerts.Create(ctx, alert), nil
}

// AcknowledgeAlert 返回 false 表示告警不存在或已确认/已解决
func (a *App) AcknowledgeAlert(ctx context.Context, id, by string) (bool, error) {
	if id == "" || by == "" {
		return false, a.err.New("告警ID和确认人不能为空", nil).Valid()
	}
	t, err := a.alerts.Acknowledge(ctx, id, by)
	if err != nil || !t.Changed {
		return false, err
	}
	a.afterTransition(t.Alert, service.NoticeAcknowledged, consts.EventAlertAcknowledged, by, "")
	return true, nil
}

// ResolveAlert 返回 false 表示告警不存在或已解决
func (a *App) ResolveAlert(ctx context.Context, id, by, reason string) (bool, error) {
	if id == "" || by == "" {
		return false, a.err.New("告警ID和处理人不能为空", nil).Valid()
	}
	t, err := a.alerts.Resolve(ctx, id, by, reason)
	if err != nil || !t.Changed {
		return false, err
	}
	a.afterTransition(t.Alert, service.NoticeResolved, consts.EventAlertResolved, by, reason)
	return true, nil
}

func (a *App) afterTransition(alert *model.Alert, kind service.NoticeKind, event, by, reason string) {
	rule := a.registry.FindByType(alert.Type)
	a.outbox.Enqueue(service.Job{
		Name:    string(kind),
		AlertID: alert.ID,
		Run: func(ctx context.Context) error {
			return a.notices.Notify(ctx, alert, rule, kind, by, reason)
		},
	})
	a.events.Emit(event, alert, by)
}

func (a *App) GetActiveAlerts(ctx context.Context) ([]*model.Alert, error) {
	return a.alerts.ListActive(ctx)
}

// GetAlertHistory limit <= 0 时默认 100
func (a *App) GetAlertHistory(ctx context.Context, limit int) ([]*model.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	return a.alerts.History(ctx, limit)
}

func (a *App) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	return a.alerts.Get(ctx, id)
}

func (a *App) ListRules() []*model.AlertRule {
	return a.registry.Rules()
}

// RegisterRule 运行期追加规则，同类型已有规则时不生效
func (a *App) RegisterRule(rule *model.AlertRule) error {
	return a.registry.Register(rule)
}

// CleanupResolvedAlerts 清理超过保留期的已解决告警
func (a *App) CleanupResolvedAlerts(ctx context.Context) (int, error) {
	purged, err := a.alerts.Cleanup(ctx, a.cfg.Retention)
	if err != nil {
		return 0, a.err.New("清理已解决告警失败", err).ToLog(a.log.GetLogger())
	}
	for _, alert := range purged {
		a.events.Emit(consts.EventAlertPurged, alert, "")
	}
	if len(purged) > 0 {
		a.log.WithField("count", len(purged)).Info("已清理过期告警")
	}
	return len(purged), nil
}

// Maintenance 返回维护计划，未启用数据库时为 NoMaintenance
func (a *App) Maintenance() service.MaintenanceSchedule {
	return a.maintenance
}

func newAlertID(now time.Time) string {
	return fmt.Sprintf("ALERT-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

func copyMetadata(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
