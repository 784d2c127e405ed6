package alert

import (
	"context"

	"alerthub/base"
	"alerthub/pkg/clock"
	"alerthub/pkg/core/logger"
	"alerthub/pkg/notifier"
	"alerthub/system/alert/api/client"
	internalapp "alerthub/system/alert/internal/app"
	"alerthub/system/alert/internal/dao"
	"alerthub/system/alert/internal/service"

	"github.com/prometheus/client_golang/prometheus"
)

// Module 告警组件模块
type Module struct {
	internalApp *internalapp.App
	Client      *client.AlertClient
}

// NewModule 使用全局基础设施创建告警组件：
// 有 redis 时持久化到 redis，否则只保存在进程内；有数据库时启用维护窗口；启用 rocketmq 时发布生命周期事件。
func NewModule() *Module {
	log := logger.GetLogger().WithEntryName("AlertModule")
	cfg := base.Configures.Config.Alert.WithDefaults()
	clk := clock.Real()

	notifiers := base.Notifiers
	if notifiers == nil {
		log.Warn("未配置通知器，升级通知不会发出")
		notifiers = notifier.NewManager(notifier.ManagerConfig{SendTimeout: cfg.SendTimeout})
	}

	opts := internalapp.Options{
		Config:    cfg,
		Sender:    notifiers,
		Clock:     clk,
		Scheduler: base.Scheduler,
	}
	if base.Metrics != nil {
		opts.Registerer = base.Metrics
	} else {
		opts.Registerer = prometheus.DefaultRegisterer
	}

	if base.RDB != nil {
		opts.Store = dao.NewRedisKV(base.RDB)
	} else {
		log.Warn("未启用 redis，告警只保存在进程内存中")
		opts.Store = dao.NewMemoryKV(clk)
	}

	if base.DB != nil {
		opts.Maintenance = service.NewDBMaintenanceSchedule(
			dao.NewMaintenanceDao(base.DB, log), base.Cache, cfg.MaintenanceCacheTTL, clk, log)
	}

	if base.MQ != nil {
		opts.Publisher = service.NewRocketMQPublisher(base.MQ, base.Configures.Config.RocketMQ.Topic, log)
	}

	app, err := internalapp.NewApp(opts)
	if err != nil {
		log.WithErr(err).Panic("创建告警组件失败")
	}

	return &Module{
		internalApp: app,
		Client:      client.NewAlertClient(app),
	}
}

// Start 恢复未解决的告警并注册定时清理任务
func (m *Module) Start(ctx context.Context) error {
	return m.internalApp.Start(ctx)
}

// Stop 取消所有待触发的升级并等待通知发完
func (m *Module) Stop() {
	m.internalApp.Stop()
}
