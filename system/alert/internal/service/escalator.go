package service

import (
	"context"

	"alerthub/pkg/core/consts"
	"alerthub/pkg/core/logger"
	"alerthub/system/alert/internal/dao"
	"alerthub/system/alert/internal/model"
)

// Escalator 按规则逐级升级告警。同一告警的级别严格顺序执行：
// 本级通知发送完毕并决定是否调度下一级之后，下一级才可能触发。
type Escalator struct {
	ctx         context.Context
	registry    *RuleRegistry
	suppression *SuppressionEvaluator
	timers      *TimerRegistry
	dispatcher  *Dispatcher
	dao         *dao.AlertDao
	events      *EventEmitter
	metrics     *Metrics
	log         *logger.Log
}

type EscalatorConfig struct {
	// Ctx 定时器触发的升级使用，取消后不再发送
	Ctx         context.Context
	Registry    *RuleRegistry
	Suppression *SuppressionEvaluator
	Timers      *TimerRegistry
	Dispatcher  *Dispatcher
	Dao         *dao.AlertDao
	Events      *EventEmitter
	Metrics     *Metrics
}

func NewEscalator(cfg EscalatorConfig, log *logger.Log) *Escalator {
	if cfg.Ctx == nil {
		cfg.Ctx = context.Background()
	}
	return &Escalator{
		ctx:         cfg.Ctx,
		registry:    cfg.Registry,
		suppression: cfg.Suppression,
		timers:      cfg.Timers,
		dispatcher:  cfg.Dispatcher,
		dao:         cfg.Dao,
		events:      cfg.Events,
		metrics:     cfg.Metrics,
		log:         log.WithEntryName("Escalator"),
	}
}

// Begin 新告警入口：抑制判断、规则匹配，然后从第一级开始升级
func (e *Escalator) Begin(ctx context.Context, tracked *TrackedAlert) {
	alert := tracked.Snapshot()
	log := e.log.WithAlert(alert.ID).WithField("type", alert.Type)

	rule := e.registry.FindByType(alert.Type)
	if suppressed, cond := e.suppression.ShouldSuppress(ctx, alert, rule); suppressed {
		log.WithField("condition", cond).Info("告警被抑制，不升级")
		e.metrics.alertSuppressed(alert.Type)
		return
	}
	if rule == nil {
		log.Warn("没有匹配的告警规则，不升级")
		return
	}
	if !rule.Enabled {
		log.Info("告警规则已禁用，不升级")
		return
	}
	e.run(ctx, tracked, rule, 1)
}

// Cancel 取消待触发的下一级升级
func (e *Escalator) Cancel(id string) bool {
	cancelled := e.timers.Cancel(id)
	if cancelled {
		e.metrics.setPendingTimers(e.timers.Len())
	}
	return cancelled
}

// CancelAll 停机时调用
func (e *Escalator) CancelAll() int {
	n := e.timers.CancelAll()
	e.metrics.setPendingTimers(0)
	return n
}

func (e *Escalator) fire(tracked *TrackedAlert, rule *model.AlertRule, level int, token uint64) {
	if !e.timers.Release(tracked.ID(), token) {
		return
	}
	e.metrics.setPendingTimers(e.timers.Len())
	if e.ctx.Err() != nil {
		return
	}
	e.run(e.ctx, tracked, rule, level)
}

func (e *Escalator) run(ctx context.Context, tracked *TrackedAlert, rule *model.AlertRule, level int) {
	log := e.log.WithAlert(tracked.ID())
	for {
		tracked.mu.Lock()
		d := Decide(tracked.alert, rule, level)
		if !d.Escalate {
			tracked.mu.Unlock()
			log.WithField("level", level).WithField("reason", d.Reason).Info("停止升级")
			return
		}
		tracked.alert.EscalationLevel = level
		e.persist(ctx, tracked.alert, "escalate")
		snapshot := tracked.alert.Clone()
		tracked.mu.Unlock()

		log.WithField("level", level).Info("告警升级")
		e.metrics.escalated(snapshot.Type, level)

		var attempts []Attempt
		msg, err := RenderEscalation(snapshot, level)
		if err != nil {
			log.WithErr(err).Error("生成升级通知内容失败")
		} else {
			attempts = e.dispatcher.Dispatch(ctx, snapshot, d.Step, msg, tracked.Halted)
		}

		tracked.mu.Lock()
		for _, a := range attempts {
			tracked.alert.NotificationsSent = append(tracked.alert.NotificationsSent, a.Record())
		}
		if len(attempts) > 0 {
			e.persist(ctx, tracked.alert, "record_notifications")
		}
		snapshot = tracked.alert.Clone()

		switch {
		case tracked.alert.Terminal():
			tracked.mu.Unlock()
			e.events.Emit(consts.EventAlertEscalated, snapshot, "")
			return
		case !d.HasNext:
			tracked.mu.Unlock()
			e.events.Emit(consts.EventAlertEscalated, snapshot, "")
			log.WithField("level", level).Info("已达到最高升级级别")
			return
		case d.Delay() == 0:
			tracked.mu.Unlock()
			e.events.Emit(consts.EventAlertEscalated, snapshot, "")
			level++
			continue
		}

		next := level + 1
		e.timers.Schedule(tracked.ID(), d.Delay(), func(token uint64) {
			e.fire(tracked, rule, next, token)
		})
		tracked.mu.Unlock()

		e.metrics.setPendingTimers(e.timers.Len())
		e.events.Emit(consts.EventAlertEscalated, snapshot, "")
		log.WithField("next_level", next).WithField("delay", d.Delay().String()).Info("已调度下一级升级")
		return
	}
}

// persist 调用方需持有告警锁，失败只记录日志
func (e *Escalator) persist(ctx context.Context, alert *model.Alert, op string) {
	if err := e.dao.Put(ctx, alert); err != nil {
		e.log.WithAlert(alert.ID).WithOp(op).WithErr(err).Error("保存告警失败")
	}
}
