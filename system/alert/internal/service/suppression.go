package service

import (
	"context"
	"time"

	"alerthub/pkg/clock"
	"alerthub/pkg/core/logger"
	"alerthub/system/alert/internal/model"
)

// SuppressionEvaluator 判断新告警是否应被抑制，被抑制的告警照常保存但不升级
type SuppressionEvaluator struct {
	tracker     *Tracker
	maintenance MaintenanceSchedule
	clock       clock.Clock
	log         *logger.Log
}

func NewSuppressionEvaluator(tracker *Tracker, maintenance MaintenanceSchedule, clk clock.Clock, log *logger.Log) *SuppressionEvaluator {
	if maintenance == nil {
		maintenance = NoMaintenance{}
	}
	return &SuppressionEvaluator{
		tracker:     tracker,
		maintenance: maintenance,
		clock:       clk,
		log:         log.WithEntryName("SuppressionEvaluator"),
	}
}

// ShouldSuppress 任一抑制规则命中即返回 true，同时返回命中的条件
func (s *SuppressionEvaluator) ShouldSuppress(ctx context.Context, alert *model.Alert, rule *model.AlertRule) (bool, model.SuppressionCondition) {
	if rule == nil {
		return false, ""
	}
	for _, sr := range rule.Suppression {
		if s.evaluate(ctx, alert, sr) {
			return true, sr.Condition
		}
	}
	return false, ""
}

func (s *SuppressionEvaluator) evaluate(ctx context.Context, alert *model.Alert, sr model.SuppressionRule) bool {
	switch sr.Condition {
	case model.ConditionSimilarAlertExists:
		since := s.clock.Now().Add(-time.Duration(sr.Duration) * time.Minute)
		return s.tracker.HasSimilar(alert.Type, alert.Source, since, alert.ID)
	case model.ConditionMaintenanceWindow:
		inWindow, err := s.maintenance.InWindow(ctx, alert)
		if err != nil {
			// 查询失败按不在维护窗口处理
			s.log.WithAlert(alert.ID).WithOp("maintenance_window").WithErr(err).Error("查询维护窗口失败")
			return false
		}
		return inWindow
	default:
		s.log.WithAlert(alert.ID).WithField("condition", sr.Condition).Warn("未知的抑制条件，忽略")
		return false
	}
}
