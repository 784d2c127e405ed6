package service

import (
	"context"
	"time"

	"alerthub/pkg/clock"
	errorc "alerthub/pkg/core/err"
	"alerthub/pkg/core/logger"
	"alerthub/system/alert/internal/dao"
	"alerthub/system/alert/internal/model"
)

// AlertService 告警状态流转。内存中的告警是权威状态，写库失败只记录日志。
type AlertService struct {
	tracker   *Tracker
	escalator *Escalator
	dao       *dao.AlertDao
	clock     clock.Clock
	metrics   *Metrics
	log       *logger.Log
	err       *errorc.ErrorBuilder
}

func NewAlertService(tracker *Tracker, escalator *Escalator, d *dao.AlertDao, clk clock.Clock, metrics *Metrics, log *logger.Log) *AlertService {
	return &AlertService{
		tracker:   tracker,
		escalator: escalator,
		dao:       d,
		clock:     clk,
		metrics:   metrics,
		log:       log.WithEntryName("AlertService"),
		err:       errorc.NewErrorBuilder("AlertService"),
	}
}

// Create 记录并持久化新告警，然后启动升级，返回升级第一轮结束后的快照。
// 调用方的 ctx 只传递追踪信息，它被取消不会中断第一级通知。
func (s *AlertService) Create(ctx context.Context, alert *model.Alert) *model.Alert {
	ctx = context.WithoutCancel(ctx)
	tracked, _ := s.tracker.Track(alert)
	tracked.mu.Lock()
	s.persist(ctx, tracked.alert, "create")
	tracked.mu.Unlock()

	s.metrics.alertCreated(alert)
	s.metrics.SetActive(s.tracker.Len())

	s.escalator.Begin(ctx, tracked)
	return tracked.Snapshot()
}

// Transition 确认或解决的结果，Changed 为 false 时其余字段为空
type Transition struct {
	Changed bool
	Alert   *model.Alert
}

// Acknowledge 已确认、已解决或不存在的告警返回 Changed=false
func (s *AlertService) Acknowledge(ctx context.Context, id, by string) (Transition, error) {
	tracked, err := s.lookup(ctx, id)
	if err != nil || tracked == nil {
		return Transition{}, err
	}

	tracked.mu.Lock()
	defer tracked.mu.Unlock()
	if tracked.alert.Acknowledged || tracked.alert.Resolved {
		return Transition{}, nil
	}

	s.escalator.Cancel(id)
	tracked.halted.Store(true)

	now := s.clock.Now()
	tracked.alert.Acknowledged = true
	tracked.alert.AcknowledgedBy = by
	tracked.alert.AcknowledgedAt = &now
	s.persist(ctx, tracked.alert, "acknowledge")

	s.log.WithAlert(id).WithField("by", by).Info("告警已确认")
	return Transition{Changed: true, Alert: tracked.alert.Clone()}, nil
}

// Resolve 已解决或不存在的告警返回 Changed=false，reason 写入 metadata.resolution
func (s *AlertService) Resolve(ctx context.Context, id, by, reason string) (Transition, error) {
	tracked, err := s.lookup(ctx, id)
	if err != nil || tracked == nil {
		return Transition{}, err
	}

	tracked.mu.Lock()
	if tracked.alert.Resolved {
		tracked.mu.Unlock()
		return Transition{}, nil
	}

	s.escalator.Cancel(id)
	tracked.halted.Store(true)

	now := s.clock.Now()
	tracked.alert.Resolved = true
	tracked.alert.ResolvedBy = by
	tracked.alert.ResolvedAt = &now
	if reason != "" {
		if tracked.alert.Metadata == nil {
			tracked.alert.Metadata = make(map[string]interface{})
		}
		tracked.alert.Metadata["resolution"] = reason
	}
	s.persist(ctx, tracked.alert, "resolve")
	snapshot := tracked.alert.Clone()
	tracked.mu.Unlock()

	s.tracker.Retire(id, now)
	s.metrics.SetActive(s.tracker.Len())

	s.log.WithAlert(id).WithField("by", by).Info("告警已解决")
	return Transition{Changed: true, Alert: snapshot}, nil
}

// lookup 内存中没有时从存储加载（例如进程重启后），已解决的记录不再放回内存
func (s *AlertService) lookup(ctx context.Context, id string) (*TrackedAlert, error) {
	if tracked := s.tracker.Get(id); tracked != nil {
		return tracked, nil
	}
	stored, err := s.dao.Get(ctx, id)
	if err != nil {
		if errorc.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if stored.Resolved {
		return nil, nil
	}
	if resolvedAt, ok := s.tracker.RetiredAt(id); ok {
		// 解决时写库失败，存储中仍是未解决的旧记录
		s.log.WithAlert(id).WithField("resolved_at", resolvedAt).Warn("存储中的告警未解决，但本进程已解决该告警，忽略存储记录")
		return nil, nil
	}
	tracked, added := s.tracker.Track(stored)
	if added {
		s.log.WithAlert(id).Info("从存储恢复告警")
		s.metrics.SetActive(s.tracker.Len())
	}
	return tracked, nil
}

// Get 优先返回内存中的状态
func (s *AlertService) Get(ctx context.Context, id string) (*model.Alert, error) {
	if tracked := s.tracker.Get(id); tracked != nil {
		return tracked.Snapshot(), nil
	}
	return s.dao.Get(ctx, id)
}

// ListActive 以存储中的活跃索引为准并用内存状态覆盖，存储不可用时退回内存
func (s *AlertService) ListActive(ctx context.Context) ([]*model.Alert, error) {
	stored, err := s.dao.ListActive(ctx)
	if err != nil {
		s.log.WithOp("list_active").WithErr(err).Error("读取活跃告警失败，使用内存数据")
		alerts := s.tracker.Snapshots()
		dao.SortNewestFirst(alerts)
		return alerts, nil
	}

	seen := make(map[string]struct{}, len(stored))
	out := make([]*model.Alert, 0, len(stored))
	for _, a := range stored {
		seen[a.ID] = struct{}{}
		if tracked := s.tracker.Get(a.ID); tracked != nil {
			out = append(out, tracked.Snapshot())
			continue
		}
		out = append(out, a)
	}
	for _, a := range s.tracker.Snapshots() {
		if _, ok := seen[a.ID]; !ok {
			out = append(out, a)
		}
	}
	dao.SortNewestFirst(out)
	return out, nil
}

// History 按创建时间倒序
func (s *AlertService) History(ctx context.Context, limit int) ([]*model.Alert, error) {
	alerts, err := s.dao.ListAll(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i, a := range alerts {
		if tracked := s.tracker.Get(a.ID); tracked != nil {
			alerts[i] = tracked.Snapshot()
		}
	}
	return alerts, nil
}

// Restore 启动时把存储中未解决的告警放回内存，用于抑制判断和确认/解决，不会恢复升级
func (s *AlertService) Restore(ctx context.Context) (int, error) {
	stored, err := s.dao.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, a := range stored {
		if _, added := s.tracker.Track(a); added {
			restored++
		}
	}
	s.metrics.SetActive(s.tracker.Len())
	return restored, nil
}

// Cleanup 删除解决时间早于 retention 的记录，未解决的告警永不清理
func (s *AlertService) Cleanup(ctx context.Context, retention time.Duration) ([]*model.Alert, error) {
	cutoff := s.clock.Now().Add(-retention)
	s.tracker.PruneRetired(cutoff)

	alerts, err := s.dao.ListAllUnbounded(ctx)
	if err != nil {
		return nil, err
	}

	var purged []*model.Alert
	for _, a := range alerts {
		if !a.Resolved || a.ResolvedAt == nil || !a.ResolvedAt.Before(cutoff) {
			continue
		}
		if err := s.dao.Delete(ctx, a.ID); err != nil {
			s.log.WithAlert(a.ID).WithOp("cleanup").WithErr(err).Error("删除过期告警失败")
			continue
		}
		purged = append(purged, a)
	}
	s.metrics.Purged(len(purged))
	return purged, nil
}

// persist 调用方需持有告警锁
func (s *AlertService) persist(ctx context.Context, alert *model.Alert, op string) {
	if err := s.dao.Put(ctx, alert); err != nil {
		s.log.WithAlert(alert.ID).WithOp(op).WithErr(err).Error("保存告警失败")
	}
}

// Tracker 供 App 统计与测试使用
func (s *AlertService) Tracker() *Tracker {
	return s.tracker
}
