package service

import (
	"context"
	"fmt"
	"time"

	"alerthub/pkg/clock"
	errorc "alerthub/pkg/core/err"
	"alerthub/pkg/core/logger"
	"alerthub/system/alert/internal/dao"
	"alerthub/system/alert/internal/model"

	"github.com/go-redis/cache/v9"
)

// MaintenanceSchedule 维护计划，判断某告警此刻是否处于维护窗口
type MaintenanceSchedule interface {
	InWindow(ctx context.Context, alert *model.Alert) (bool, error)
}

// NoMaintenance 没有维护计划
type NoMaintenance struct{}

func (NoMaintenance) InWindow(context.Context, *model.Alert) (bool, error) {
	return false, nil
}

// DBMaintenanceSchedule 从数据库读取生效的窗口，结果按 类型+来源 缓存一小段时间
type DBMaintenanceSchedule struct {
	dao   *dao.MaintenanceDao
	cache *cache.Cache
	ttl   time.Duration
	clock clock.Clock
	log   *logger.Log
	err   *errorc.ErrorBuilder
}

// NewDBMaintenanceSchedule cache 为空时每次直接查库
func NewDBMaintenanceSchedule(d *dao.MaintenanceDao, c *cache.Cache, ttl time.Duration, clk clock.Clock, log *logger.Log) *DBMaintenanceSchedule {
	if clk == nil {
		clk = clock.Real()
	}
	return &DBMaintenanceSchedule{
		dao:   d,
		cache: c,
		ttl:   ttl,
		clock: clk,
		log:   log.WithEntryName("MaintenanceSchedule"),
		err:   errorc.NewErrorBuilder("MaintenanceSchedule"),
	}
}

func (s *DBMaintenanceSchedule) InWindow(ctx context.Context, alert *model.Alert) (bool, error) {
	if s.cache == nil {
		return s.query(ctx, alert)
	}

	var inWindow bool
	key := fmt.Sprintf("alert:maintenance:%s:%s", alert.Type, alert.Source)
	err := s.cache.Once(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: &inWindow,
		TTL:   s.ttl,
		Do: func(item *cache.Item) (interface{}, error) {
			return s.query(item.Context(), alert)
		},
	})
	if err != nil {
		return false, s.err.New("读取维护窗口缓存失败", err)
	}
	return inWindow, nil
}

func (s *DBMaintenanceSchedule) query(ctx context.Context, alert *model.Alert) (bool, error) {
	windows, err := s.dao.ListActiveAt(ctx, s.clock.Now())
	if err != nil {
		return false, err
	}
	now := s.clock.Now()
	for _, w := range windows {
		if w.Covers(now, alert.Type, alert.Source) {
			s.log.WithAlert(alert.ID).WithField("window", w.Name).Info("告警处于维护窗口内")
			return true, nil
		}
	}
	return false, nil
}

// CreateWindow 新建维护窗口，已缓存的判定结果会在 ttl 后失效
func (s *DBMaintenanceSchedule) CreateWindow(ctx context.Context, w *model.MaintenanceWindow) error {
	if !w.EndTime.After(w.StartTime) {
		return s.err.New("结束时间必须晚于开始时间", nil).Valid()
	}
	return s.dao.Create(ctx, w)
}

func (s *DBMaintenanceSchedule) DeleteWindow(ctx context.Context, id int64) error {
	return s.dao.Delete(ctx, id)
}

func (s *DBMaintenanceSchedule) ListWindows(ctx context.Context) ([]*model.MaintenanceWindow, error) {
	return s.dao.ListUpcoming(ctx, s.clock.Now())
}
