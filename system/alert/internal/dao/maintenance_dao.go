package dao

import (
	"context"
	"time"

	errorc "alerthub/pkg/core/err"
	"alerthub/pkg/core/logger"
	"alerthub/system/alert/internal/model"

	"gorm.io/gorm"
)

// MaintenanceDao 维护窗口数据访问层
type MaintenanceDao struct {
	log *logger.Log
	err *errorc.ErrorBuilder
	DB  *gorm.DB
}

func NewMaintenanceDao(db *gorm.DB, log *logger.Log) *MaintenanceDao {
	return &MaintenanceDao{
		log: log.WithEntryName("MaintenanceDao"),
		err: errorc.NewErrorBuilder("MaintenanceDao"),
		DB:  db,
	}
}

func (d *MaintenanceDao) Create(ctx context.Context, w *model.MaintenanceWindow) error {
	if err := d.DB.WithContext(ctx).Create(w).Error; err != nil {
		return d.err.New("创建维护窗口失败", err).DB()
	}
	return nil
}

func (d *MaintenanceDao) Delete(ctx context.Context, id int64) error {
	tx := d.DB.WithContext(ctx).Delete(&model.MaintenanceWindow{}, id)
	if tx.Error != nil {
		return d.err.New("删除维护窗口失败", tx.Error).DB()
	}
	if tx.RowsAffected == 0 {
		return d.err.New("维护窗口不存在", gorm.ErrRecordNotFound).NotFound()
	}
	return nil
}

// ListActiveAt 查询在指定时刻生效的窗口
func (d *MaintenanceDao) ListActiveAt(ctx context.Context, at time.Time) ([]*model.MaintenanceWindow, error) {
	var results []*model.MaintenanceWindow
	err := d.DB.WithContext(ctx).
		Where("start_time <= ? AND end_time > ?", at, at).
		Order("start_time").
		Find(&results).Error
	if err != nil {
		return nil, d.err.New("查询维护窗口失败", err).DB()
	}
	return results, nil
}

// ListUpcoming 查询尚未结束的窗口
func (d *MaintenanceDao) ListUpcoming(ctx context.Context, from time.Time) ([]*model.MaintenanceWindow, error) {
	var results []*model.MaintenanceWindow
	err := d.DB.WithContext(ctx).
		Where("end_time > ?", from).
		Order("start_time").
		Find(&results).Error
	if err != nil {
		return nil, d.err.New("查询维护窗口列表失败", err).DB()
	}
	return results, nil
}
