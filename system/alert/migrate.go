package alert

import (
	"alerthub/pkg/core/logger"
	"alerthub/system/alert/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate 自动执行告警组件的数据库迁移
func AutoMigrate(db *gorm.DB, log *logger.Log) error {
	log.Info("开始迁移告警组件表...")

	if err := db.AutoMigrate(&model.MaintenanceWindow{}); err != nil {
		log.WithErr(err).Error("告警组件表迁移失败")
		return err
	}

	log.Info("告警组件表迁移完成")
	return nil
}
