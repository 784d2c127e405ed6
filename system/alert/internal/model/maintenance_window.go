package model

import (
	"time"

	"alerthub/pkg/core/model/common"
)

// MaintenanceWindow 维护窗口，窗口内的告警不升级
type MaintenanceWindow struct {
	common.Model
	Name      string    `gorm:"type:varchar(128);not null;comment:名称" json:"name" comment:"名称"`
	StartTime time.Time `gorm:"not null;index;comment:开始时间" json:"startTime" comment:"开始时间"`
	EndTime   time.Time `gorm:"not null;index;comment:结束时间" json:"endTime" comment:"结束时间"`
	// AlertType、Source 为空表示不限
	AlertType string `gorm:"type:varchar(64);not null;default:'';comment:告警类型" json:"alertType" comment:"告警类型"`
	Source    string `gorm:"type:varchar(128);not null;default:'';comment:告警来源" json:"source" comment:"告警来源"`
	Comment   string `gorm:"type:varchar(500);comment:备注" json:"comment" comment:"备注"`
}

func (MaintenanceWindow) TableName() string {
	return "alert_maintenance_windows"
}

// Covers 判断窗口是否覆盖该告警
func (w *MaintenanceWindow) Covers(at time.Time, alertType AlertType, source string) bool {
	if at.Before(w.StartTime) || !at.Before(w.EndTime) {
		return false
	}
	if w.AlertType != "" && w.AlertType != string(alertType) {
		return false
	}
	if w.Source != "" && w.Source != source {
		return false
	}
	return true
}
