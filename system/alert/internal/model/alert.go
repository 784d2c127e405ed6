package model

import (
	"time"
)

// Severity 告警级别
type Severity string

const (
	SeverityLow       Severity = "low"
	SeverityMedium    Severity = "medium"
	SeverityHigh      Severity = "high"
	SeverityCritical  Severity = "critical"
	SeverityEmergency Severity = "emergency"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical, SeverityEmergency:
		return true
	}
	return false
}

// AlertType 告警类型，规则按类型匹配
type AlertType string

const (
	AlertTypeSystemFailure          AlertType = "system_failure"
	AlertTypeDatabaseError          AlertType = "database_error"
	AlertTypePerformanceDegradation AlertType = "performance_degradation"
	AlertTypeSecurityBreach         AlertType = "security_breach"
	AlertTypeResourceExhaustion     AlertType = "resource_exhaustion"
	AlertTypeAPIErrorRate           AlertType = "api_error_rate"
	AlertTypeServiceUnavailable     AlertType = "service_unavailable"
	AlertTypeDataCorruption         AlertType = "data_corruption"
)

// Alert 一次告警事件及其生命周期状态
type Alert struct {
	ID             string                 `json:"id"`
	Type           AlertType              `json:"type"`
	Severity       Severity               `json:"severity"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	Source         string                 `json:"source"`
	Timestamp      time.Time              `json:"timestamp"`
	Acknowledged   bool                   `json:"acknowledged"`
	AcknowledgedBy string                 `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt *time.Time             `json:"acknowledgedAt,omitempty"`
	Resolved       bool                   `json:"resolved"`
	ResolvedBy     string                 `json:"resolvedBy,omitempty"`
	ResolvedAt     *time.Time             `json:"resolvedAt,omitempty"`
	Metadata       map[string]interface{} `json:"metadata"`
	// EscalationLevel 0 表示尚未升级
	EscalationLevel int `json:"escalationLevel"`
	// NotificationsSent 只追加，格式 channel:recipient:RFC3339
	NotificationsSent []string `json:"notificationsSent"`
}

// Terminal 确认或解决后不再升级
func (a *Alert) Terminal() bool {
	return a.Acknowledged || a.Resolved
}

// Clone 深拷贝，元数据只复制第一层
func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}
	c := *a
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		c.AcknowledgedAt = &t
	}
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		c.ResolvedAt = &t
	}
	if a.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(a.Metadata))
		for k, v := range a.Metadata {
			c.Metadata[k] = v
		}
	}
	c.NotificationsSent = append([]string(nil), a.NotificationsSent...)
	return &c
}

// AlertInput 创建告警的输入
type AlertInput struct {
	Type     AlertType              `json:"type" validate:"required,max=64"`
	Severity Severity               `json:"severity" validate:"required,oneof=low medium high critical emergency"`
	Title    string                 `json:"title" validate:"required,max=200"`
	Message  string                 `json:"message" validate:"required"`
	Source   string                 `json:"source" validate:"required,max=128"`
	Metadata map[string]interface{} `json:"metadata"`
}
