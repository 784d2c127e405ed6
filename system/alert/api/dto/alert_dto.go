package dto

import (
	"time"

	"alerthub/pkg/core/model/common"
)

// CreateAlertReq 创建告警请求
type CreateAlertReq struct {
	Type     string                 `json:"type" validate:"required,max=64" comment:"告警类型"`
	Severity string                 `json:"severity" validate:"required,oneof=low medium high critical emergency" comment:"严重级别"`
	Title    string                 `json:"title" validate:"required,max=200" comment:"标题"`
	Message  string                 `json:"message" validate:"required" comment:"内容"`
	Source   string                 `json:"source" validate:"required,max=128" comment:"来源"`
	Metadata map[string]interface{} `json:"metadata" comment:"附加信息"`
}

type AcknowledgeReq struct {
	By string `json:"by" validate:"required,max=64" comment:"确认人"`
}

type ResolveReq struct {
	By     string `json:"by" validate:"required,max=64" comment:"处理人"`
	Reason string `json:"reason" validate:"max=500" comment:"处理说明"`
}

// TransitionResp 确认、解决的返回，changed 为 false 表示告警不存在或状态未变化
type TransitionResp struct {
	Changed bool `json:"changed"`
}

// AlertDTO 告警
type AlertDTO struct {
	ID                string                 `json:"id" comment:"告警ID"`
	Type              string                 `json:"type" comment:"告警类型"`
	Severity          string                 `json:"severity" comment:"严重级别"`
	Title             string                 `json:"title" comment:"标题"`
	Message           string                 `json:"message" comment:"内容"`
	Source            string                 `json:"source" comment:"来源"`
	Timestamp         time.Time              `json:"timestamp" comment:"创建时间"`
	Metadata          map[string]interface{} `json:"metadata" comment:"附加信息"`
	Acknowledged      bool                   `json:"acknowledged" comment:"是否已确认"`
	AcknowledgedBy    string                 `json:"acknowledgedBy,omitempty" comment:"确认人"`
	AcknowledgedAt    *time.Time             `json:"acknowledgedAt,omitempty" comment:"确认时间"`
	Resolved          bool                   `json:"resolved" comment:"是否已解决"`
	ResolvedBy        string                 `json:"resolvedBy,omitempty" comment:"处理人"`
	ResolvedAt        *time.Time             `json:"resolvedAt,omitempty" comment:"解决时间"`
	EscalationLevel   int                    `json:"escalationLevel" comment:"当前升级级别"`
	NotificationsSent []string               `json:"notificationsSent" comment:"已发送通知"`
}

// AlertRuleDTO 告警规则
type AlertRuleDTO struct {
	Type        string               `json:"type" comment:"告警类型"`
	Condition   string               `json:"condition" comment:"触发条件"`
	Threshold   float64              `json:"threshold,omitempty" comment:"阈值"`
	Duration    int                  `json:"duration,omitempty" comment:"持续时间(秒)"`
	Severity    string               `json:"severity" comment:"严重级别"`
	Enabled     bool                 `json:"enabled" comment:"是否启用"`
	Escalation  []EscalationStepDTO  `json:"escalation" comment:"升级步骤"`
	Suppression []SuppressionRuleDTO `json:"suppression,omitempty" comment:"抑制规则"`
}

type EscalationStepDTO struct {
	Level      int      `json:"level" comment:"级别"`
	Delay      int      `json:"delay" comment:"距上一级的延迟(分钟)"`
	Channels   []string `json:"channels" comment:"通知渠道"`
	Recipients []string `json:"recipients" comment:"接收人"`
}

type SuppressionRuleDTO struct {
	Condition string `json:"condition" comment:"抑制条件"`
	Duration  int    `json:"duration,omitempty" comment:"时间窗口(分钟)"`
}

// MaintenanceWindowReq 创建维护窗口请求，alertType、source 为空表示不限
type MaintenanceWindowReq struct {
	Name      string          `json:"name" validate:"required,max=128" comment:"名称"`
	StartTime common.FlexTime `json:"startTime" comment:"开始时间"`
	EndTime   common.FlexTime `json:"endTime" comment:"结束时间"`
	AlertType string          `json:"alertType" validate:"max=64" comment:"告警类型"`
	Source    string          `json:"source" validate:"max=128" comment:"告警来源"`
	Comment   string          `json:"comment" validate:"max=500" comment:"备注"`
}
