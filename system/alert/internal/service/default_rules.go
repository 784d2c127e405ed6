package service

import "alerthub/system/alert/internal/model"

const (
	recipientAdmin     = "admin@alerthub.local"
	recipientEmergency = "emergency@alerthub.local"
	recipientCTO       = "cto@alerthub.local"
	recipientCEO       = "ceo@alerthub.local"
	recipientDBA       = "dba@alerthub.local"
	recipientSecurity  = "security@alerthub.local"
	recipientOps       = "ops@alerthub.local"
)

// DefaultRules 内置规则，每条规则第一级立即通知，后续级别逐步扩大范围
func DefaultRules() []*model.AlertRule {
	return []*model.AlertRule{
		{
			Type:      model.AlertTypeSystemFailure,
			Condition: "always",
			Severity:  model.SeverityCritical,
			Enabled:   true,
			Escalation: []model.EscalationRule{
				{Level: 1, Delay: 0, Channels: []string{"email", "slack"}, Recipients: []string{recipientAdmin, "#alerts"}},
				{Level: 2, Delay: 5, Channels: []string{"email", "sms", "slack"}, Recipients: []string{recipientAdmin, recipientEmergency, "#critical-alerts"}},
				{Level: 3, Delay: 15, Channels: []string{"email", "sms", "phone"}, Recipients: []string{recipientAdmin, recipientCTO}},
			},
		},
		{
			Type:      model.AlertTypeDatabaseError,
			Condition: "always",
			Severity:  model.SeverityCritical,
			Enabled:   true,
			Escalation: []model.EscalationRule{
				{Level: 1, Delay: 0, Channels: []string{"email", "slack"}, Recipients: []string{recipientAdmin, "#database-alerts"}},
				{Level: 2, Delay: 10, Channels: []string{"email", "sms"}, Recipients: []string{recipientAdmin, recipientDBA}},
			},
			Suppression: []model.SuppressionRule{
				{Condition: model.ConditionSimilarAlertExists, Duration: 15},
			},
		},
		{
			Type:      model.AlertTypePerformanceDegradation,
			Condition: "threshold_exceeded",
			Threshold: 2000,
			Duration:  300,
			Severity:  model.SeverityHigh,
			Enabled:   true,
			Escalation: []model.EscalationRule{
				{Level: 1, Delay: 0, Channels: []string{"email", "slack"}, Recipients: []string{recipientAdmin, "#performance-alerts"}},
				{Level: 2, Delay: 30, Channels: []string{"email", "sms"}, Recipients: []string{recipientAdmin}},
			},
			Suppression: []model.SuppressionRule{
				{Condition: model.ConditionMaintenanceWindow},
			},
		},
		{
			Type:      model.AlertTypeSecurityBreach,
			Condition: "always",
			Severity:  model.SeverityEmergency,
			Enabled:   true,
			Escalation: []model.EscalationRule{
				{Level: 1, Delay: 0, Channels: []string{"email", "sms", "slack", "phone"}, Recipients: []string{recipientAdmin, recipientSecurity, "#security-alerts"}},
				{Level: 2, Delay: 2, Channels: []string{"email", "sms", "phone"}, Recipients: []string{recipientCTO, recipientCEO}},
			},
		},
		{
			Type:      model.AlertTypeAPIErrorRate,
			Condition: "threshold_exceeded",
			Threshold: 10,
			Duration:  300,
			Severity:  model.SeverityHigh,
			Enabled:   true,
			Escalation: []model.EscalationRule{
				{Level: 1, Delay: 0, Channels: []string{"email", "slack"}, Recipients: []string{recipientAdmin, "#api-alerts"}},
				{Level: 2, Delay: 15, Channels: []string{"email", "sms"}, Recipients: []string{recipientAdmin}},
			},
			Suppression: []model.SuppressionRule{
				{Condition: model.ConditionSimilarAlertExists, Duration: 10},
				{Condition: model.ConditionMaintenanceWindow},
			},
		},
		{
			Type:      model.AlertTypeResourceExhaustion,
			Condition: "threshold_exceeded",
			Threshold: 90,
			Duration:  300,
			Severity:  model.SeverityHigh,
			Enabled:   true,
			Escalation: []model.EscalationRule{
				{Level: 1, Delay: 0, Channels: []string{"email", "slack"}, Recipients: []string{recipientOps, "#infra-alerts"}},
				{Level: 2, Delay: 15, Channels: []string{"email", "sms"}, Recipients: []string{recipientOps, recipientAdmin}},
			},
			Suppression: []model.SuppressionRule{
				{Condition: model.ConditionSimilarAlertExists, Duration: 30},
			},
		},
		{
			Type:      model.AlertTypeServiceUnavailable,
			Condition: "always",
			Severity:  model.SeverityCritical,
			Enabled:   true,
			Escalation: []model.EscalationRule{
				{Level: 1, Delay: 0, Channels: []string{"email", "slack"}, Recipients: []string{recipientOps, "#alerts"}},
				{Level: 2, Delay: 5, Channels: []string{"email", "sms", "phone"}, Recipients: []string{recipientOps, recipientEmergency}},
			},
			Suppression: []model.SuppressionRule{
				{Condition: model.ConditionMaintenanceWindow},
			},
		},
		{
			Type:      model.AlertTypeDataCorruption,
			Condition: "always",
			Severity:  model.SeverityEmergency,
			Enabled:   true,
			Escalation: []model.EscalationRule{
				{Level: 1, Delay: 0, Channels: []string{"email", "sms", "slack"}, Recipients: []string{recipientAdmin, recipientDBA, "#database-alerts"}},
				{Level: 2, Delay: 5, Channels: []string{"email", "phone"}, Recipients: []string{recipientCTO}},
			},
		},
	}
}
