package app

import (
	"alerthub/system/alert/api/dto"
	"alerthub/system/alert/internal/model"
)

func ToAlertDTO(a *model.Alert) *dto.AlertDTO {
	if a == nil {
		return nil
	}
	sent := a.NotificationsSent
	if sent == nil {
		sent = []string{}
	}
	return &dto.AlertDTO{
		ID:                a.ID,
		Type:              string(a.Type),
		Severity:          string(a.Severity),
		Title:             a.Title,
		Message:           a.Message,
		Source:            a.Source,
		Timestamp:         a.Timestamp,
		Metadata:          a.Metadata,
		Acknowledged:      a.Acknowledged,
		AcknowledgedBy:    a.AcknowledgedBy,
		AcknowledgedAt:    a.AcknowledgedAt,
		Resolved:          a.Resolved,
		ResolvedBy:        a.ResolvedBy,
		ResolvedAt:        a.ResolvedAt,
		EscalationLevel:   a.EscalationLevel,
		NotificationsSent: sent,
	}
}

func ToAlertDTOs(alerts []*model.Alert) []*dto.AlertDTO {
	out := make([]*dto.AlertDTO, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, ToAlertDTO(a))
	}
	return out
}

func ToRuleDTO(r *model.AlertRule) *dto.AlertRuleDTO {
	out := &dto.AlertRuleDTO{
		Type:      string(r.Type),
		Condition: r.Condition,
		Threshold: r.Threshold,
		Duration:  r.Duration,
		Severity:  string(r.Severity),
		Enabled:   r.Enabled,
	}
	for _, step := range r.Escalation {
		out.Escalation = append(out.Escalation, dto.EscalationStepDTO{
			Level:      step.Level,
			Delay:      step.Delay,
			Channels:   step.Channels,
			Recipients: step.Recipients,
		})
	}
	for _, s := range r.Suppression {
		out.Suppression = append(out.Suppression, dto.SuppressionRuleDTO{
			Condition: string(s.Condition),
			Duration:  s.Duration,
		})
	}
	return out
}

// FromRuleDTO 反向转换，校验在注册时进行
func FromRuleDTO(r *dto.AlertRuleDTO) *model.AlertRule {
	out := &model.AlertRule{
		Type:      model.AlertType(r.Type),
		Condition: r.Condition,
		Threshold: r.Threshold,
		Duration:  r.Duration,
		Severity:  model.Severity(r.Severity),
		Enabled:   r.Enabled,
	}
	for _, step := range r.Escalation {
		out.Escalation = append(out.Escalation, model.EscalationRule{
			Level:      step.Level,
			Delay:      step.Delay,
			Channels:   append([]string(nil), step.Channels...),
			Recipients: append([]string(nil), step.Recipients...),
		})
	}
	for _, s := range r.Suppression {
		out.Suppression = append(out.Suppression, model.SuppressionRule{
			Condition: model.SuppressionCondition(s.Condition),
			Duration:  s.Duration,
		})
	}
	return out
}

// ToAlertInput 请求体到创建参数
func ToAlertInput(req *dto.CreateAlertReq) model.AlertInput {
	return model.AlertInput{
		Type:     model.AlertType(req.Type),
		Severity: model.Severity(req.Severity),
		Title:    req.Title,
		Message:  req.Message,
		Source:   req.Source,
		Metadata: req.Metadata,
	}
}
