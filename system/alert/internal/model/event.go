package model

import "time"

// AlertEvent 告警生命周期事件，发布到消息队列
type AlertEvent struct {
	Event     string    `json:"event"`
	AlertID   string    `json:"alertId"`
	Type      AlertType `json:"type"`
	Severity  Severity  `json:"severity"`
	Source    string    `json:"source"`
	Level     int       `json:"level"`
	Operator  string    `json:"operator,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewAlertEvent(event string, alert *Alert, operator string, at time.Time) *AlertEvent {
	return &AlertEvent{
		Event:     event,
		AlertID:   alert.ID,
		Type:      alert.Type,
		Severity:  alert.Severity,
		Source:    alert.Source,
		Level:     alert.EscalationLevel,
		Operator:  operator,
		Timestamp: at,
	}
}
