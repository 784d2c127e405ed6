package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlertClone(t *testing.T) {
	now := time.Now()
	a := &Alert{
		ID:                "ALERT-1",
		AcknowledgedAt:    &now,
		Metadata:          map[string]interface{}{"k": "v"},
		NotificationsSent: []string{"email:a@example.com:2026-01-01T00:00:00Z"},
	}

	c := a.Clone()
	c.Metadata["k"] = "changed"
	c.NotificationsSent[0] = "changed"
	*c.AcknowledgedAt = now.Add(time.Hour)

	assert.Equal(t, "v", a.Metadata["k"])
	assert.Equal(t, "email:a@example.com:2026-01-01T00:00:00Z", a.NotificationsSent[0])
	assert.Equal(t, now, *a.AcknowledgedAt)
}

func TestAlertRuleLevel(t *testing.T) {
	r := &AlertRule{Escalation: []EscalationRule{{Level: 1}, {Level: 3, Delay: 5}}}

	step, ok := r.Level(3)
	assert.True(t, ok)
	assert.Equal(t, 5, step.Delay)

	_, ok = r.Level(2)
	assert.False(t, ok)
}

func TestMaintenanceWindowCovers(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	w := &MaintenanceWindow{StartTime: start, EndTime: start.Add(time.Hour), AlertType: "database_error"}

	assert.True(t, w.Covers(start, AlertTypeDatabaseError, "orders-db"))
	assert.False(t, w.Covers(start.Add(time.Hour), AlertTypeDatabaseError, "orders-db"))
	assert.False(t, w.Covers(start.Add(time.Minute), AlertTypeSystemFailure, "orders-db"))

	w.Source = "orders-db"
	assert.False(t, w.Covers(start.Add(time.Minute), AlertTypeDatabaseError, "users-db"))
}

func TestSeverityValid(t *testing.T) {
	assert.True(t, SeverityEmergency.Valid())
	assert.False(t, Severity("fatal").Valid())
}
