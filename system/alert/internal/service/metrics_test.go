package service

import (
	"testing"

	"alerthub/pkg/notifier"
	"alerthub/system/alert/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.alertCreated(testAlert("A", t0))
	m.escalated(model.AlertTypeDatabaseError, 2)
	m.notification(notifier.ChannelEmail, "success")
	m.SetActive(3)
	m.Purged(2)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.created.WithLabelValues("database_error", "critical")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.escalations.WithLabelValues("database_error", "2")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.active))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.purged))

	count, err := testutil.GatherAndCount(reg, "alerthub_notifications_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.alertCreated(testAlert("A", t0))
		m.SetActive(1)
		m.Purged(1)
		m.setPendingTimers(1)
	})
}
