package service

import (
	"strconv"

	"alerthub/pkg/notifier"
	"alerthub/system/alert/internal/model"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 告警引擎指标，方法在 nil 接收者上安全
type Metrics struct {
	created       *prometheus.CounterVec
	suppressed    *prometheus.CounterVec
	escalations   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	active        prometheus.Gauge
	purged        prometheus.Counter
	pendingTimers prometheus.Gauge
}

// NewMetrics reg 为空时只创建不注册
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerthub_alerts_created_total",
			Help: "创建的告警数",
		}, []string{"type", "severity"}),
		suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerthub_alerts_suppressed_total",
			Help: "被抑制的告警数",
		}, []string{"type"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerthub_escalations_total",
			Help: "升级次数",
		}, []string{"type", "level"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerthub_notifications_total",
			Help: "通知发送次数",
		}, []string{"channel", "result"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alerthub_active_alerts",
			Help: "未解决的告警数",
		}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alerthub_alerts_purged_total",
			Help: "清理的已解决告警数",
		}),
		pendingTimers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alerthub_pending_timers",
			Help: "待触发的升级定时器数",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.created, m.suppressed, m.escalations, m.notifications, m.active, m.purged, m.pendingTimers)
	}
	return m
}

func (m *Metrics) alertCreated(a *model.Alert) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
}

func (m *Metrics) alertSuppressed(t model.AlertType) {
	if m == nil {
		return
	}
	m.suppressed.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) escalated(t model.AlertType, level int) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(string(t), strconv.Itoa(level)).Inc()
}

func (m *Metrics) notification(channel notifier.ChannelType, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(string(channel), result).Inc()
}

func (m *Metrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.active.Set(float64(n))
}

func (m *Metrics) Purged(n int) {
	if m == nil {
		return
	}
	m.purged.Add(float64(n))
}

func (m *Metrics) setPendingTimers(n int) {
	if m == nil {
		return
	}
	m.pendingTimers.Set(float64(n))
}
