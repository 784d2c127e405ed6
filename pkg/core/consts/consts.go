package consts

const (
	// TraceKey 请求上下文中追踪ID的键
	TraceKey = "traceId"
	// TraceHeaderName 透传追踪ID的请求头
	TraceHeaderName = "X-Trace-Id"
)

// 告警持久化键
const (
	AlertKeyPrefix     = "alert:"
	ActiveAlertsSetKey = "active_alerts"
)

// 生命周期事件的消息标签
const (
	EventAlertCreated      = "alert_created"
	EventAlertEscalated    = "alert_escalation"
	EventAlertAcknowledged = "alert_acknowledged"
	EventAlertResolved     = "alert_resolved"
	EventAlertPurged       = "alert_purged"
)
