package model

// SuppressionCondition 抑制条件
type SuppressionCondition string

const (
	// ConditionSimilarAlertExists 窗口内存在同类型同来源的未解决告警
	ConditionSimilarAlertExists SuppressionCondition = "similar_alert_exists"
	// ConditionMaintenanceWindow 当前处于维护窗口
	ConditionMaintenanceWindow SuppressionCondition = "maintenance_window"
)

// AlertRule 告警类型对应的升级策略
type AlertRule struct {
	Type AlertType `json:"type" validate:"required,max=64"`
	// Condition、Threshold、Duration 由告警发起方使用，引擎不解释
	Condition   string            `json:"condition"`
	Threshold   float64           `json:"threshold"`
	Duration    int               `json:"duration" validate:"gte=0"`
	Severity    Severity          `json:"severity" validate:"required,oneof=low medium high critical emergency"`
	Enabled     bool              `json:"enabled"`
	Escalation  []EscalationRule  `json:"escalation" validate:"required,min=1,dive"`
	Suppression []SuppressionRule `json:"suppression,omitempty" validate:"omitempty,dive"`
}

// EscalationRule 升级策略中的一级
type EscalationRule struct {
	Level int `json:"level" validate:"gte=1"`
	// Delay 相对上一级的分钟数，0 表示与上一级同批触发，最长一年
	Delay      int      `json:"delay" validate:"gte=0,max=525600"`
	Channels   []string `json:"channels" validate:"required,min=1,dive,oneof=email sms slack webhook push phone"`
	Recipients []string `json:"recipients" validate:"required,min=1,dive,required"`
}

type SuppressionRule struct {
	Condition SuppressionCondition `json:"condition" validate:"required,oneof=similar_alert_exists maintenance_window"`
	// Duration 窗口分钟数
	Duration int `json:"duration" validate:"gte=0"`
}

// Level 返回指定级别的升级配置
func (r *AlertRule) Level(level int) (EscalationRule, bool) {
	for _, step := range r.Escalation {
		if step.Level == level {
			return step, true
		}
	}
	return EscalationRule{}, false
}

// Clone 规则对外返回时使用，避免调用方修改注册表中的切片
func (r *AlertRule) Clone() *AlertRule {
	c := *r
	c.Escalation = make([]EscalationRule, len(r.Escalation))
	for i, step := range r.Escalation {
		step.Channels = append([]string(nil), step.Channels...)
		step.Recipients = append([]string(nil), step.Recipients...)
		c.Escalation[i] = step
	}
	c.Suppression = append([]SuppressionRule(nil), r.Suppression...)
	return &c
}
