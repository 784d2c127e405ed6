package service

import (
	"time"

	"alerthub/system/alert/internal/model"
)

// Decision 某一级升级的判定结果，不含任何副作用
type Decision struct {
	Escalate bool
	Step     model.EscalationRule
	// Next 下一级配置，HasNext 为 false 时无意义
	Next    model.EscalationRule
	HasNext bool
	Reason  string
}

const (
	ReasonNoRule      = "未找到匹配的规则"
	ReasonDisabled    = "规则已禁用"
	ReasonTerminal    = "告警已确认或已解决"
	ReasonNoLevel     = "规则中没有该级别"
	ReasonNotAdvanced = "告警已达到或超过该级别"
)

// Decide 判断告警是否应升级到 level
func Decide(alert *model.Alert, rule *model.AlertRule, level int) Decision {
	switch {
	case rule == nil:
		return Decision{Reason: ReasonNoRule}
	case !rule.Enabled:
		return Decision{Reason: ReasonDisabled}
	case alert.Terminal():
		return Decision{Reason: ReasonTerminal}
	case level <= alert.EscalationLevel:
		return Decision{Reason: ReasonNotAdvanced}
	}

	step, ok := rule.Level(level)
	if !ok {
		return Decision{Reason: ReasonNoLevel}
	}
	d := Decision{Escalate: true, Step: step}
	d.Next, d.HasNext = rule.Level(level + 1)
	return d
}

// Delay 下一级相对本级的等待时长
func (d Decision) Delay() time.Duration {
	if !d.HasNext || d.Next.Delay <= 0 {
		return 0
	}
	return time.Duration(d.Next.Delay) * time.Minute
}
