package service

import (
	"fmt"
	"sync"

	"alerthub/pkg/core/config"
	errorc "alerthub/pkg/core/err"
	"alerthub/pkg/core/logger"
	"alerthub/system/alert/internal/model"
	"alerthub/utils"
)

// RuleRegistry 按注册顺序保存规则，同一类型存在多条规则时先注册者生效
type RuleRegistry struct {
	mu    sync.RWMutex
	rules []*model.AlertRule
	log   *logger.Log
	err   *errorc.ErrorBuilder
}

func NewRuleRegistry(log *logger.Log) *RuleRegistry {
	return &RuleRegistry{
		log: log.WithEntryName("RuleRegistry"),
		err: errorc.NewErrorBuilder("RuleRegistry"),
	}
}

// Register 校验并注册规则
func (r *RuleRegistry) Register(rule *model.AlertRule) error {
	if rule == nil {
		return r.err.New("规则不能为空", nil).Valid()
	}
	if err := r.validate(rule); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rules {
		if existing.Type == rule.Type {
			r.log.WithField("type", rule.Type).Warn("已存在同类型规则，新规则不会生效")
			break
		}
	}
	r.rules = append(r.rules, rule.Clone())
	return nil
}

func (r *RuleRegistry) validate(rule *model.AlertRule) error {
	if errMsg, err := utils.Validate(rule); err != nil {
		return r.err.New(fmt.Sprintf("规则[%s]校验失败: %s", rule.Type, errMsg), err).Valid()
	}
	levels := make(map[int]struct{}, len(rule.Escalation))
	for _, step := range rule.Escalation {
		if _, dup := levels[step.Level]; dup {
			return r.err.New(fmt.Sprintf("规则[%s]的升级级别%d重复", rule.Type, step.Level), nil).Valid()
		}
		levels[step.Level] = struct{}{}
	}
	return nil
}

// FindByType 返回规则副本，未找到时返回 nil
func (r *RuleRegistry) FindByType(alertType model.AlertType) *model.AlertRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rule := range r.rules {
		if rule.Type == alertType {
			return rule.Clone()
		}
	}
	return nil
}

func (r *RuleRegistry) Rules() []*model.AlertRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.AlertRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule.Clone())
	}
	return out
}

// RuleFromConfig 未配置 enabled 时视为启用
func RuleFromConfig(cfg config.RuleConfig) *model.AlertRule {
	rule := &model.AlertRule{
		Type:      model.AlertType(cfg.Type),
		Condition: cfg.Condition,
		Threshold: cfg.Threshold,
		Duration:  cfg.Duration,
		Severity:  model.Severity(cfg.Severity),
		Enabled:   cfg.Enabled == nil || *cfg.Enabled,
	}
	for _, step := range cfg.Escalation {
		rule.Escalation = append(rule.Escalation, model.EscalationRule{
			Level:      step.Level,
			Delay:      step.Delay,
			Channels:   append([]string(nil), step.Channels...),
			Recipients: append([]string(nil), step.Recipients...),
		})
	}
	for _, s := range cfg.Suppression {
		rule.Suppression = append(rule.Suppression, model.SuppressionRule{
			Condition: model.SuppressionCondition(s.Condition),
			Duration:  s.Duration,
		})
	}
	return rule
}

// SeedRules 先注册配置中的规则，再注册内置默认规则，配置可以覆盖同类型的默认规则
func SeedRules(registry *RuleRegistry, configured []config.RuleConfig) error {
	for _, cfg := range configured {
		if err := registry.Register(RuleFromConfig(cfg)); err != nil {
			return err
		}
	}
	for _, rule := range DefaultRules() {
		if err := registry.Register(rule); err != nil {
			return err
		}
	}
	return nil
}
