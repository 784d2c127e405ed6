package config

import "time"

type AlertConfig struct {
	// KeyPrefix 持久化键前缀，多个环境共用一个 redis 时区分
	KeyPrefix string `yaml:"key-prefix"`
	// Retention 已解决告警的保留时长
	Retention time.Duration `yaml:"retention"`
	// RecordTTL 已解决告警记录的过期时间，不得小于 Retention
	RecordTTL   time.Duration `yaml:"record-ttl"`
	CleanupCron string        `yaml:"cleanup-cron"`
	// LifecycleChannels 确认/解决通知使用的渠道
	LifecycleChannels []string      `yaml:"lifecycle-channels"`
	OutboxSize        int           `yaml:"outbox-size"`
	SendTimeout       time.Duration `yaml:"send-timeout"`
	// MaintenanceCacheTTL 维护窗口判定结果的缓存时长
	MaintenanceCacheTTL time.Duration `yaml:"maintenance-cache-ttl"`
	Rules               []RuleConfig  `yaml:"rules"`
}

type RuleConfig struct {
	Type        string              `yaml:"type"`
	Condition   string              `yaml:"condition"`
	Threshold   float64             `yaml:"threshold"`
	Duration    int                 `yaml:"duration"`
	Severity    string              `yaml:"severity"`
	Enabled     *bool               `yaml:"enabled"`
	Escalation  []EscalationConfig  `yaml:"escalation"`
	Suppression []SuppressionConfig `yaml:"suppression"`
}

type EscalationConfig struct {
	Level      int      `yaml:"level"`
	Delay      int      `yaml:"delay"`
	Channels   []string `yaml:"channels"`
	Recipients []string `yaml:"recipients"`
}

type SuppressionConfig struct {
	Condition string `yaml:"condition"`
	Duration  int    `yaml:"duration"`
}

// WithDefaults 补齐未配置的项
func (c AlertConfig) WithDefaults() AlertConfig {
	if c.Retention <= 0 {
		c.Retention = 24 * time.Hour
	}
	if c.RecordTTL <= 0 {
		c.RecordTTL = 7 * 24 * time.Hour
	}
	if c.RecordTTL < c.Retention {
		c.RecordTTL = c.Retention
	}
	if c.CleanupCron == "" {
		c.CleanupCron = "0 0 * * * *"
	}
	if len(c.LifecycleChannels) == 0 {
		c.LifecycleChannels = []string{"email", "slack"}
	}
	if c.OutboxSize <= 0 {
		c.OutboxSize = 1024
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
	if c.MaintenanceCacheTTL <= 0 {
		c.MaintenanceCacheTTL = 30 * time.Second
	}
	return c
}
