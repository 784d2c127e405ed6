package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAlertConfigDefaults(t *testing.T) {
	c := AlertConfig{}.WithDefaults()

	assert.Equal(t, 24*time.Hour, c.Retention)
	assert.Equal(t, 7*24*time.Hour, c.RecordTTL)
	assert.Equal(t, "0 0 * * * *", c.CleanupCron)
	assert.Equal(t, []string{"email", "slack"}, c.LifecycleChannels)
	assert.Equal(t, 30*time.Second, c.SendTimeout)
}

func TestAlertConfigRecordTTLNotShorterThanRetention(t *testing.T) {
	c := AlertConfig{Retention: 48 * time.Hour, RecordTTL: time.Hour}.WithDefaults()
	assert.Equal(t, 48*time.Hour, c.RecordTTL)
}

func TestAlertConfigYaml(t *testing.T) {
	raw := `
retention: 12h
lifecycle-channels: [email]
rules:
  - type: disk_full
    severity: high
    enabled: false
    escalation:
      - level: 1
        delay: 0
        channels: [slack]
        recipients: ["#ops"]
    suppression:
      - condition: similar_alert_exists
        duration: 10
`
	var c AlertConfig
	require.NoError(t, yaml.Unmarshal([]byte(raw), &c))

	assert.Equal(t, 12*time.Hour, c.Retention)
	require.Len(t, c.Rules, 1)
	rule := c.Rules[0]
	assert.Equal(t, "disk_full", rule.Type)
	require.NotNil(t, rule.Enabled)
	assert.False(t, *rule.Enabled)
	assert.Equal(t, []string{"#ops"}, rule.Escalation[0].Recipients)
	assert.Equal(t, 10, rule.Suppression[0].Duration)
}
