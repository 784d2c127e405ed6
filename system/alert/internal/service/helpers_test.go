package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"alerthub/pkg/notifier"
	"alerthub/system/alert/internal/model"
)

var t0 = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

type sentMessage struct {
	Channel   notifier.ChannelType
	Recipient string
	Title     string
}

// fakeSender 记录每次发送，可按渠道配置未启用或按 channel:recipient 配置失败
type fakeSender struct {
	mu           sync.Mutex
	sent         []sentMessage
	unconfigured map[notifier.ChannelType]bool
	failing      map[string]bool
	onSend       func(channel notifier.ChannelType, recipient string)
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		unconfigured: map[notifier.ChannelType]bool{},
		failing:      map[string]bool{},
	}
}

func (f *fakeSender) Send(_ context.Context, channel notifier.ChannelType, recipient string, msg *notifier.Message) (*notifier.Result, error) {
	if f.unconfigured[channel] {
		return nil, notifier.ErrChannelNotConfigured
	}
	if f.onSend != nil {
		f.onSend(channel, recipient)
	}
	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{Channel: channel, Recipient: recipient, Title: msg.Title})
	f.mu.Unlock()
	if f.failing[string(channel)+":"+recipient] {
		return &notifier.Result{Channel: channel, Recipient: recipient}, errors.New("发送失败")
	}
	return &notifier.Result{Channel: channel, Recipient: recipient, Success: true}, nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func testRule(alertType model.AlertType) *model.AlertRule {
	return &model.AlertRule{
		Type:     alertType,
		Severity: model.SeverityCritical,
		Enabled:  true,
		Escalation: []model.EscalationRule{
			{Level: 1, Delay: 0, Channels: []string{"email", "slack"}, Recipients: []string{"a@example.com", "#ops"}},
			{Level: 2, Delay: 10, Channels: []string{"sms"}, Recipients: []string{"+10000000001"}},
		},
	}
}

func testAlert(id string, at time.Time) *model.Alert {
	return &model.Alert{
		ID:        id,
		Type:      model.AlertTypeDatabaseError,
		Severity:  model.SeverityCritical,
		Title:     "数据库错误",
		Message:   "连接超时",
		Source:    "orders-db",
		Timestamp: at,
		Metadata:  map[string]interface{}{},
	}
}
