package notifier

import (
	"context"
	"fmt"
	"time"

	"alerthub/pkg/core/util"

	"go.uber.org/zap"
)

// WebhookNotifier 以 JSON POST 推送到固定地址，接收人作为 recipient 字段透传
type WebhookNotifier struct {
	name    string
	config  *WebhookNotifierConfig
	timeout time.Duration
	logger  *zap.Logger
}

type webhookPayload struct {
	Recipient string                 `json:"recipient"`
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	Level     string                 `json:"level"`
	CreatedAt string                 `json:"created_at"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

func NewWebhookNotifier(name string, raw map[string]interface{}, logger *zap.Logger) (Notifier, error) {
	var cfg WebhookNotifierConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, fmt.Errorf("解析Webhook通知器配置失败: %w", err)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("Webhook URL不能为空")
	}
	return &WebhookNotifier{
		name:    name,
		config:  &cfg,
		timeout: timeoutOf(cfg.TimeoutSeconds),
		logger:  logger,
	}, nil
}

func (n *WebhookNotifier) GetType() ChannelType {
	return ChannelWebhook
}

func (n *WebhookNotifier) GetName() string {
	return n.name
}

func (n *WebhookNotifier) Send(ctx context.Context, recipient string, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload := webhookPayload{
		Recipient: recipient,
		ID:        msg.ID,
		Title:     msg.Title,
		Content:   msg.Content,
		Level:     msg.Level,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		Data:      msg.Data,
	}

	headers := make([]util.Header, 0, len(n.config.Headers))
	for k, v := range n.config.Headers {
		headers = append(headers, util.Header{Key: k, Value: v})
	}
	if _, err := util.HttpPost(n.config.URL, payload, n.timeout, headers...); err != nil {
		return fmt.Errorf("发送Webhook请求失败: %w", err)
	}
	n.logger.Debug("Webhook发送成功", zap.String("url", n.config.URL), zap.String("recipient", recipient))
	return nil
}
