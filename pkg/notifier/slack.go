package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"alerthub/pkg/core/util"

	"go.uber.org/zap"
)

// SlackNotifier 通过 incoming webhook 发送，以 # 开头的接收人作为频道覆盖
type SlackNotifier struct {
	name    string
	config  *SlackNotifierConfig
	timeout time.Duration
	logger  *zap.Logger
}

func NewSlackNotifier(name string, raw map[string]interface{}, logger *zap.Logger) (Notifier, error) {
	var cfg SlackNotifierConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, fmt.Errorf("解析Slack通知器配置失败: %w", err)
	}
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("Slack Webhook URL不能为空")
	}
	return &SlackNotifier{
		name:    name,
		config:  &cfg,
		timeout: timeoutOf(cfg.TimeoutSeconds),
		logger:  logger,
	}, nil
}

func (n *SlackNotifier) GetType() ChannelType {
	return ChannelSlack
}

func (n *SlackNotifier) GetName() string {
	return n.name
}

func (n *SlackNotifier) Send(ctx context.Context, recipient string, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload := map[string]interface{}{
		"text": fmt.Sprintf("*%s*\n%s", msg.Title, msg.Content),
	}
	if strings.HasPrefix(recipient, "#") || strings.HasPrefix(recipient, "@") {
		payload["channel"] = recipient
	}
	if n.config.Username != "" {
		payload["username"] = n.config.Username
	}

	// incoming webhook 成功时返回纯文本 ok，不解析响应体
	h := util.NewHttp(n.config.WebhookURL, payload)
	h.Timeout = n.timeout
	if err := h.Post(); err != nil {
		return fmt.Errorf("发送Slack消息失败: %w", err)
	}
	h.Close()

	n.logger.Debug("Slack发送成功", zap.String("recipient", recipient))
	return nil
}
