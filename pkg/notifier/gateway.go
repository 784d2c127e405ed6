package notifier

import (
	"context"
	"fmt"
	"time"

	"alerthub/pkg/core/util"

	"go.uber.org/zap"
)

// GatewayNotifier 短信、推送和语音电话都通过各自的 HTTP 网关下发，
// 网关返回 {"code":0} 或 {"success":true} 视为成功
type GatewayNotifier struct {
	channel ChannelType
	name    string
	config  *GatewayNotifierConfig
	timeout time.Duration
	logger  *zap.Logger
}

func NewGatewayNotifier(channel ChannelType, name string, raw map[string]interface{}, logger *zap.Logger) (Notifier, error) {
	var cfg GatewayNotifierConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, fmt.Errorf("解析%s网关配置失败: %w", channel, err)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("%s网关地址不能为空", channel)
	}
	return &GatewayNotifier{
		channel: channel,
		name:    name,
		config:  &cfg,
		timeout: timeoutOf(cfg.TimeoutSeconds),
		logger:  logger,
	}, nil
}

func (n *GatewayNotifier) GetType() ChannelType {
	return n.channel
}

func (n *GatewayNotifier) GetName() string {
	return n.name
}

func (n *GatewayNotifier) Send(ctx context.Context, recipient string, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload := map[string]interface{}{
		"channel": string(n.channel),
		"to":      recipient,
		"title":   msg.Title,
		"content": msg.Content,
		"level":   msg.Level,
		"ref":     msg.ID,
	}

	var headers []util.Header
	if n.config.Token != "" {
		headers = append(headers, util.Header{Key: "Authorization", Value: "Bearer " + n.config.Token})
	}

	result, err := util.HttpPost(n.config.URL, payload, n.timeout, headers...)
	if err != nil {
		return fmt.Errorf("调用%s网关失败: %w", n.channel, err)
	}
	if code := result.Get("code"); code.Exists() && code.Int() != 0 {
		return fmt.Errorf("%s网关返回错误: %d %s", n.channel, code.Int(), result.Get("message").String())
	}
	if ok := result.Get("success"); ok.Exists() && !ok.Bool() {
		return fmt.Errorf("%s网关返回失败: %s", n.channel, result.Get("message").String())
	}

	n.logger.Debug("网关发送成功", zap.String("channel", string(n.channel)), zap.String("to", recipient))
	return nil
}
