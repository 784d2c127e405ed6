package notifier

import (
	"fmt"

	"go.uber.org/zap"
)

type DefaultFactory struct {
	logger *zap.Logger
}

func NewDefaultFactory(logger *zap.Logger) Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateNotifier(channel ChannelType, name string, config map[string]interface{}) (Notifier, error) {
	switch channel {
	case ChannelEmail:
		return NewEmailNotifier(name, config, f.logger)
	case ChannelWebhook:
		return NewWebhookNotifier(name, config, f.logger)
	case ChannelSlack:
		return NewSlackNotifier(name, config, f.logger)
	case ChannelSMS, ChannelPush, ChannelPhone:
		return NewGatewayNotifier(channel, name, config, f.logger)
	default:
		return nil, fmt.Errorf("不支持的通知渠道: %s", channel)
	}
}
