// Package notifier 提供告警通知渠道的统一接口和各渠道实现
package notifier

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// ChannelType 通知渠道类型
type ChannelType string

const (
	ChannelEmail   ChannelType = "email"
	ChannelSMS     ChannelType = "sms"
	ChannelSlack   ChannelType = "slack"
	ChannelWebhook ChannelType = "webhook"
	ChannelPush    ChannelType = "push"
	ChannelPhone   ChannelType = "phone"
)

// AllChannels 支持的全部渠道
var AllChannels = []ChannelType{ChannelEmail, ChannelSMS, ChannelSlack, ChannelWebhook, ChannelPush, ChannelPhone}

func (c ChannelType) Valid() bool {
	for _, item := range AllChannels {
		if item == c {
			return true
		}
	}
	return false
}

// ErrChannelNotConfigured 渠道没有可用的通知器，调用方据此区分“未发送”和“发送失败”
var ErrChannelNotConfigured = errors.New("通知渠道未配置")

// Message 一条待发送的通知
type Message struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	Level     string                 `json:"level"`
	CreatedAt time.Time              `json:"created_at"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Result 单次发送结果
type Result struct {
	Channel      ChannelType `json:"channel"`
	Notifier     string      `json:"notifier"`
	Recipient    string      `json:"recipient"`
	Success      bool        `json:"success"`
	Error        string      `json:"error,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
	ResponseTime int64       `json:"response_time,omitempty"`
}

// Notifier 单个渠道的发送实现
type Notifier interface {
	Send(ctx context.Context, recipient string, msg *Message) error
	GetType() ChannelType
	GetName() string
}

// Factory 根据配置创建通知器
type Factory interface {
	CreateNotifier(channel ChannelType, name string, config map[string]interface{}) (Notifier, error)
}

type EmailNotifierConfig struct {
	SMTPServer   string `json:"smtp_server"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username,omitempty"`
	SMTPPassword string `json:"smtp_password,omitempty"`
	FromAddress  string `json:"from_address"`
	// SubjectTemplate 为空时使用默认主题模板
	SubjectTemplate string `json:"subject_template,omitempty"`
}

type WebhookNotifierConfig struct {
	URL            string            `json:"url"`
	Headers        map[string]string `json:"headers,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty"`
}

type SlackNotifierConfig struct {
	WebhookURL     string `json:"webhook_url"`
	Username       string `json:"username,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// GatewayNotifierConfig 短信、推送、语音电话共用的 HTTP 网关配置
type GatewayNotifierConfig struct {
	URL            string `json:"url"`
	Token          string `json:"token,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// decodeConfig 将 yaml 解析出的松散配置转换为具体结构
func decodeConfig(raw map[string]interface{}, out interface{}) error {
	data, err := jsoniter.Marshal(raw)
	if err != nil {
		return err
	}
	return jsoniter.Unmarshal(data, out)
}

func timeoutOf(seconds int) time.Duration {
	if seconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(seconds) * time.Second
}
