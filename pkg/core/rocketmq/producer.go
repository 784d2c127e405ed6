package rocketmq

import (
	"context"
	"strings"

	"alerthub/pkg/core/config"
	errorc "alerthub/pkg/core/err"
	"alerthub/pkg/core/logger"

	json "github.com/json-iterator/go"

	"github.com/apache/rocketmq-client-go/v2"
	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/apache/rocketmq-client-go/v2/producer"
)

var (
	e   = errorc.NewErrorBuilder("RocketMQ")
	log = logger.GetLogger().WithEntryName("RocketMQ")
)

// Manager 生产者管理，tag 会按环境加前缀，与消费端约定一致
type Manager struct {
	rocketConfig config.RocketMQ
	env          string
	producer     rocketmq.Producer
}

func NewManager(cfg config.RocketMQ, env string) *Manager {
	return &Manager{rocketConfig: cfg, env: env}
}

type MessageBuilder struct {
	manager  *Manager
	topic    string
	tag      string
	sharding string
	message  interface{}
}

type tagBuilder struct {
	messageBuilder *MessageBuilder
}

type messageBuilder struct {
	messageBuilder *MessageBuilder
}

type stepBuilder struct {
	messageBuilder *MessageBuilder
}

func (m *Manager) MessageBuilder(topic string) *tagBuilder {
	return &tagBuilder{messageBuilder: &MessageBuilder{manager: m, topic: topic}}
}

func (t *tagBuilder) Tag(tag string) *messageBuilder {
	fullTag := tag
	if t.messageBuilder.manager.env != "" {
		fullTag = t.messageBuilder.manager.env + "_" + tag
	}
	mb := *t.messageBuilder
	mb.tag = fullTag
	return &messageBuilder{messageBuilder: &mb}
}

func (t *messageBuilder) Message(message interface{}) *stepBuilder {
	mb := *t.messageBuilder
	mb.message = message
	return &stepBuilder{messageBuilder: &mb}
}

// Sharding 同一分片键的消息进入同一队列，保证顺序
func (t *stepBuilder) Sharding(sharding string) *stepBuilder {
	mb := *t.messageBuilder
	mb.sharding = sharding
	return &stepBuilder{messageBuilder: &mb}
}

func (t *stepBuilder) Build() *MessageBuilder {
	return t.messageBuilder
}

func (t *stepBuilder) SendShardingSync(ctx context.Context, keys ...string) error {
	mb := t.messageBuilder
	return mb.manager.sendShardingSync(ctx, mb.topic, mb.tag, mb.sharding, mb.message, keys)
}

func (m *Manager) StartProducer() error {
	groupName := m.rocketConfig.GroupName
	if groupName == "" {
		groupName = "GID_ALERT_EVENT"
	}
	retry := m.rocketConfig.Retry
	if retry <= 0 {
		retry = 3
	}

	opts := []producer.Option{
		producer.WithNameServer(strings.Split(m.rocketConfig.NameServer, ",")),
		producer.WithGroupName(groupName),
		producer.WithRetry(retry),
		producer.WithQueueSelector(producer.NewHashQueueSelector()),
	}
	if m.rocketConfig.AccessKey != "" {
		opts = append(opts, producer.WithCredentials(primitive.Credentials{
			AccessKey: m.rocketConfig.AccessKey,
			SecretKey: m.rocketConfig.AccessSecret,
		}))
	}
	if m.rocketConfig.NameSpace != "" {
		opts = append(opts, producer.WithNamespace(m.rocketConfig.NameSpace))
	}

	p, err := rocketmq.NewProducer(opts...)
	if err != nil {
		return e.New("创建Producer失败", err).Third().ToLog(log.GetLogger())
	}
	if err = p.Start(); err != nil {
		return e.New("启动Producer失败", err).Third().ToLog(log.GetLogger())
	}

	m.producer = p
	log.Info("rocketmq生产者启动成功")
	return nil
}

func (m *Manager) Shutdown() error {
	if m.producer == nil {
		return nil
	}
	if err := m.producer.Shutdown(); err != nil {
		return e.New("关闭Producer失败", err).Third()
	}
	return nil
}

func (m *Manager) sendShardingSync(ctx context.Context, topic, tag, shardingKey string, message interface{}, keys []string) error {
	if m.producer == nil {
		return e.New("Producer未启动", nil).Unavailable()
	}
	body, err := coverMsg(message)
	if err != nil {
		return e.New("MQ将消息json化失败", err).WithTraceID(ctx)
	}
	newMessage := primitive.NewMessage(topic, body)
	newMessage.WithTag(tag)
	newMessage.WithShardingKey(shardingKey)
	newMessage.WithKeys(keys)

	result, err := m.producer.SendSync(ctx, newMessage)
	if err != nil {
		return e.New("发送分区顺序消息失败", err).Third().WithTraceID(ctx)
	}
	log.WithField("topic", topic).
		WithField("tag", tag).
		WithField("key", keys).
		WithField("shardingKey", shardingKey).
		WithField("msgID", result.MsgID).
		WithField("status", result.Status).Debug("发送分区顺序消息")
	return nil
}

func coverMsg(message interface{}) ([]byte, error) {
	switch v := message.(type) {
	case nil:
		return []byte(""), nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(message)
	}
}
