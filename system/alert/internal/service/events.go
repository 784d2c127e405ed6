package service

import (
	"context"
	"time"

	"alerthub/pkg/core/logger"
	"alerthub/pkg/core/rocketmq"
	"alerthub/system/alert/internal/model"
)

// EventPublisher 告警生命周期事件的发布端口
type EventPublisher interface {
	Publish(ctx context.Context, event *model.AlertEvent) error
}

// NopPublisher 未配置消息队列时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *model.AlertEvent) error {
	return nil
}

// RocketMQPublisher 以告警 ID 为分片键发送顺序消息，同一告警的事件保持顺序
type RocketMQPublisher struct {
	manager *rocketmq.Manager
	topic   string
	log     *logger.Log
}

func NewRocketMQPublisher(manager *rocketmq.Manager, topic string, log *logger.Log) *RocketMQPublisher {
	return &RocketMQPublisher{
		manager: manager,
		topic:   topic,
		log:     log.WithEntryName("RocketMQPublisher"),
	}
}

func (p *RocketMQPublisher) Publish(ctx context.Context, event *model.AlertEvent) error {
	err := p.manager.MessageBuilder(p.topic).
		Tag(event.Event).
		Message(event).
		Sharding(event.AlertID).
		SendShardingSync(ctx, event.AlertID)
	if err != nil {
		return err
	}
	p.log.WithAlert(event.AlertID).WithField("event", event.Event).Debug("告警事件已发布")
	return nil
}

// EventEmitter 通过发件箱异步发布事件
type EventEmitter struct {
	outbox    *Outbox
	publisher EventPublisher
	clock     interface{ Now() time.Time }
}

func NewEventEmitter(outbox *Outbox, publisher EventPublisher, clk interface{ Now() time.Time }) *EventEmitter {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &EventEmitter{outbox: outbox, publisher: publisher, clock: clk}
}

// Emit alert 应为快照，调用后不得再修改
func (e *EventEmitter) Emit(event string, alert *model.Alert, operator string) {
	if _, nop := e.publisher.(NopPublisher); nop {
		return
	}
	evt := model.NewAlertEvent(event, alert, operator, e.clock.Now())
	e.outbox.Enqueue(Job{
		Name:    "publish_" + event,
		AlertID: alert.ID,
		Run: func(ctx context.Context) error {
			return e.publisher.Publish(ctx, evt)
		},
	})
}
