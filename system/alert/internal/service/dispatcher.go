package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"alerthub/pkg/clock"
	"alerthub/pkg/core/logger"
	"alerthub/pkg/notifier"
	"alerthub/system/alert/internal/model"
)

// Sender 通知发送端口，notifier.Manager 实现了它。
// 渠道未配置时返回 notifier.ErrChannelNotConfigured。
type Sender interface {
	Send(ctx context.Context, channel notifier.ChannelType, recipient string, msg *notifier.Message) (*notifier.Result, error)
}

// Attempt 一次实际到达发送端的尝试
type Attempt struct {
	Channel   string
	Recipient string
	At        time.Time
	Err       error
}

// Record 追加到 notificationsSent 的格式
func (a Attempt) Record() string {
	return fmt.Sprintf("%s:%s:%s", a.Channel, a.Recipient, a.At.UTC().Format(time.RFC3339))
}

// Dispatcher 将一级升级的通知扇出到各渠道。渠道之间并发，同一渠道内按接收人顺序发送，
// 单个渠道或接收人的失败只记录日志。
type Dispatcher struct {
	sender  Sender
	clock   clock.Clock
	metrics *Metrics
	log     *logger.Log
}

func NewDispatcher(sender Sender, clk clock.Clock, metrics *Metrics, log *logger.Log) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		clock:   clk,
		metrics: metrics,
		log:     log.WithEntryName("Dispatcher"),
	}
}

// Dispatch 返回的尝试按规则中声明的渠道顺序排列。
// halted 在每次发送前检查，返回 true 后不再发起新的发送。
func (d *Dispatcher) Dispatch(ctx context.Context, alert *model.Alert, step model.EscalationRule, msg *notifier.Message, halted func() bool) []Attempt {
	results := make([][]Attempt, len(step.Channels))

	var wg sync.WaitGroup
	for i, channel := range step.Channels {
		wg.Add(1)
		go func(i int, channel notifier.ChannelType) {
			defer wg.Done()
			results[i] = d.dispatchChannel(ctx, alert, channel, step.Recipients, msg, halted)
		}(i, notifier.ChannelType(channel))
	}
	wg.Wait()

	var attempts []Attempt
	for _, r := range results {
		attempts = append(attempts, r...)
	}
	return attempts
}

func (d *Dispatcher) dispatchChannel(ctx context.Context, alert *model.Alert, channel notifier.ChannelType, recipients []string, msg *notifier.Message, halted func() bool) []Attempt {
	log := d.log.WithAlert(alert.ID).WithField("channel", channel)
	var attempts []Attempt
	for _, recipient := range recipients {
		// 先取时间再检查 halted，记录的发送时间不会晚于确认或解决时间
		at := d.clock.Now()
		if halted != nil && halted() {
			log.Info("告警已确认或解决，停止发送")
			return attempts
		}
		if ctx.Err() != nil {
			log.WithErr(ctx.Err()).Warn("上下文已结束，停止发送")
			return attempts
		}

		_, err := d.sender.Send(ctx, channel, recipient, msg)
		if errors.Is(err, notifier.ErrChannelNotConfigured) {
			log.Warn("渠道未配置通知器，跳过")
			d.metrics.notification(channel, "skipped")
			return attempts
		}

		attempts = append(attempts, Attempt{
			Channel:   string(channel),
			Recipient: recipient,
			At:        at,
			Err:       err,
		})
		if err != nil {
			log.WithField("recipient", recipient).WithErr(err).Error("发送升级通知失败")
			d.metrics.notification(channel, "failure")
			continue
		}
		d.metrics.notification(channel, "success")
	}
	return attempts
}
