package service

import (
	"context"
	"errors"

	"alerthub/pkg/clock"
	"alerthub/pkg/core/logger"
	"alerthub/pkg/notifier"
	"alerthub/system/alert/internal/model"
)

// NoticeKind 生命周期通知类型
type NoticeKind string

const (
	NoticeAcknowledged NoticeKind = "alert_acknowledged"
	NoticeResolved     NoticeKind = "alert_resolved"
)

func (k NoticeKind) Title() string {
	if k == NoticeResolved {
		return "告警已解决"
	}
	return "告警已确认"
}

func (k NoticeKind) Severity() model.Severity {
	if k == NoticeResolved {
		return model.SeverityLow
	}
	return model.SeverityMedium
}

// NoticeService 确认/解决后通知已被升级通知过的接收人，不写入 notificationsSent
type NoticeService struct {
	sender   Sender
	channels []notifier.ChannelType
	clock    clock.Clock
	log      *logger.Log
}

func NewNoticeService(sender Sender, channels []string, clk clock.Clock, log *logger.Log) *NoticeService {
	s := &NoticeService{
		sender: sender,
		clock:  clk,
		log:    log.WithEntryName("NoticeService"),
	}
	for _, ch := range channels {
		s.channels = append(s.channels, notifier.ChannelType(ch))
	}
	return s
}

// Recipients 级别 1..level 的接收人并集，按首次出现的顺序
func Recipients(rule *model.AlertRule, level int) []string {
	if rule == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for l := 1; l <= level; l++ {
		step, ok := rule.Level(l)
		if !ok {
			continue
		}
		for _, r := range step.Recipients {
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// Notify 通知级别 1..escalationLevel 的接收人；未升级过的告警（被抑制或规则已禁用）通知第一级接收人
func (s *NoticeService) Notify(ctx context.Context, alert *model.Alert, rule *model.AlertRule, kind NoticeKind, operator, reason string) error {
	log := s.log.WithAlert(alert.ID).WithOp(string(kind))
	recipients := Recipients(rule, max(alert.EscalationLevel, 1))
	if len(recipients) == 0 {
		log.Debug("没有匹配规则的接收人，无需发送生命周期通知")
		return nil
	}

	msg, err := RenderNotice(alert, kind, operator, reason, s.clock.Now())
	if err != nil {
		return err
	}

	var failed int
	for _, ch := range s.channels {
		for _, r := range recipients {
			_, err := s.sender.Send(ctx, ch, r, msg)
			if errors.Is(err, notifier.ErrChannelNotConfigured) {
				log.WithField("channel", ch).Debug("渠道未配置通知器，跳过")
				break
			}
			if err != nil {
				failed++
				log.WithField("channel", ch).WithField("recipient", r).WithErr(err).Warn("发送生命周期通知失败")
			}
		}
	}
	log.WithField("failed", failed).Info("生命周期通知发送完成")
	return nil
}
