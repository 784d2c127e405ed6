package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"alerthub/pkg/core/config"

	"go.uber.org/zap"
)

// Manager 按渠道管理通知器，每个渠道至多一个通知器
type Manager struct {
	factory     Factory
	logger      *zap.Logger
	sendTimeout time.Duration

	mu        sync.RWMutex
	notifiers map[ChannelType]Notifier
}

type ManagerConfig struct {
	Factory     Factory
	Logger      *zap.Logger
	SendTimeout time.Duration
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Factory == nil {
		cfg.Factory = NewDefaultFactory(cfg.Logger)
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	return &Manager{
		factory:     cfg.Factory,
		logger:      cfg.Logger,
		sendTimeout: cfg.SendTimeout,
		notifiers:   make(map[ChannelType]Notifier),
	}
}

// Load 根据配置创建通知器，单个配置出错只记录日志
func (m *Manager) Load(configs []config.NotifierConfig) int {
	loaded := 0
	for _, cfg := range configs {
		if !cfg.Enabled {
			m.logger.Debug("跳过禁用的通知器", zap.String("name", cfg.Name))
			continue
		}
		channel := ChannelType(cfg.Type)
		n, err := m.factory.CreateNotifier(channel, cfg.Name, cfg.Config)
		if err != nil {
			m.logger.Error("创建通知器失败",
				zap.String("name", cfg.Name),
				zap.String("type", cfg.Type),
				zap.Error(err))
			continue
		}
		m.Register(n)
		loaded++
	}
	m.logger.Info("通知器加载完成", zap.Int("notifier_count", loaded))
	return loaded
}

// Register 同一渠道重复注册时后者覆盖前者
func (m *Manager) Register(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.notifiers[n.GetType()]; ok {
		m.logger.Warn("覆盖已注册的通知器",
			zap.String("type", string(n.GetType())),
			zap.String("old", old.GetName()),
			zap.String("new", n.GetName()))
	}
	m.notifiers[n.GetType()] = n
}

func (m *Manager) Has(channel ChannelType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.notifiers[channel]
	return ok
}

func (m *Manager) Channels() []ChannelType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ChannelType, 0, len(m.notifiers))
	for _, ch := range AllChannels {
		if _, ok := m.notifiers[ch]; ok {
			out = append(out, ch)
		}
	}
	return out
}

// Send 向单个接收人发送，渠道未配置时返回 ErrChannelNotConfigured 且结果为 nil
func (m *Manager) Send(ctx context.Context, channel ChannelType, recipient string, msg *Message) (*Result, error) {
	m.mu.RLock()
	n, ok := m.notifiers[channel]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrChannelNotConfigured
	}

	start := time.Now()
	result := &Result{
		Channel:   channel,
		Notifier:  n.GetName(),
		Recipient: recipient,
		Timestamp: start,
	}

	sendCtx, cancel := context.WithTimeout(ctx, m.sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- n.Send(sendCtx, recipient, msg)
	}()

	var err error
	select {
	case err = <-done:
	case <-sendCtx.Done():
		err = fmt.Errorf("发送超时: %w", sendCtx.Err())
	}

	result.ResponseTime = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		m.logger.Warn("通知发送失败",
			zap.String("channel", string(channel)),
			zap.String("recipient", recipient),
			zap.String("message_id", msg.ID),
			zap.Error(err))
		return result, err
	}
	result.Success = true
	m.logger.Debug("通知发送成功",
		zap.String("channel", string(channel)),
		zap.String("recipient", recipient),
		zap.Int64("response_time_ms", result.ResponseTime))
	return result, nil
}
