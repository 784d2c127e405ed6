package notifier

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"text/template"

	"go.uber.org/zap"
)

const defaultSubjectTemplate = "【{{.Level}}】{{.Title}}"

// EmailNotifier 通过 SMTP 发送纯文本邮件，接收人即收件地址
type EmailNotifier struct {
	name    string
	config  *EmailNotifierConfig
	subject *template.Template
	logger  *zap.Logger
	// sendMail 便于测试替换
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailNotifier(name string, raw map[string]interface{}, logger *zap.Logger) (Notifier, error) {
	var cfg EmailNotifierConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, fmt.Errorf("解析邮件通知器配置失败: %w", err)
	}
	if cfg.SMTPServer == "" || cfg.FromAddress == "" {
		return nil, fmt.Errorf("SMTP服务器和发件人地址不能为空")
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 25
	}
	if cfg.SubjectTemplate == "" {
		cfg.SubjectTemplate = defaultSubjectTemplate
	}

	subject, err := template.New("subject").Parse(cfg.SubjectTemplate)
	if err != nil {
		return nil, fmt.Errorf("解析邮件主题模板失败: %w", err)
	}
	return &EmailNotifier{
		name:     name,
		config:   &cfg,
		subject:  subject,
		logger:   logger,
		sendMail: smtp.SendMail,
	}, nil
}

func (n *EmailNotifier) GetType() ChannelType {
	return ChannelEmail
}

func (n *EmailNotifier) GetName() string {
	return n.name
}

func (n *EmailNotifier) Send(ctx context.Context, recipient string, msg *Message) error {
	if !strings.Contains(recipient, "@") {
		return fmt.Errorf("无效的邮件地址: %s", recipient)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var subject bytes.Buffer
	if err := n.subject.Execute(&subject, msg); err != nil {
		return fmt.Errorf("渲染邮件主题失败: %w", err)
	}

	body := n.buildMessage(recipient, subject.String(), msg.Content)

	var auth smtp.Auth
	if n.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", n.config.SMTPUsername, n.config.SMTPPassword, n.config.SMTPServer)
	}
	addr := fmt.Sprintf("%s:%d", n.config.SMTPServer, n.config.SMTPPort)
	if err := n.sendMail(addr, auth, n.config.FromAddress, []string{recipient}, body); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	n.logger.Debug("邮件发送成功", zap.String("to", recipient), zap.String("subject", subject.String()))
	return nil
}

func (n *EmailNotifier) buildMessage(to, subject, content string) []byte {
	var b strings.Builder
	b.WriteString("From: " + n.config.FromAddress + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(content)
	return []byte(b.String())
}
