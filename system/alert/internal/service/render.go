package service

import (
	"bytes"
	"strings"
	"text/template"
	"time"

	"alerthub/pkg/notifier"
	"alerthub/system/alert/internal/model"
)

const escalationTemplate = `🚨 严重告警 - 升级级别 {{.Level}}

标题: {{.Alert.Title}}
类型: {{.Alert.Type}}
级别: {{upper .Alert.Severity}}
来源: {{.Alert.Source}}
时间: {{rfc3339 .Alert.Timestamp}}

详情: {{.Alert.Message}}

告警ID: {{.Alert.ID}}

该告警需要立即处理，请尽快确认或解决。

确认: POST /api/alerts/{{.Alert.ID}}/acknowledge
解决: POST /api/alerts/{{.Alert.ID}}/resolve`

const noticeTemplate = `{{.Action}}: {{.Alert.Title}}

告警ID: {{.Alert.ID}}
类型: {{.Alert.Type}}
处理人: {{.Operator}}
{{- if .Reason}}
处理说明: {{.Reason}}
{{- end}}
时间: {{rfc3339 .At}}`

var renderFuncs = template.FuncMap{
	"upper": func(s model.Severity) string { return strings.ToUpper(string(s)) },
	"rfc3339": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
}

var (
	escalationTmpl = template.Must(template.New("escalation").Funcs(renderFuncs).Parse(escalationTemplate))
	noticeTmpl     = template.Must(template.New("notice").Funcs(renderFuncs).Parse(noticeTemplate))
)

// RenderEscalation 生成某一级升级的通知内容
func RenderEscalation(alert *model.Alert, level int) (*notifier.Message, error) {
	var buf bytes.Buffer
	err := escalationTmpl.Execute(&buf, struct {
		Alert *model.Alert
		Level int
	}{alert, level})
	if err != nil {
		return nil, err
	}
	return &notifier.Message{
		ID:        alert.ID,
		Title:     "🚨 告警升级: " + alert.Title,
		Content:   buf.String(),
		Level:     string(alert.Severity),
		CreatedAt: alert.Timestamp,
		Data: map[string]interface{}{
			"alertId":         alert.ID,
			"type":            string(alert.Type),
			"escalationLevel": level,
		},
	}, nil
}

// RenderNotice 生成确认、解决通知内容
func RenderNotice(alert *model.Alert, kind NoticeKind, operator, reason string, at time.Time) (*notifier.Message, error) {
	var buf bytes.Buffer
	err := noticeTmpl.Execute(&buf, struct {
		Action   string
		Alert    *model.Alert
		Operator string
		Reason   string
		At       time.Time
	}{kind.Title(), alert, operator, reason, at})
	if err != nil {
		return nil, err
	}
	return &notifier.Message{
		ID:        alert.ID,
		Title:     kind.Title() + ": " + alert.Title,
		Content:   buf.String(),
		Level:     string(kind.Severity()),
		CreatedAt: at,
		Data: map[string]interface{}{
			"alertId": alert.ID,
			"notice":  string(kind),
		},
	}, nil
}
