package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEscalation(t *testing.T) {
	a := testAlert("ALERT-1", t0)
	msg, err := RenderEscalation(a, 2)
	require.NoError(t, err)

	assert.Equal(t, "🚨 告警升级: 数据库错误", msg.Title)
	assert.Equal(t, "critical", msg.Level)
	assert.Contains(t, msg.Content, "升级级别 2")
	assert.Contains(t, msg.Content, "级别: CRITICAL")
	assert.Contains(t, msg.Content, "来源: orders-db")
	assert.Contains(t, msg.Content, "时间: 2026-04-01T08:00:00Z")
	assert.Contains(t, msg.Content, "详情: 连接超时")
	assert.Contains(t, msg.Content, "POST /api/alerts/ALERT-1/acknowledge")
	assert.Contains(t, msg.Content, "POST /api/alerts/ALERT-1/resolve")
	assert.Equal(t, 2, msg.Data["escalationLevel"])
}

func TestRenderNotice(t *testing.T) {
	a := testAlert("ALERT-1", t0)

	msg, err := RenderNotice(a, NoticeResolved, "李四", "扩容完成", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "告警已解决: 数据库错误", msg.Title)
	assert.Equal(t, "low", msg.Level)
	assert.Contains(t, msg.Content, "处理人: 李四")
	assert.Contains(t, msg.Content, "处理说明: 扩容完成")

	msg, err = RenderNotice(a, NoticeAcknowledged, "李四", "", t0)
	require.NoError(t, err)
	assert.Equal(t, "medium", msg.Level)
	assert.NotContains(t, msg.Content, "处理说明")
}
