package dao

import (
	"context"
	"fmt"
	"testing"
	"time"

	"alerthub/pkg/clock"
	errorc "alerthub/pkg/core/err"
	"alerthub/pkg/core/logger"
	"alerthub/system/alert/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainKV 隐藏 IndexedWriter，走逐条写入的分支
type plainKV struct {
	KVStore
}

var base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newAlert(id string, offset time.Duration) *model.Alert {
	return &model.Alert{
		ID:        id,
		Type:      model.AlertTypeDatabaseError,
		Severity:  model.SeverityHigh,
		Title:     "数据库错误",
		Message:   "连接失败",
		Source:    "database",
		Timestamp: base.Add(offset),
		Metadata:  map[string]interface{}{},
	}
}

func daoVariants(c clock.Clock) map[string]KVStore {
	return map[string]KVStore{
		"indexed": NewMemoryKV(c),
		"plain":   plainKV{NewMemoryKV(c)},
	}
}

func TestAlertDaoPutGet(t *testing.T) {
	for name, kv := range daoVariants(nil) {
		t.Run(name, func(t *testing.T) {
			d := NewAlertDao(kv, "test:", 7*24*time.Hour, logger.GetLogger())
			ctx := context.Background()

			a := newAlert("ALERT-1", 0)
			a.NotificationsSent = []string{"email:a@example.com:2026-05-01T12:00:00Z"}
			require.NoError(t, d.Put(ctx, a))

			got, err := d.Get(ctx, "ALERT-1")
			require.NoError(t, err)
			assert.Equal(t, a.ID, got.ID)
			assert.Equal(t, a.NotificationsSent, got.NotificationsSent)
			assert.True(t, got.Timestamp.Equal(a.Timestamp))

			_, err = d.Get(ctx, "missing")
			assert.True(t, errorc.IsNotFound(err))
		})
	}
}

func TestAlertDaoActiveIndex(t *testing.T) {
	for name, kv := range daoVariants(nil) {
		t.Run(name, func(t *testing.T) {
			d := NewAlertDao(kv, "", time.Hour, logger.GetLogger())
			ctx := context.Background()

			require.NoError(t, d.Put(ctx, newAlert("A", 0)))
			require.NoError(t, d.Put(ctx, newAlert("B", time.Minute)))

			active, err := d.ListActive(ctx)
			require.NoError(t, err)
			require.Len(t, active, 2)
			assert.Equal(t, "B", active[0].ID)

			resolved := newAlert("A", 0)
			resolved.Resolved = true
			now := base.Add(time.Hour)
			resolved.ResolvedAt = &now
			require.NoError(t, d.Put(ctx, resolved))

			active, err = d.ListActive(ctx)
			require.NoError(t, err)
			require.Len(t, active, 1)
			assert.Equal(t, "B", active[0].ID)

			require.NoError(t, d.Delete(ctx, "B"))
			active, err = d.ListActive(ctx)
			require.NoError(t, err)
			assert.Empty(t, active)
		})
	}
}

func TestAlertDaoResolvedRecordsExpire(t *testing.T) {
	c := clock.NewFake(base)
	kv := NewMemoryKV(c)
	d := NewAlertDao(kv, "", 48*time.Hour, logger.GetLogger())
	ctx := context.Background()

	open := newAlert("OPEN", -10*24*time.Hour)
	require.NoError(t, d.Put(ctx, open))

	done := newAlert("DONE", 0)
	done.Resolved = true
	done.ResolvedAt = &base
	require.NoError(t, d.Put(ctx, done))

	c.Advance(49 * time.Hour)

	_, err := d.Get(ctx, "DONE")
	assert.True(t, errorc.IsNotFound(err))
	_, err = d.Get(ctx, "OPEN")
	assert.NoError(t, err)
}

func TestAlertDaoListActivePrunesStaleMembers(t *testing.T) {
	kv := NewMemoryKV(nil)
	d := NewAlertDao(kv, "", time.Hour, logger.GetLogger())
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, newAlert("A", 0)))
	require.NoError(t, kv.Delete(ctx, "alert:A"))

	active, err := d.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	members, _ := kv.MembersOf(ctx, "active_alerts")
	assert.Empty(t, members)
}

func TestAlertDaoListAll(t *testing.T) {
	kv := NewMemoryKV(nil)
	d := NewAlertDao(kv, "p:", time.Hour, logger.GetLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Put(ctx, newAlert(fmt.Sprintf("A%d", i), time.Duration(i)*time.Minute)))
	}
	// 前缀之外的键不应被扫描到
	require.NoError(t, kv.Put(ctx, "other:alert:X", []byte("{}"), 0))

	all, err := d.ListAll(ctx, 3)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"A4", "A3", "A2"}, []string{all[0].ID, all[1].ID, all[2].ID})

	all, err = d.ListAll(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
