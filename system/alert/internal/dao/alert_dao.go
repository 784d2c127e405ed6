package dao

import (
	"context"
	"sort"
	"strings"
	"time"

	"alerthub/pkg/core/consts"
	errorc "alerthub/pkg/core/err"
	"alerthub/pkg/core/logger"
	"alerthub/system/alert/internal/model"

	jsoniter "github.com/json-iterator/go"
)

// AlertDao 告警记录读写，底层为 KVStore。
// 未解决的记录不过期，已解决的记录带 resolvedTTL。
type AlertDao struct {
	store       KVStore
	prefix      string
	resolvedTTL time.Duration
	log         *logger.Log
	err         *errorc.ErrorBuilder
}

func NewAlertDao(store KVStore, prefix string, resolvedTTL time.Duration, log *logger.Log) *AlertDao {
	return &AlertDao{
		store:       store,
		prefix:      prefix,
		resolvedTTL: resolvedTTL,
		log:         log.WithEntryName("AlertDao"),
		err:         errorc.NewErrorBuilder("AlertDao"),
	}
}

func (d *AlertDao) alertKey(id string) string {
	return d.prefix + consts.AlertKeyPrefix + id
}

func (d *AlertDao) activeKey() string {
	return d.prefix + consts.ActiveAlertsSetKey
}

// Put 写入完整记录，同时维护活跃索引
func (d *AlertDao) Put(ctx context.Context, alert *model.Alert) error {
	data, err := jsoniter.Marshal(alert)
	if err != nil {
		return d.err.New("序列化告警失败", err)
	}

	var ttl time.Duration
	if alert.Resolved {
		ttl = d.resolvedTTL
	}
	key := d.alertKey(alert.ID)
	active := !alert.Resolved

	if w, ok := d.store.(IndexedWriter); ok {
		if err := w.PutIndexed(ctx, key, data, ttl, d.activeKey(), alert.ID, active); err != nil {
			return d.err.New("保存告警失败", err).DB()
		}
		return nil
	}

	if err := d.store.Put(ctx, key, data, ttl); err != nil {
		return d.err.New("保存告警失败", err).DB()
	}
	if active {
		err = d.store.AddToSet(ctx, d.activeKey(), alert.ID)
	} else {
		err = d.store.RemoveFromSet(ctx, d.activeKey(), alert.ID)
	}
	if err != nil {
		return d.err.New("更新活跃告警索引失败", err).DB()
	}
	return nil
}

func (d *AlertDao) Get(ctx context.Context, id string) (*model.Alert, error) {
	data, err := d.store.Get(ctx, d.alertKey(id))
	if err != nil {
		if errorc.IsNotFound(err) {
			return nil, d.err.New("告警不存在", err).NotFound()
		}
		return nil, d.err.New("读取告警失败", err).DB()
	}
	var alert model.Alert
	if err := jsoniter.Unmarshal(data, &alert); err != nil {
		return nil, d.err.New("解析告警记录失败", err)
	}
	return &alert, nil
}

// ListActive 通过活跃索引读取，索引中残留的无效成员顺带清理
func (d *AlertDao) ListActive(ctx context.Context) ([]*model.Alert, error) {
	ids, err := d.store.MembersOf(ctx, d.activeKey())
	if err != nil {
		return nil, d.err.New("读取活跃告警索引失败", err).DB()
	}

	alerts := make([]*model.Alert, 0, len(ids))
	for _, id := range ids {
		alert, err := d.Get(ctx, id)
		if err != nil {
			if errorc.IsNotFound(err) {
				d.log.WithAlert(id).Warn("活跃索引中的告警记录已不存在，移出索引")
				if rmErr := d.store.RemoveFromSet(ctx, d.activeKey(), id); rmErr != nil {
					d.log.WithAlert(id).WithErr(rmErr).Error("移出活跃索引失败")
				}
				continue
			}
			return nil, err
		}
		if alert.Resolved {
			continue
		}
		alerts = append(alerts, alert)
	}
	SortNewestFirst(alerts)
	return alerts, nil
}

func (d *AlertDao) Delete(ctx context.Context, id string) error {
	key := d.alertKey(id)
	if w, ok := d.store.(IndexedWriter); ok {
		if err := w.DeleteIndexed(ctx, key, d.activeKey(), id); err != nil {
			return d.err.New("删除告警失败", err).DB()
		}
		return nil
	}
	if err := d.store.Delete(ctx, key); err != nil {
		return d.err.New("删除告警失败", err).DB()
	}
	if err := d.store.RemoveFromSet(ctx, d.activeKey(), id); err != nil {
		return d.err.New("更新活跃告警索引失败", err).DB()
	}
	return nil
}

// ListAll 按创建时间倒序返回最多 limit 条，limit <= 0 时不限制
func (d *AlertDao) ListAll(ctx context.Context, limit int) ([]*model.Alert, error) {
	alerts, err := d.ListAllUnbounded(ctx)
	if err != nil {
		return nil, err
	}
	SortNewestFirst(alerts)
	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}

// ListAllUnbounded 扫描全部告警记录，供清理任务使用
func (d *AlertDao) ListAllUnbounded(ctx context.Context) ([]*model.Alert, error) {
	prefix := d.prefix + consts.AlertKeyPrefix
	keys, err := d.store.KeysMatching(ctx, prefix)
	if err != nil {
		return nil, d.err.New("扫描告警记录失败", err).DB()
	}

	alerts := make([]*model.Alert, 0, len(keys))
	for _, key := range keys {
		alert, err := d.Get(ctx, strings.TrimPrefix(key, prefix))
		if err != nil {
			// 扫描与读取之间过期
			if errorc.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func SortNewestFirst(alerts []*model.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Timestamp.Equal(alerts[j].Timestamp) {
			return alerts[i].ID > alerts[j].ID
		}
		return alerts[i].Timestamp.After(alerts[j].Timestamp)
	})
}
