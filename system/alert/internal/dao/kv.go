package dao

import (
	"context"
	"time"
)

// KVStore 告警持久化端口，ttl 为 0 表示不过期。
// Get 在键不存在时返回 NotFound 错误，可用 errorc.IsNotFound 判断。
type KVStore interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	AddToSet(ctx context.Context, setKey, member string) error
	RemoveFromSet(ctx context.Context, setKey, member string) error
	MembersOf(ctx context.Context, setKey string) ([]string, error)
	KeysMatching(ctx context.Context, prefix string) ([]string, error)
}

// IndexedWriter 可选能力：记录与索引成员关系在一次原子操作中写入
type IndexedWriter interface {
	// PutIndexed 写入记录，inIndex 为 true 时加入索引，否则移出索引
	PutIndexed(ctx context.Context, key string, value []byte, ttl time.Duration, setKey, member string, inIndex bool) error
	DeleteIndexed(ctx context.Context, key, setKey, member string) error
}
