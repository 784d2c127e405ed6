package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	errorc "alerthub/pkg/core/err"

	"github.com/redis/go-redis/v9"
)

// RedisKV 基于 redis 的持久化实现，记录与索引的联合写入走 MULTI
type RedisKV struct {
	rdb redis.UniversalClient
	err *errorc.ErrorBuilder
}

func NewRedisKV(rdb redis.UniversalClient) *RedisKV {
	return &RedisKV{
		rdb: rdb,
		err: errorc.NewErrorBuilder("RedisKV"),
	}
}

func (r *RedisKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return r.err.New("写入redis失败", err).DB()
	}
	return nil
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, r.err.New("键不存在: "+key, err).NotFound()
		}
		return nil, r.err.New("读取redis失败", err).DB()
	}
	return data, nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return r.err.New("删除redis键失败", err).DB()
	}
	return nil
}

func (r *RedisKV) AddToSet(ctx context.Context, setKey, member string) error {
	if err := r.rdb.SAdd(ctx, setKey, member).Err(); err != nil {
		return r.err.New("写入集合失败", err).DB()
	}
	return nil
}

func (r *RedisKV) RemoveFromSet(ctx context.Context, setKey, member string) error {
	if err := r.rdb.SRem(ctx, setKey, member).Err(); err != nil {
		return r.err.New("移除集合成员失败", err).DB()
	}
	return nil
}

func (r *RedisKV) MembersOf(ctx context.Context, setKey string) ([]string, error) {
	members, err := r.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, r.err.New("读取集合失败", err).DB()
	}
	return members, nil
}

// KeysMatching 使用 SCAN 遍历，不阻塞 redis
func (r *RedisKV) KeysMatching(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.rdb.Scan(ctx, 0, escapeGlob(prefix)+"*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, r.err.New("扫描redis键失败", err).DB()
	}
	return keys, nil
}

func (r *RedisKV) PutIndexed(ctx context.Context, key string, value []byte, ttl time.Duration, setKey, member string, inIndex bool) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, ttl)
		if inIndex {
			pipe.SAdd(ctx, setKey, member)
		} else {
			pipe.SRem(ctx, setKey, member)
		}
		return nil
	})
	if err != nil {
		return r.err.New("写入告警记录失败", err).DB()
	}
	return nil
}

func (r *RedisKV) DeleteIndexed(ctx context.Context, key, setKey, member string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, setKey, member)
		return nil
	})
	if err != nil {
		return r.err.New("删除告警记录失败", err).DB()
	}
	return nil
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
