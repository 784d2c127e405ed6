package base

import (
	"alerthub/pkg/core/logger"
	"alerthub/pkg/core/rocketmq"
	"alerthub/pkg/core/start"
	"alerthub/pkg/notifier"
	"alerthub/pkg/scheduler"

	"github.com/bsm/redislock"
	"github.com/go-redis/cache/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	Configures *start.Configures
	Logger     *logger.Log
	ENV        string
	// DB 未配置数据库时为 nil，维护窗口功能随之关闭
	DB        *gorm.DB
	RDB       *redis.Client
	Cache     *cache.Cache
	Locker    *redislock.Client
	MQ        *rocketmq.Manager
	Scheduler *scheduler.Scheduler
	Notifiers *notifier.Manager
	Metrics   *prometheus.Registry
)
