package config

import (
	"strings"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Enable   bool   `yaml:"enable"`
	Mode     string `yaml:"mode"`
	Host     string `yaml:"host"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// MasterName 哨兵模式下的主节点名称
	MasterName string `yaml:"master-name"`
}

// InitRDB mode=single 为单机，其余按哨兵模式连接
func InitRDB(redisConfig RedisConfig) *redis.Client {
	if redisConfig.Mode == "single" {
		return redis.NewClient(&redis.Options{
			Addr:     redisConfig.Host,
			Password: redisConfig.Password,
			DB:       redisConfig.DB,
		})
	}

	masterName := redisConfig.MasterName
	if masterName == "" {
		masterName = "mymaster"
	}
	return redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       masterName,
		SentinelAddrs:    strings.Split(redisConfig.Host, ","),
		Password:         redisConfig.Password,
		SentinelPassword: redisConfig.Password,
		DB:               redisConfig.DB,
	})
}
