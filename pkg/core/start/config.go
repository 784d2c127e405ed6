package start

import (
	"fmt"
	"time"

	"alerthub/pkg/core/config"
	"alerthub/pkg/core/logger"
	"alerthub/pkg/core/rocketmq"

	"github.com/bsm/redislock"
	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type Config struct {
	AppName   string                  `yaml:"app-name"`
	Env       string                  `yaml:"env"`
	Port      int                     `yaml:"port"`
	Log       config.LogConfig        `yaml:"log"`
	Redis     config.RedisConfig      `yaml:"redis"`
	Database  config.Database         `yaml:"db"`
	RocketMQ  config.RocketMQ         `yaml:"rocketmq"`
	Alert     config.AlertConfig      `yaml:"alert"`
	Notifiers []config.NotifierConfig `yaml:"notifiers"`
}

type Configures struct {
	Config Config
	Logger *logger.Log
}

// ParseConfig 解析配置并补齐告警默认值
func ParseConfig(file []byte, env string) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return cfg, err
	}
	cfg.Env = env
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	cfg.Alert = cfg.Alert.WithDefaults()
	return cfg, nil
}

func NewConfigures(file []byte, env string) *Configures {
	cfg, err := ParseConfig(file, env)
	if err != nil {
		panic(fmt.Sprintf("读取文件信息失败，因为%v", err))
	}

	level := cfg.Log.Level
	if level == "" {
		level = "debug"
	}
	return &Configures{
		Config: cfg,
		Logger: logger.InitLogger(level),
	}
}

func (c *Configures) EnableRedis() *redis.Client {
	return config.InitRDB(c.Config.Redis)
}

func (c *Configures) EnableCache(rdb *redis.Client) *cache.Cache {
	return cache.New(&cache.Options{
		Redis:      rdb,
		LocalCache: cache.NewTinyLFU(1000, time.Minute),
	})
}

func (c *Configures) EnableLocker(rdb *redis.Client) *redislock.Client {
	return redislock.New(rdb)
}

// EnableDB 按 driver 选择数据库，未配置时返回 nil
func (c *Configures) EnableDB() *gorm.DB {
	var (
		db  *gorm.DB
		err error
	)
	switch c.Config.Database.Driver {
	case "":
		return nil
	case "postgres":
		db, err = config.InitPg(c.Config.Database)
	default:
		db, err = config.InitMysql(c.Config.Database)
	}
	if err != nil {
		c.Logger.WithField("database", c.Config.Database.Host).WithErr(err).Panic("failed connect database")
	}
	c.Logger.Info("connect database success")
	return db
}

// EnableRocketMQ 未启用时返回 nil
func (c *Configures) EnableRocketMQ() *rocketmq.Manager {
	if !c.Config.RocketMQ.Enable {
		return nil
	}
	m := rocketmq.NewManager(c.Config.RocketMQ, c.Config.Env)
	if err := m.StartProducer(); err != nil {
		c.Logger.WithErr(err).Panic("启动rocketmq生产者失败")
	}
	return m
}
