package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"alerthub/app"
	"alerthub/base"
	"alerthub/pkg/core/start"
	"alerthub/pkg/core/system"
	"alerthub/pkg/notifier"
	"alerthub/pkg/scheduler"
	"alerthub/router"
	"alerthub/system/alert"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	env, filename := getBaseInfo()

	file, err := os.ReadFile(filename)
	if err != nil {
		panic(fmt.Sprintf("读取配置文件失败,因为：%v", err))
	}

	configures := start.NewConfigures(file, env)
	base.Configures = configures
	base.Logger = configures.Logger
	base.ENV = env
	cfg := configures.Config

	zapLogger, err := createZapLogger(env)
	if err != nil {
		configures.Logger.Panic(fmt.Sprintf("创建 zap logger 失败: %v", err))
	}

	base.Metrics = prometheus.NewRegistry()
	base.Metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	schedulerConfig := scheduler.DefaultSchedulerConfig()
	if cfg.Redis.Enable {
		base.RDB = configures.EnableRedis()
		base.Cache = configures.EnableCache(base.RDB)
		base.Locker = configures.EnableLocker(base.RDB)
		schedulerConfig.Locker = scheduler.NewRedisLocker(base.Locker)
	}

	base.DB = configures.EnableDB()
	if base.DB != nil {
		// 执行数据库迁移
		if err := alert.AutoMigrate(base.DB, base.Logger); err != nil {
			configures.Logger.Panic(fmt.Sprintf("数据库迁移失败: %v", err))
		}
	}

	base.MQ = configures.EnableRocketMQ()

	base.Scheduler = scheduler.NewScheduler(schedulerConfig)
	if err := base.Scheduler.Start(); err != nil {
		configures.Logger.Panic(fmt.Sprintf("启动调度器失败: %v", err))
	}

	if env == "dev" && base.DB != nil {
		// 开发环境下添加数据库保活任务，防止代理超时导致连接断开
		keepAliveTask := scheduler.NewIntervalTask(
			"数据库连接保活",
			time.Now(),
			10*time.Second,
			scheduler.TaskExecuteModeLocal,
			5*time.Second,
			func(ctx context.Context) error {
				sqlDB, err := base.DB.DB()
				if err != nil {
					base.Logger.WithErr(err).Error("获取数据库连接失败")
					return err
				}
				if err := sqlDB.PingContext(ctx); err != nil {
					base.Logger.WithErr(err).Error("数据库Ping失败")
					return err
				}
				return nil
			},
		)
		if err := base.Scheduler.AddTask(keepAliveTask); err != nil {
			configures.Logger.Panic(fmt.Sprintf("添加数据库保活任务失败: %v", err))
		}
		base.Logger.Info("已启动数据库保活任务，每10秒执行一次")
	}

	base.Notifiers = notifier.NewManager(notifier.ManagerConfig{
		Logger:      zapLogger,
		SendTimeout: cfg.Alert.SendTimeout,
	})
	if base.Notifiers.Load(cfg.Notifiers) == 0 {
		base.Logger.Warn("没有启用任何通知渠道")
	}

	// 创建应用组合根
	appRoot := app.NewApp()
	if err := appRoot.AlertModule.Start(context.Background()); err != nil {
		configures.Logger.Panic(fmt.Sprintf("启动告警组件失败: %v", err))
	}

	// 创建 Fiber 应用
	fiberApp := app.GetApp()

	// 注册路由
	router.Register(appRoot, fiberApp)

	// 退出钩子按注册的逆序执行：先停止接收请求，再停止告警与调度，最后关闭消息生产者
	system.RegisterClose(func() {
		if base.MQ != nil {
			if err := base.MQ.Shutdown(); err != nil {
				base.Logger.WithErr(err).Error("关闭rocketmq生产者失败")
			}
		}
		_ = zapLogger.Sync()
	})
	system.RegisterClose(func() {
		_ = base.Scheduler.Stop()
	})
	system.RegisterClose(appRoot.AlertModule.Stop)
	system.RegisterClose(func() {
		if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
			base.Logger.WithErr(err).Error("关闭HTTP服务失败")
		}
	})
	system.WaitSignal()

	if err := fiberApp.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		base.Logger.WithErr(err).Fatal("HTTP服务异常退出")
	}
	// 等待退出钩子执行完毕后由信号处理退出进程
	select {}
}

func getBaseInfo() (string, string) {
	// 定义命令行参数
	env := flag.String("env", "dev", "环境配置 (dev, prod, test等)")
	configFile := flag.String("config", "", "配置文件路径，默认为 ./resources/{env}.yaml")

	flag.Parse()

	// 如果没有指定配置文件路径，则使用默认路径
	var filename string
	if *configFile == "" {
		getwd, err := os.Getwd()
		if err != nil {
			panic(fmt.Sprintf("获取当前文件位置失败,因为：%v", err))
		}
		filename = getwd + "/resources/" + *env + ".yaml"
	} else {
		filename = *configFile
	}
	return *env, filename
}

// createZapLogger 创建通知渠道使用的 zap logger
func createZapLogger(env string) (*zap.Logger, error) {
	var config zap.Config

	if env == "prod" {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	} else {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	// 设置时间格式
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return config.Build()
}
