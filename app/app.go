package app

import (
	"context"

	"alerthub/base"
	"alerthub/pkg/core/fiber_handle"
	"alerthub/pkg/core/start"
	"alerthub/system/alert"

	"github.com/gofiber/fiber/v2"
)

// App 应用组合根，持有各组件模块
type App struct {
	AlertModule *alert.Module
}

// NewApp 创建组合根，需在 base 中的基础设施初始化之后调用
func NewApp() *App {
	return &App{
		AlertModule: alert.NewModule(),
	}
}

// GetApp 健康检查探测已启用的 redis 与数据库
func GetApp() *fiber.App {
	return start.GetApp(probes()...)
}

func probes() []fiber_handle.HealthProbe {
	var out []fiber_handle.HealthProbe
	if base.RDB != nil {
		out = append(out, fiber_handle.HealthProbe{Name: "redis", Check: func(ctx context.Context) error {
			return base.RDB.Ping(ctx).Err()
		}})
	}
	if base.DB != nil {
		out = append(out, fiber_handle.HealthProbe{Name: "database", Check: func(ctx context.Context) error {
			sqlDB, err := base.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}})
	}
	return out
}
