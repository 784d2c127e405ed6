package start

import (
	"fmt"

	"alerthub/pkg/core/fiber_handle"
	"alerthub/pkg/core/logger"

	"github.com/gofiber/fiber/v2"
	recover2 "github.com/gofiber/fiber/v2/middleware/recover"
)

// GetApp probes 为 /health 探测的依赖
func GetApp(probes ...fiber_handle.HealthProbe) *fiber.App {
	app := fiber.New(
		fiber.Config{
			BodyLimit:    1 * 1024 * 1024,
			ErrorHandler: fiber_handle.ErrHandler,
		})
	app.Use(fiber_handle.Cors())
	app.Use(recover2.New(recover2.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			logger.GetLogger().WithField("url", c.Path()).Error(fmt.Sprintf("请求崩溃: %+v", e))
		},
	}))
	app.Use(fiber_handle.NewTrace())
	app.Use(fiber_handle.HealthCheck(fiber_handle.HealthCheckConfig{Path: "/health", Probes: probes}))
	return app
}
