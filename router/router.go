package router

import (
	"alerthub/app"
	"alerthub/base"
	"alerthub/system/alert"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register 负责集中注册所有 HTTP 路由，只做分组与路由绑定
func Register(a *app.App, f *fiber.App) {
	api := f.Group("/api")

	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"msg": "ok"})
	})

	admin := f.Group("/admin")

	// 告警组件路由
	alert.RegisterRoutes(a.AlertModule, api, admin)

	f.Get("/metrics", MetricsHandler(base.Metrics))
}

// MetricsHandler 暴露 prometheus 指标，gatherer 为空时使用默认注册表
func MetricsHandler(gatherer prometheus.Gatherer) fiber.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
