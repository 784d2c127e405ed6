package alert

import (
	controller "alerthub/system/alert/external/http"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册告警组件的所有 HTTP 路由
func RegisterRoutes(m *Module, api, admin fiber.Router) {
	controller.NewAlertController(m.internalApp).RegisterRoutes(api)

	// 维护窗口管理
	controller.NewMaintenanceController(m.internalApp).RegisterRoutes(admin)
}
