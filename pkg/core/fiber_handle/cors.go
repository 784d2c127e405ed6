package fiber_handle

import (
	"strings"

	"alerthub/pkg/core/consts"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// Cors 告警接口只有查询、创建、确认、解决和删除维护窗口
func Cors() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodDelete, fiber.MethodOptions}, ","),
		AllowHeaders:  strings.Join([]string{fiber.HeaderContentType, consts.TraceHeaderName}, ","),
		ExposeHeaders: consts.TraceHeaderName,
		MaxAge:        1800,
	})
}
