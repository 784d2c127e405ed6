package fiber_handle

import (
	"context"

	"alerthub/pkg/core/consts"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/satori/go.uuid"
)

// NewTrace 为每个请求生成或透传追踪ID，并回写到响应头
func NewTrace() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(consts.TraceHeaderName)
		if traceID == "" {
			traceID = uuid.NewV4().String()
		}
		c.SetUserContext(context.WithValue(c.UserContext(), consts.TraceKey, traceID))
		c.Locals(consts.TraceKey, traceID)
		c.Set(consts.TraceHeaderName, traceID)
		return c.Next()
	}
}
