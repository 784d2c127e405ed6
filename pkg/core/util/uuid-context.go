package util

import (
	"context"

	"alerthub/pkg/core/consts"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/satori/go.uuid"
)

// Context 从请求中取出业务上下文，优先沿用请求头中的追踪ID
func Context(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx.Value(consts.TraceKey) != nil {
		return ctx
	}
	traceID := c.Get(consts.TraceHeaderName)
	if traceID == "" {
		traceID = uuid.NewV4().String()
	}
	return context.WithValue(ctx, consts.TraceKey, traceID)
}
