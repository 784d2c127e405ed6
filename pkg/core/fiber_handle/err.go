package fiber_handle

import (
	"errors"

	errorc "alerthub/pkg/core/err"

	"github.com/gofiber/fiber/v2"
)

// ErrHandler 业务错误统一返回 200，由 status 字段携带错误码
func ErrHandler(ctx *fiber.Ctx, err error) error {
	var e *fiber.Error
	if errors.As(err, &e) {
		return ctx.Status(e.Code).SendString(e.Message)
	}

	cError := errorc.ParseError(err)
	msg := cError.Msg
	if msg == "" {
		msg = cError.Error()
	}
	return ctx.Status(200).JSON(fiber.Map{"status": cError.Code, "message": msg, "traceId": cError.TraceID})
}
