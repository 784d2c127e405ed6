package fiber_handle

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthProbe 依赖探测，返回 error 表示依赖不可用
type HealthProbe struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthCheckConfig struct {
	Path    string
	Timeout time.Duration
	Probes  []HealthProbe
}

// HealthCheck 所有探测通过返回 200，否则返回 503 并列出失败的依赖
func HealthCheck(config HealthCheckConfig) fiber.Handler {
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Second
	}
	return func(c *fiber.Ctx) error {
		if c.Path() != config.Path {
			return c.Next()
		}
		if len(config.Probes) == 0 {
			return c.Status(fiber.StatusOK).SendString("")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), config.Timeout)
		defer cancel()

		failed := fiber.Map{}
		for _, p := range config.Probes {
			if err := p.Check(ctx); err != nil {
				failed[p.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "failed": failed})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "up"})
	}
}
