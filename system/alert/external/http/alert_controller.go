package http

import (
	"strconv"

	errorc "alerthub/pkg/core/err"
	"alerthub/pkg/core/logger"
	"alerthub/pkg/core/result"
	"alerthub/pkg/core/util"
	"alerthub/system/alert/api/dto"
	internalapp "alerthub/system/alert/internal/app"
	"alerthub/utils"

	"github.com/gofiber/fiber/v2"
)

// AlertController 告警接口控制器
type AlertController struct {
	app *internalapp.App
	err *errorc.ErrorBuilder
	log *logger.Log
}

func NewAlertController(app *internalapp.App) *AlertController {
	return &AlertController{
		app: app,
		err: errorc.NewErrorBuilder("AlertController"),
		log: logger.GetLogger().WithEntryName("AlertController"),
	}
}

// RegisterRoutes 注册路由，固定路径需在 /:id 之前注册
func (c *AlertController) RegisterRoutes(api fiber.Router) {
	router := api.Group("/alerts")
	router.Post("/", c.Create)
	router.Get("/active", c.ListActive)
	router.Get("/history", c.History)
	router.Get("/rules", c.ListRules)
	router.Get("/:id", c.Get)
	router.Post("/:id/acknowledge", c.Acknowledge)
	router.Post("/:id/resolve", c.Resolve)
}

// Create 创建告警
func (c *AlertController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateAlertReq
	if err := ctx.BodyParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).Valid().WithTraceID(util.Context(ctx)).ToLog(c.log.GetLogger())
	}
	if errMsg, err := utils.Validate(&req); err != nil {
		return c.err.New(errMsg, err).Valid().WithTraceID(util.Context(ctx))
	}

	alert, err := c.app.CreateAlert(util.Context(ctx), internalapp.ToAlertInput(&req))
	if err != nil {
		return err
	}
	return result.OK(ctx, internalapp.ToAlertDTO(alert))
}

func (c *AlertController) ListActive(ctx *fiber.Ctx) error {
	alerts, err := c.app.GetActiveAlerts(util.Context(ctx))
	if err != nil {
		return err
	}
	return result.OK(ctx, fiber.Map{
		"total":   len(alerts),
		"content": internalapp.ToAlertDTOs(alerts),
	})
}

// History limit 未传或非法时使用默认值
func (c *AlertController) History(ctx *fiber.Ctx) error {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.err.New("limit参数错误", err).Valid().WithTraceID(util.Context(ctx))
		}
		limit = n
	}

	alerts, err := c.app.GetAlertHistory(util.Context(ctx), limit)
	if err != nil {
		return err
	}
	return result.OK(ctx, fiber.Map{
		"total":   len(alerts),
		"content": internalapp.ToAlertDTOs(alerts),
	})
}

func (c *AlertController) ListRules(ctx *fiber.Ctx) error {
	rules := c.app.ListRules()
	out := make([]*dto.AlertRuleDTO, 0, len(rules))
	for _, r := range rules {
		out = append(out, internalapp.ToRuleDTO(r))
	}
	return result.OK(ctx, out)
}

func (c *AlertController) Get(ctx *fiber.Ctx) error {
	alert, err := c.app.GetAlert(util.Context(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return result.OK(ctx, internalapp.ToAlertDTO(alert))
}

// Acknowledge 确认告警
func (c *AlertController) Acknowledge(ctx *fiber.Ctx) error {
	var req dto.AcknowledgeReq
	if err := ctx.BodyParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).Valid().WithTraceID(util.Context(ctx)).ToLog(c.log.GetLogger())
	}
	if errMsg, err := utils.Validate(&req); err != nil {
		return c.err.New(errMsg, err).Valid().WithTraceID(util.Context(ctx))
	}

	changed, err := c.app.AcknowledgeAlert(util.Context(ctx), ctx.Params("id"), req.By)
	return result.Once(ctx, dto.TransitionResp{Changed: changed}, err)
}

// Resolve 解决告警
func (c *AlertController) Resolve(ctx *fiber.Ctx) error {
	var req dto.ResolveReq
	if err := ctx.BodyParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).Valid().WithTraceID(util.Context(ctx)).ToLog(c.log.GetLogger())
	}
	if errMsg, err := utils.Validate(&req); err != nil {
		return c.err.New(errMsg, err).Valid().WithTraceID(util.Context(ctx))
	}

	changed, err := c.app.ResolveAlert(util.Context(ctx), ctx.Params("id"), req.By, req.Reason)
	return result.Once(ctx, dto.TransitionResp{Changed: changed}, err)
}
