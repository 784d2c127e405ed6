package http

import (
	"context"
	"strconv"

	errorc "alerthub/pkg/core/err"
	"alerthub/pkg/core/logger"
	"alerthub/pkg/core/result"
	"alerthub/pkg/core/util"
	"alerthub/system/alert/api/dto"
	internalapp "alerthub/system/alert/internal/app"
	"alerthub/system/alert/internal/model"
	"alerthub/utils"

	"github.com/gofiber/fiber/v2"
)

type maintenanceManager interface {
	CreateWindow(ctx context.Context, w *model.MaintenanceWindow) error
	DeleteWindow(ctx context.Context, id int64) error
	ListWindows(ctx context.Context) ([]*model.MaintenanceWindow, error)
}

// MaintenanceController 维护窗口后台管理，未启用数据库时所有接口返回不可用
type MaintenanceController struct {
	app *internalapp.App
	err *errorc.ErrorBuilder
	log *logger.Log
}

func NewMaintenanceController(app *internalapp.App) *MaintenanceController {
	return &MaintenanceController{
		app: app,
		err: errorc.NewErrorBuilder("MaintenanceController"),
		log: logger.GetLogger().WithEntryName("MaintenanceController"),
	}
}

func (c *MaintenanceController) RegisterRoutes(admin fiber.Router) {
	router := admin.Group("/alert-maintenance-windows")
	router.Post("/", c.Create)
	router.Get("/", c.List)
	router.Delete("/:id", c.Delete)
}

func (c *MaintenanceController) manager(ctx *fiber.Ctx) (maintenanceManager, error) {
	m, ok := c.app.Maintenance().(maintenanceManager)
	if !ok {
		return nil, c.err.New("维护窗口功能未启用", nil).Unavailable().WithTraceID(util.Context(ctx))
	}
	return m, nil
}

// Create 创建维护窗口
func (c *MaintenanceController) Create(ctx *fiber.Ctx) error {
	m, err := c.manager(ctx)
	if err != nil {
		return err
	}

	var req dto.MaintenanceWindowReq
	if err := ctx.BodyParser(&req); err != nil {
		return c.err.New("解析请求参数失败", err).Valid().WithTraceID(util.Context(ctx)).ToLog(c.log.GetLogger())
	}
	if errMsg, err := utils.Validate(&req); err != nil {
		return c.err.New(errMsg, err).Valid().WithTraceID(util.Context(ctx))
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return c.err.New("开始时间和结束时间不能为空", nil).Valid().WithTraceID(util.Context(ctx))
	}

	w := &model.MaintenanceWindow{
		Name:      req.Name,
		StartTime: req.StartTime.Time,
		EndTime:   req.EndTime.Time,
		AlertType: req.AlertType,
		Source:    req.Source,
		Comment:   req.Comment,
	}
	if err := m.CreateWindow(util.Context(ctx), w); err != nil {
		return err
	}
	return result.OK(ctx, w)
}

// List 当前及未来的维护窗口
func (c *MaintenanceController) List(ctx *fiber.Ctx) error {
	m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	windows, err := m.ListWindows(util.Context(ctx))
	if err != nil {
		return err
	}
	return result.OK(ctx, fiber.Map{
		"total":   len(windows),
		"content": windows,
	})
}

func (c *MaintenanceController) Delete(ctx *fiber.Ctx) error {
	m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return c.err.New("ID参数错误", err).Valid().WithTraceID(util.Context(ctx))
	}
	return result.Once(ctx, "删除成功", m.DeleteWindow(util.Context(ctx), id))
}
