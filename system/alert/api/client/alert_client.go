package client

import (
	"context"

	errorc "alerthub/pkg/core/err"
	"alerthub/system/alert/api/dto"
	"alerthub/system/alert/internal/app"
	"alerthub/system/alert/internal/model"
)

// AlertClient 告警组件对外客户端，供进程内其他组件上报和处理告警
type AlertClient struct {
	app *app.App
	err *errorc.ErrorBuilder
}

func NewAlertClient(app *app.App) *AlertClient {
	return &AlertClient{
		app: app,
		err: errorc.NewErrorBuilder("AlertClient"),
	}
}

// CreateAlert 创建告警，返回第一轮升级完成后的告警
func (c *AlertClient) CreateAlert(ctx context.Context, req *dto.CreateAlertReq) (*dto.AlertDTO, error) {
	if req == nil {
		return nil, c.err.New("告警参数不能为空", nil).Valid()
	}
	alert, err := c.app.CreateAlert(ctx, app.ToAlertInput(req))
	if err != nil {
		return nil, err
	}
	return app.ToAlertDTO(alert), nil
}

func (c *AlertClient) AcknowledgeAlert(ctx context.Context, id, by string) (bool, error) {
	return c.app.AcknowledgeAlert(ctx, id, by)
}

func (c *AlertClient) ResolveAlert(ctx context.Context, id, by, reason string) (bool, error) {
	return c.app.ResolveAlert(ctx, id, by, reason)
}

func (c *AlertClient) GetActiveAlerts(ctx context.Context) ([]*dto.AlertDTO, error) {
	alerts, err := c.app.GetActiveAlerts(ctx)
	if err != nil {
		return nil, err
	}
	return app.ToAlertDTOs(alerts), nil
}

func (c *AlertClient) GetAlertHistory(ctx context.Context, limit int) ([]*dto.AlertDTO, error) {
	alerts, err := c.app.GetAlertHistory(ctx, limit)
	if err != nil {
		return nil, err
	}
	return app.ToAlertDTOs(alerts), nil
}

func (c *AlertClient) GetAlert(ctx context.Context, id string) (*dto.AlertDTO, error) {
	alert, err := c.app.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	return app.ToAlertDTO(alert), nil
}

func (c *AlertClient) ListRules() []*dto.AlertRuleDTO {
	rules := c.app.ListRules()
	out := make([]*dto.AlertRuleDTO, 0, len(rules))
	for _, r := range rules {
		out = append(out, app.ToRuleDTO(r))
	}
	return out
}

// RegisterRule 运行期追加规则，同类型已有规则时不生效
func (c *AlertClient) RegisterRule(rule *dto.AlertRuleDTO) error {
	if rule == nil {
		return c.err.New("规则不能为空", nil).Valid()
	}
	return c.app.RegisterRule(app.FromRuleDTO(rule))
}

func (c *AlertClient) SystemFailure(ctx context.Context, source string, cause error) (*dto.AlertDTO, error) {
	return wrap(c.app.SystemFailure(ctx, source, cause))
}

func (c *AlertClient) DatabaseError(ctx context.Context, operation string, cause error) (*dto.AlertDTO, error) {
	return wrap(c.app.DatabaseError(ctx, operation, cause))
}

func (c *AlertClient) PerformanceDegradation(ctx context.Context, metric string, value, threshold float64) (*dto.AlertDTO, error) {
	return wrap(c.app.PerformanceDegradation(ctx, metric, value, threshold))
}

func (c *AlertClient) SecurityBreach(ctx context.Context, source string, details map[string]interface{}) (*dto.AlertDTO, error) {
	return wrap(c.app.SecurityBreach(ctx, source, details))
}

func (c *AlertClient) ResourceExhaustion(ctx context.Context, resource string, usage, limit float64) (*dto.AlertDTO, error) {
	return wrap(c.app.ResourceExhaustion(ctx, resource, usage, limit))
}

func (c *AlertClient) APIErrorRate(ctx context.Context, endpoint string, errorRate, threshold float64) (*dto.AlertDTO, error) {
	return wrap(c.app.APIErrorRate(ctx, endpoint, errorRate, threshold))
}

func wrap(alert *model.Alert, err error) (*dto.AlertDTO, error) {
	if err != nil {
		return nil, err
	}
	return app.ToAlertDTO(alert), nil
}
