package app

import (
	"context"
	"fmt"
	"strconv"

	"alerthub/system/alert/internal/model"
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SystemFailure 系统故障
func (a *App) SystemFailure(ctx context.Context, source string, cause error) (*model.Alert, error) {
	errMsg, stack := "未知错误", ""
	if cause != nil {
		errMsg = cause.Error()
		// 带调用栈的错误类型在 %+v 下会输出更多信息
		if detail := fmt.Sprintf("%+v", cause); detail != errMsg {
			stack = detail
		}
	}
	return a.CreateAlert(ctx, model.AlertInput{
		Type:     model.AlertTypeSystemFailure,
		Severity: model.SeverityCritical,
		Title:    "检测到系统故障",
		Message:  fmt.Sprintf("%s 发生严重系统故障: %s", source, errMsg),
		Source:   source,
		Metadata: model.SystemFailureMetadata{Error: errMsg, Stack: stack}.ToMap(),
	})
}

// DatabaseError 数据库操作失败，来源固定为 database
func (a *App) DatabaseError(ctx context.Context, operation string, cause error) (*model.Alert, error) {
	errMsg := "未知错误"
	if cause != nil {
		errMsg = cause.Error()
	}
	return a.CreateAlert(ctx, model.AlertInput{
		Type:     model.AlertTypeDatabaseError,
		Severity: model.SeverityCritical,
		Title:    "数据库错误",
		Message:  fmt.Sprintf("数据库操作失败: %s - %s", operation, errMsg),
		Source:   "database",
		Metadata: model.DatabaseErrorMetadata{Operation: operation, ErrorMessage: errMsg}.ToMap(),
	})
}

// PerformanceDegradation 超过阈值两倍为 critical，否则为 high
func (a *App) PerformanceDegradation(ctx context.Context, metric string, value, threshold float64) (*model.Alert, error) {
	severity := model.SeverityHigh
	if value > threshold*2 {
		severity = model.SeverityCritical
	}
	return a.CreateAlert(ctx, model.AlertInput{
		Type:     model.AlertTypePerformanceDegradation,
		Severity: severity,
		Title:    "性能下降",
		Message:  fmt.Sprintf("%s 当前值 %s，超过阈值 %s", metric, num(value), num(threshold)),
		Source:   "monitoring",
		Metadata: model.PerformanceMetadata{Metric: metric, Value: value, Threshold: threshold}.ToMap(),
	})
}

// SecurityBreach 安全事件一律为 emergency
func (a *App) SecurityBreach(ctx context.Context, source string, details map[string]interface{}) (*model.Alert, error) {
	return a.CreateAlert(ctx, model.AlertInput{
		Type:     model.AlertTypeSecurityBreach,
		Severity: model.SeverityEmergency,
		Title:    "检测到安全入侵",
		Message:  fmt.Sprintf("%s 检测到潜在的安全入侵", source),
		Source:   source,
		Metadata: model.SecurityBreachMetadata{Details: details}.ToMap(),
	})
}

// ResourceExhaustion 使用量超过上限的 95% 为 critical，否则为 high
func (a *App) ResourceExhaustion(ctx context.Context, resource string, usage, limit float64) (*model.Alert, error) {
	severity := model.SeverityHigh
	if usage > limit*0.95 {
		severity = model.SeverityCritical
	}
	return a.CreateAlert(ctx, model.AlertInput{
		Type:     model.AlertTypeResourceExhaustion,
		Severity: severity,
		Title:    "资源即将耗尽",
		Message:  fmt.Sprintf("%s 使用量 %s，上限 %s", resource, num(usage), num(limit)),
		Source:   "system_monitor",
		Metadata: model.ResourceMetadata{Resource: resource, Usage: usage, Limit: limit}.ToMap(),
	})
}

// APIErrorRate 错误率超过阈值两倍为 critical，否则为 high
func (a *App) APIErrorRate(ctx context.Context, endpoint string, errorRate, threshold float64) (*model.Alert, error) {
	severity := model.SeverityHigh
	if errorRate > threshold*2 {
		severity = model.SeverityCritical
	}
	return a.CreateAlert(ctx, model.AlertInput{
		Type:     model.AlertTypeAPIErrorRate,
		Severity: severity,
		Title:    "API错误率过高",
		Message:  fmt.Sprintf("接口 %s 错误率 %s%%（阈值 %s%%）", endpoint, num(errorRate), num(threshold)),
		Source:   "api_monitor",
		Metadata: model.APIErrorRateMetadata{Endpoint: endpoint, ErrorRate: errorRate, Threshold: threshold}.ToMap(),
	})
}
