package model

// 各类型告警工厂使用的元数据结构，写入 Alert.Metadata 时转换为 map

type SystemFailureMetadata struct {
	Error string
	Stack string
}

func (m SystemFailureMetadata) ToMap() map[string]interface{} {
	out := map[string]interface{}{"error": m.Error}
	if m.Stack != "" {
		out["stack"] = m.Stack
	}
	return out
}

type DatabaseErrorMetadata struct {
	Operation    string
	ErrorMessage string
}

func (m DatabaseErrorMetadata) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"operation":    m.Operation,
		"errorMessage": m.ErrorMessage,
	}
}

type PerformanceMetadata struct {
	Metric    string
	Value     float64
	Threshold float64
}

func (m PerformanceMetadata) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"metric":    m.Metric,
		"value":     m.Value,
		"threshold": m.Threshold,
	}
}

// SecurityBreachMetadata 细节由调用方提供，原样保存
type SecurityBreachMetadata struct {
	Details map[string]interface{}
}

func (m SecurityBreachMetadata) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(m.Details))
	for k, v := range m.Details {
		out[k] = v
	}
	return out
}

type ResourceMetadata struct {
	Resource string
	Usage    float64
	Limit    float64
}

func (m ResourceMetadata) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"resource": m.Resource,
		"usage":    m.Usage,
		"limit":    m.Limit,
	}
}

type APIErrorRateMetadata struct {
	Endpoint  string
	ErrorRate float64
	Threshold float64
}

func (m APIErrorRateMetadata) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"endpoint":  m.Endpoint,
		"errorRate": m.ErrorRate,
		"threshold": m.Threshold,
	}
}
