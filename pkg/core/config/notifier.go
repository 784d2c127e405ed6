package config

// NotifierConfig 单个通知渠道的配置，Config 的键由具体渠道决定
type NotifierConfig struct {
	Type    string                 `yaml:"type"`
	Name    string                 `yaml:"name"`
	Enabled bool                   `yaml:"enabled"`
	Config  map[string]interface{} `yaml:"config"`
}
