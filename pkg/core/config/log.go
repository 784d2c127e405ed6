package config

type LogConfig struct {
	Level string `yaml:"level"`
	// Format console 或 json，仅影响 zap 日志
	Format string `yaml:"format"`
}
