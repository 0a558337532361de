package config

import (
	"fmt"
	"strings"

	"github.com/nodewee/doc-translate-prep/pkg/batcher"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

// ConfigValidator 配置验证器
type ConfigValidator struct{}

// NewConfigValidator 创建配置验证器
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// Validate 验证配置，汇总所有错误后一并返回
func (v *ConfigValidator) Validate(c *Config) error {
	var errors []string

	// 验证批处理参数
	if err := v.validateBatching(c); err != nil {
		errors = append(errors, err.Error())
	}

	// 验证数值参数
	if err := v.validateNumericValues(c); err != nil {
		errors = append(errors, err.Error())
	}

	// 验证日志级别
	if err := v.validateLogLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	// 验证语言映射
	if err := v.validateLanguages(c.Languages); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return utils.NewValidationError("configuration validation failed",
			fmt.Errorf("validation errors: %s", strings.Join(errors, "; ")))
	}

	return nil
}

// validateBatching 验证分批参数
func (v *ConfigValidator) validateBatching(c *Config) error {
	var problems []string
	if c.GroupSize < 1 {
		problems = append(problems, "group size must be at least 1")
	}
	if c.MaxSize < 1 {
		problems = append(problems, "max size must be at least 1")
	}
	if _, err := batcher.MetricByName(c.SizeMetric); err != nil {
		problems = append(problems, fmt.Sprintf("invalid size metric: %s", c.SizeMetric))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// validateNumericValues 验证数值参数
func (v *ConfigValidator) validateNumericValues(c *Config) error {
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be at least 1")
	}
	if c.MaxConcurrency > 20 {
		return fmt.Errorf("max concurrency should not exceed 20")
	}
	if c.TimeoutMinutes < 1 {
		return fmt.Errorf("timeout must be at least 1 minute")
	}

	return nil
}

// validateLogLevel 验证日志级别
func (v *ConfigValidator) validateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}

	for _, valid := range validLevels {
		if strings.ToLower(level) == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid log level: %s", level)
}

// validateLanguages 验证语言代码覆盖
func (v *ConfigValidator) validateLanguages(languages map[string]string) error {
	for name, code := range languages {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("language override with empty name")
		}
		if strings.TrimSpace(code) == "" || strings.ContainsAny(code, `./\ `) {
			return fmt.Errorf("invalid language code for %s: %q", name, code)
		}
	}
	return nil
}
