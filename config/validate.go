package config

import (
	"fmt"
	"strings"
)

// ValidationError 配置校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置错误 [%s]: %s", e.Field, e.Message)
}

// ValidationErrors 多个配置校验错误
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	msgs := make([]string, 0, len(e))
	for i := range e {
		msgs = append(msgs, e[i].Error())
	}
	return strings.Join(msgs, "; ")
}

// HasField 检查是否包含指定字段的错误
func (e ValidationErrors) HasField(field string) bool {
	for i := range e {
		if e[i].Field == field {
			return true
		}
	}
	return false
}

// Validate 校验配置
//
// 一次性收集所有字段错误，返回 ValidationErrors；配置有效时返回 nil。
func (c *Config) Validate() error {
	if c == nil {
		return ValidationErrors{{Field: "config", Message: "配置为空"}}
	}

	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.MaxSignal < 0 {
		add("max_signal", "不能为负数: %d", c.MaxSignal)
	} else if c.MaxSignal > MaxSignalLimit {
		add("max_signal", "超过上限 %d: %d", MaxSignalLimit, c.MaxSignal)
	}

	if c.MaxPending < 0 {
		add("max_pending", "不能为负数: %d", c.MaxPending)
	}

	if c.SlowCallbackThreshold < 0 {
		add("slow_callback_threshold", "不能为负数: %s", c.SlowCallbackThreshold)
	}

	if c.Workers < 0 {
		add("workers", "不能为负数: %d", c.Workers)
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		add("metrics.namespace", "启用指标时不能为空")
	}

	if c.Log.Level != "" {
		switch strings.ToLower(c.Log.Level) {
		case "debug", "info", "warn", "warning", "error":
		default:
			add("log.level", "无效的日志级别: %q", c.Log.Level)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// MustValidate 校验配置，失败时 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := c.Validate(); err != nil {
		panic(err)
	}
}
