package config

import (
	"os"
	"strconv"
	"strings"
)

// 环境变量
const (
	// EnvPrefix 环境变量前缀
	EnvPrefix = "ASYNCEVENT_"

	EnvMaxSignal             = "MAX_SIGNAL"
	EnvMaxPending            = "MAX_PENDING"
	EnvSlowCallbackThreshold = "SLOW_CALLBACK_THRESHOLD"
	EnvWorkers               = "WORKERS"
	EnvMetricsEnabled        = "METRICS_ENABLED"
	EnvMetricsNamespace      = "METRICS_NAMESPACE"
	EnvLogFile               = "LOG_FILE"
)

// ApplyEnv 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。无法解析的值被忽略。
// 支持的环境变量（均使用 ASYNCEVENT_ 前缀）：
//   - ASYNCEVENT_MAX_SIGNAL: 最大信号值
//   - ASYNCEVENT_MAX_PENDING: 待处理事件上限
//   - ASYNCEVENT_SLOW_CALLBACK_THRESHOLD: 慢回调阈值（如 "250ms"）
//   - ASYNCEVENT_WORKERS: 自动启动的消费者数量
//   - ASYNCEVENT_METRICS_ENABLED: 启用指标 (true/false)
//   - ASYNCEVENT_METRICS_NAMESPACE: 指标命名空间
//   - ASYNCEVENT_LOG_FILE: 日志文件路径
func ApplyEnv(cfg *Config) {
	applyEnv(cfg, os.Getenv)
}

// applyEnv 使用给定的查找函数应用覆盖（便于测试）
func applyEnv(cfg *Config, getenv func(string) string) {
	if cfg == nil {
		return
	}
	get := func(key string) string {
		return strings.TrimSpace(getenv(EnvPrefix + key))
	}

	if v := get(EnvMaxSignal); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxSignal = n
		}
	}

	if v := get(EnvMaxPending); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxPending = n
		}
	}

	if v := get(EnvSlowCallbackThreshold); v != "" {
		if d, err := ParseDuration(v); err == nil {
			cfg.SlowCallbackThreshold = d
		}
	}

	if v := get(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}

	if v := get(EnvMetricsEnabled); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}

	if v := get(EnvMetricsNamespace); v != "" {
		cfg.Metrics.Namespace = v
	}

	if v := get(EnvLogFile); v != "" {
		cfg.Log.File = v
	}
}

// parseBool 解析布尔值字符串
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
