// Package config 提供 go-asyncevent 配置管理
//
// 配置来源优先级（从高到低）：
//  1. 代码中的 Option / 命令行参数
//  2. 环境变量（ASYNCEVENT_* 前缀，见 ApplyEnv）
//  3. JSON 配置文件（见 LoadFile）
//  4. 默认值（见 NewConfig）
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// 默认值
const (
	// DefaultMaxSignal 默认最大信号值（共 1024 个槽位）
	DefaultMaxSignal = 1023

	// DefaultSlowCallbackThreshold 默认慢回调告警阈值
	DefaultSlowCallbackThreshold = 100 * time.Millisecond

	// DefaultMetricsNamespace 默认指标命名空间
	DefaultMetricsNamespace = "asyncevent"

	// MaxSignalLimit 允许配置的最大信号值上限
	MaxSignalLimit = 1 << 20
)

// Config 调度器配置
type Config struct {
	// MaxSignal 最大有效信号值（含）
	//
	// 绑定表在构造时分配 MaxSignal+1 个槽位。0 表示只有信号 0 有效。
	// 默认: 1023
	MaxSignal int `json:"max_signal"`

	// MaxPending 待处理事件上限
	//
	// 超过上限的 Emit 返回 ErrAllocationFailure，事件被丢弃。
	// 0 表示不限。
	MaxPending int `json:"max_pending"`

	// SlowCallbackThreshold 慢回调告警阈值
	//
	// 回调执行时间超过该值时记录 warn 日志。0 表示禁用。
	// 默认: 100ms
	SlowCallbackThreshold Duration `json:"slow_callback_threshold"`

	// Workers 由 fx 生命周期自动启动的消费者数量
	//
	// 0 表示不自动启动，由调用方自行驱动 Process/Run。
	Workers int `json:"workers"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否启用 Prometheus 指标
	Enabled bool `json:"enabled"`

	// Namespace 指标命名空间
	Namespace string `json:"namespace"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 全局日志级别（debug/info/warn/error），为空时使用环境变量或默认值
	Level string `json:"level,omitempty"`

	// File 日志文件路径，为空时输出到 stderr
	File string `json:"file,omitempty"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		MaxSignal:             DefaultMaxSignal,
		MaxPending:            0,
		SlowCallbackThreshold: Duration(DefaultSlowCallbackThreshold),
		Workers:               0,
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: DefaultMetricsNamespace,
		},
	}
}

// Clone 返回配置副本
func (c *Config) Clone() *Config {
	if c == nil {
		return NewConfig()
	}
	cp := *c
	return &cp
}

// LoadFile 从 JSON 文件加载配置
//
// 文件中未出现的字段保留默认值。
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse 从 JSON 数据解析配置，并校验结果
func Parse(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
