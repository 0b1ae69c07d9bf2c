package asyncevent

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-asyncevent/config"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 基础配置（WithConfig / WithConfigFile）
	base *config.Config

	// 单项覆盖
	maxSignal     *int
	maxPending    *int
	slowThreshold *time.Duration
	workers       *int

	// 指标
	metrics   *bool
	registry  prometheus.Registerer
	namespace string

	// 注入依赖
	clock  clock.Clock
	logger *slog.Logger

	// 用户自定义 Fx 选项
	fxOptions []fx.Option
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{}
}

// toConfig 合并为最终配置
//
// 顺序：默认值 → 基础配置 → 单项覆盖。
func (o *options) toConfig() *config.Config {
	cfg := o.base.Clone()

	if o.maxSignal != nil {
		cfg.MaxSignal = *o.maxSignal
	}
	if o.maxPending != nil {
		cfg.MaxPending = *o.maxPending
	}
	if o.slowThreshold != nil {
		cfg.SlowCallbackThreshold = config.Duration(*o.slowThreshold)
	}
	if o.workers != nil {
		cfg.Workers = *o.workers
	}
	if o.metrics != nil {
		cfg.Metrics.Enabled = *o.metrics
	}
	if o.namespace != "" {
		cfg.Metrics.Namespace = o.namespace
	}
	return cfg
}

// ============================================================================
//                              配置选项
// ============================================================================

// WithConfig 使用完整配置作为基础
//
// 之后的单项选项（如 WithMaxSignal）会覆盖其中对应字段。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("配置不能为空")
		}
		o.base = cfg.Clone()
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载基础配置，并应用 ASYNCEVENT_* 环境变量
func WithConfigFile(path string) Option {
	return func(o *options) error {
		if path == "" {
			return fmt.Errorf("配置文件路径不能为空")
		}
		cfg, err := config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		config.ApplyEnv(cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.base = cfg
		return nil
	}
}

// ============================================================================
//                              调度选项
// ============================================================================

// WithMaxSignal 设置最大有效信号值（含）
//
// 绑定表分配 sig+1 个槽位。
func WithMaxSignal(sig Signal) Option {
	return func(o *options) error {
		if sig < 0 {
			return fmt.Errorf("最大信号值不能为负数: %d", sig)
		}
		v := int(sig)
		o.maxSignal = &v
		return nil
	}
}

// WithMaxPending 设置待处理事件上限，0 表示不限
//
// 达到上限后 Emit 返回 ErrAllocationFailure。
func WithMaxPending(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return fmt.Errorf("待处理事件上限不能为负数: %d", n)
		}
		o.maxPending = &n
		return nil
	}
}

// WithSlowCallbackThreshold 设置慢回调告警阈值，0 表示禁用
func WithSlowCallbackThreshold(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return fmt.Errorf("慢回调阈值不能为负数: %s", d)
		}
		o.slowThreshold = &d
		return nil
	}
}

// WithWorkers 设置自动启动的消费者数量
//
// n > 0 时 New 返回前启动 n 个消费者，Close 时停止。
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return fmt.Errorf("消费者数量不能为负数: %d", n)
		}
		o.workers = &n
		return nil
	}
}

// ============================================================================
//                              可观测性选项
// ============================================================================

// WithMetrics 启用 Prometheus 指标并注册到 reg
//
// reg 为 nil 时使用 prometheus.DefaultRegisterer。
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) error {
		enabled := true
		o.metrics = &enabled
		o.registry = reg
		return nil
	}
}

// WithMetricsNamespace 设置指标命名空间
func WithMetricsNamespace(ns string) Option {
	return func(o *options) error {
		if ns == "" {
			return fmt.Errorf("指标命名空间不能为空")
		}
		o.namespace = ns
		return nil
	}
}

// WithLogger 使用指定的 slog.Logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) error {
		if l == nil {
			return fmt.Errorf("logger 不能为空")
		}
		o.logger = l
		return nil
	}
}

// WithClock 使用指定的时钟（测试中可传入 clock.NewMock()）
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		if c == nil {
			return fmt.Errorf("时钟不能为空")
		}
		o.clock = c
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
//
// 可用于注入依赖或通过 fx.Invoke 获取内部的 interfaces.Dispatcher。
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}
