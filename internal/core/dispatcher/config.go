package dispatcher

import (
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-asyncevent/config"
	"github.com/dep2p/go-asyncevent/internal/core/metrics"
	"github.com/dep2p/go-asyncevent/pkg/interfaces"
)

// Deps 调度器的可选外部依赖
type Deps struct {
	// Registerer 指标注册器，启用指标且为空时使用 prometheus.DefaultRegisterer
	Registerer prometheus.Registerer

	// Clock 时钟，为空时使用真实时钟
	Clock clock.Clock

	// Logger 日志，为空时使用 core/dispatcher 子系统 Logger
	Logger *slog.Logger
}

// OptionsFromConfig 从配置创建构造参数
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return Options{
		MaxSignal:             interfaces.Signal(cfg.MaxSignal),
		MaxPending:            cfg.MaxPending,
		SlowCallbackThreshold: cfg.SlowCallbackThreshold.Duration(),
	}
}

// NewFromConfig 校验配置并创建调度器
//
// 启用指标时创建 metrics.Collector 并注册到 deps.Registerer，Close 时注销。
func NewFromConfig(cfg *config.Config, deps Deps) (*Dispatcher, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := OptionsFromConfig(cfg)
	opts.ID = uuid.NewString()
	opts.Clock = deps.Clock
	opts.Logger = deps.Logger

	if cfg.Metrics.Enabled {
		reg := deps.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		collector := metrics.NewCollector(cfg.Metrics.Namespace, opts.ID)
		if err := collector.Register(reg); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		opts.Recorder = collector

		d := New(opts)
		d.detach = func() { collector.Unregister(reg) }
		return d, nil
	}

	return New(opts), nil
}
