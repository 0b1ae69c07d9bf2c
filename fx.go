package asyncevent

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-asyncevent/internal/core/dispatcher"
)

// buildFxApp 构建 Fx 应用
//
// 组装顺序：
//  1. 配置验证（前置）
//  2. 注入配置与可选依赖（Registerer / Clock / Logger）
//  3. 加载 dispatcher 模块（生命周期负责启动消费者与关闭）
//  4. 用户自定义 Fx 选项
//  5. 回填 Handle
func buildFxApp(o *options, h *Handle) (*fx.App, error) {
	cfg := o.toConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(cfg),
	}

	if reg := o.registry; reg != nil {
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}
	if clk := o.clock; clk != nil {
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}
	if o.logger != nil {
		modules = append(modules, fx.Supply(o.logger))
	}

	modules = append(modules, dispatcher.Module())

	if len(o.fxOptions) > 0 {
		modules = append(modules, o.fxOptions...)
	}

	modules = append(modules,
		fx.Invoke(func(d *dispatcher.Dispatcher) {
			h.d = d
		}),
		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	return fx.New(modules...), nil
}
