package dispatcher

import (
	"context"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-asyncevent/config"
	"github.com/dep2p/go-asyncevent/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Params Fx 依赖参数
type Params struct {
	fx.In

	Config     *config.Config        `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
	Clock      clock.Clock           `optional:"true"`
	Logger     *slog.Logger          `optional:"true"`
}

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Dispatcher    interfaces.Dispatcher
	RawDispatcher *Dispatcher
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("dispatcher",
		fx.Provide(ProvideDispatcher),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideDispatcher 提供 Dispatcher 实例
func ProvideDispatcher(p Params) (Result, error) {
	d, err := NewFromConfig(p.Config, Deps{
		Registerer: p.Registerer,
		Clock:      p.Clock,
		Logger:     p.Logger,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Dispatcher:    d,
		RawDispatcher: d,
	}, nil
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	Dispatcher *Dispatcher
	Config     *config.Config `optional:"true"`
}

// registerLifecycle 注册生命周期
//
// OnStart：Config.Workers > 0 时启动对应数量的消费者。
// OnStop：关闭调度器（丢弃未处理事件、唤醒消费者），并等待消费者退出。
func registerLifecycle(input lifecycleInput) {
	workers := 0
	if input.Config != nil {
		workers = input.Config.Workers
	}

	var done chan struct{}

	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if workers <= 0 {
				return nil
			}
			done = make(chan struct{})
			go func() {
				defer close(done)
				if err := input.Dispatcher.RunWorkers(context.Background(), workers); err != nil {
					input.Dispatcher.log.Error("workers exited", "err", err)
				}
			}()
			input.Dispatcher.log.Info("dispatcher workers started", "workers", workers)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := input.Dispatcher.Close(); err != nil {
				return err
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

// ============================================================================
// 模块元信息
// ============================================================================

const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "dispatcher"
	// Description 模块描述
	Description = "异步事件调度模块，提供信号绑定、优先发射与阻塞排空"
)
