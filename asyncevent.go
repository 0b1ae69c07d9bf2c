package asyncevent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-asyncevent/internal/core/dispatcher"
	"github.com/dep2p/go-asyncevent/pkg/interfaces"
)

// ════════════════════════════════════════════════════════════════════════════
//                              版本信息
// ════════════════════════════════════════════════════════════════════════════

// Version 当前版本
const Version = "v0.1.0"

// BuildInfo 构建信息（通过 ldflags 注入）
var (
	// GitCommit Git 提交哈希
	GitCommit string

	// BuildDate 构建日期
	BuildDate string
)

// VersionInfo 返回完整版本信息字符串
func VersionInfo() string {
	info := "asyncevent " + Version
	if GitCommit != "" {
		info += " (" + GitCommit[:min(8, len(GitCommit))] + ")"
	}
	if BuildDate != "" {
		info += " built " + BuildDate
	}
	return info
}

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

// Signal 信号值，有效范围 [0, MaxSignal]
type Signal = interfaces.Signal

// Callback 信号回调，arg 为发射时传入的参数（不复制）
type Callback = interfaces.Callback

// Stats 调度器统计快照
type Stats = dispatcher.Stats

// DefaultMaxSignal 默认最大信号值
const DefaultMaxSignal = interfaces.DefaultMaxSignal

// stopTimeout Close 时等待消费者退出的最长时间
const stopTimeout = 5 * time.Second

// ════════════════════════════════════════════════════════════════════════════
//                              Handle
// ════════════════════════════════════════════════════════════════════════════

// Handle 调度器句柄
//
// 由 New 创建，持有绑定表、事件队列以及承载它们的 Fx 应用。
// 所有方法均可并发调用；nil 句柄上的操作返回 ErrInvalidHandle。
type Handle struct {
	d   *dispatcher.Dispatcher
	app *fx.App

	closeOnce sync.Once
	closeErr  error
}

// 确保 Handle 实现 interfaces.Dispatcher
var _ interfaces.Dispatcher = (*Handle)(nil)

// New 创建调度器
//
// 通过 Option 配置。若配置了 Workers > 0，返回前即已启动对应数量的消费者；
// 否则由调用方驱动 Process / Run。
//
// 示例：
//
//	h, err := asyncevent.New(
//	    asyncevent.WithMaxSignal(63),
//	    asyncevent.WithMaxPending(4096),
//	)
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
func New(opts ...Option) (*Handle, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	h := &Handle{}
	app, err := buildFxApp(o, h)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	h.app = app

	ctx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, fmt.Errorf("start dispatcher: %w", err)
	}
	return h, nil
}

// ID 返回调度器标识
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.d.ID()
}

// Bind 为信号绑定回调
//
// 每个信号只能绑定一次。
//
// 错误：ErrInvalidHandle, ErrOutOfRange, ErrNullCallback, ErrAlreadyBound
func (h *Handle) Bind(sig Signal, cb Callback) error {
	if h == nil {
		return ErrInvalidHandle
	}
	return h.d.Bind(sig, cb)
}

// IsBound 检查信号是否已绑定
func (h *Handle) IsBound(sig Signal) bool {
	if h == nil {
		return false
	}
	return h.d.IsBound(sig)
}

// Signals 按升序返回所有已绑定的信号
func (h *Handle) Signals() []Signal {
	if h == nil {
		return nil
	}
	return h.d.Signals()
}

// Emit 发射信号
//
// priority 为 true 时插入队首，否则追加到队尾。arg 原样传给回调，不复制。
//
// 错误：ErrInvalidHandle, ErrOutOfRange, ErrUnbound, ErrClosed, ErrAllocationFailure
func (h *Handle) Emit(priority bool, sig Signal, arg any) error {
	if h == nil {
		return ErrInvalidHandle
	}
	return h.d.Emit(priority, sig, arg)
}

// EmitFront 以优先方式发射信号
func (h *Handle) EmitFront(sig Signal, arg any) error {
	return h.Emit(true, sig, arg)
}

// EmitBack 以普通方式发射信号
func (h *Handle) EmitBack(sig Signal, arg any) error {
	return h.Emit(false, sig, arg)
}

// Process 阻塞直到队列非空，然后排空队列
//
// 关闭后返回 ErrClosed。
func (h *Handle) Process() error {
	if h == nil {
		return ErrInvalidHandle
	}
	return h.d.Process()
}

// ProcessContext 与 Process 相同，ctx 结束时停止等待
func (h *Handle) ProcessContext(ctx context.Context) error {
	if h == nil {
		return ErrInvalidHandle
	}
	return h.d.ProcessContext(ctx)
}

// Run 循环排空，直到 ctx 结束（返回 ctx.Err()）或句柄关闭（返回 nil）
func (h *Handle) Run(ctx context.Context) error {
	if h == nil {
		return ErrInvalidHandle
	}
	return h.d.Run(ctx)
}

// RunWorkers 启动 n 个并发消费者，阻塞直到全部退出
func (h *Handle) RunWorkers(ctx context.Context, n int) error {
	if h == nil {
		return ErrInvalidHandle
	}
	return h.d.RunWorkers(ctx, n)
}

// Len 返回待处理事件数
func (h *Handle) Len() int {
	if h == nil {
		return 0
	}
	return h.d.Len()
}

// Stats 返回统计快照
func (h *Handle) Stats() Stats {
	if h == nil {
		return Stats{Closed: true}
	}
	return h.d.Stats()
}

// Close 关闭句柄
//
// 丢弃未处理事件，唤醒阻塞的 Process，停止自动启动的消费者。可重复调用。
func (h *Handle) Close() error {
	if h == nil {
		return ErrInvalidHandle
	}
	h.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		h.closeErr = h.app.Stop(ctx)
	})
	return h.closeErr
}
