package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-asyncevent/internal/core/metrics"
	"github.com/dep2p/go-asyncevent/internal/core/queue"
	"github.com/dep2p/go-asyncevent/internal/core/registry"
	"github.com/dep2p/go-asyncevent/internal/util/logger"
	"github.com/dep2p/go-asyncevent/pkg/interfaces"
)

// ============================================================================
// Recorder
// ============================================================================

// Recorder 接收调度器的指标事件
//
// metrics.Collector 为 Prometheus 实现；未配置时使用空实现。
type Recorder interface {
	Emitted(sig interfaces.Signal, priority bool)
	Rejected(reason string)
	Dispatched(sig interfaces.Signal, elapsed time.Duration)
	Discarded(n int)
	Pending(n int)
}

type nopRecorder struct{}

func (nopRecorder) Emitted(interfaces.Signal, bool)             {}
func (nopRecorder) Rejected(string)                             {}
func (nopRecorder) Dispatched(interfaces.Signal, time.Duration) {}
func (nopRecorder) Discarded(int)                               {}
func (nopRecorder) Pending(int)                                 {}

// ============================================================================
// Dispatcher
// ============================================================================

// Options 调度器构造参数
type Options struct {
	// ID 调度器标识，为空时自动生成 UUID
	ID string

	// MaxSignal 最大有效信号值（含），绑定表分配 MaxSignal+1 个槽位
	//
	// 0 表示只有信号 0 有效；负数时使用 interfaces.DefaultMaxSignal。
	MaxSignal interfaces.Signal

	// MaxPending 待处理事件上限，<= 0 表示不限
	MaxPending int

	// SlowCallbackThreshold 慢回调告警阈值，<= 0 表示禁用
	SlowCallbackThreshold time.Duration

	// Clock 时钟，为空时使用真实时钟
	Clock clock.Clock

	// Logger 日志，为空时使用 core/dispatcher 子系统 Logger
	Logger *slog.Logger

	// Recorder 指标记录，为空时不记录
	Recorder Recorder
}

// Dispatcher 异步事件调度器
//
// 拥有一个绑定表与一个事件队列。生产方调用 Emit，消费方调用 Process。
// 回调在锁外、在调用 Process 的 goroutine 上同步执行。
type Dispatcher struct {
	id       string
	registry *registry.Registry
	queue    *queue.Queue
	clock    clock.Clock
	log      *slog.Logger
	recorder Recorder

	slowThreshold time.Duration

	// detach 关闭时注销指标，未启用指标时为空
	detach func()

	// 统计
	emitted       atomic.Uint64
	rejected      atomic.Uint64
	dropped       atomic.Uint64
	dispatched    atomic.Uint64
	discarded     atomic.Uint64
	drains        atomic.Uint64
	slowCallbacks atomic.Uint64
	lastDrain     atomic.Int64 // UnixNano，drains 为 0 时无意义
}

// New 创建调度器
func New(opts Options) *Dispatcher {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.MaxSignal < 0 {
		opts.MaxSignal = interfaces.DefaultMaxSignal
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	var log *slog.Logger
	if opts.Logger != nil {
		log = opts.Logger.With("dispatcher", opts.ID)
	} else {
		log = logger.With("core/dispatcher", "dispatcher", opts.ID)
	}

	return &Dispatcher{
		id:            opts.ID,
		registry:      registry.New(opts.MaxSignal),
		queue:         queue.New(opts.MaxPending),
		clock:         opts.Clock,
		log:           log,
		recorder:      opts.Recorder,
		slowThreshold: opts.SlowCallbackThreshold,
	}
}

// ID 返回调度器标识
func (d *Dispatcher) ID() string {
	if d == nil {
		return ""
	}
	return d.id
}

// Bind 为信号绑定回调
//
// 每个信号只能绑定一次；重复绑定返回 ErrAlreadyBound，原回调保持不变。
func (d *Dispatcher) Bind(sig interfaces.Signal, cb interfaces.Callback) error {
	if d == nil {
		return interfaces.ErrInvalidHandle
	}
	return d.registry.Bind(sig, cb)
}

// IsBound 检查信号是否已绑定
func (d *Dispatcher) IsBound(sig interfaces.Signal) bool {
	if d == nil {
		return false
	}
	return d.registry.IsBound(sig)
}

// Signals 按升序返回所有已绑定的信号
func (d *Dispatcher) Signals() []interfaces.Signal {
	if d == nil {
		return nil
	}
	return d.registry.Signals()
}

// MaxSignal 返回最大有效信号值
func (d *Dispatcher) MaxSignal() interfaces.Signal {
	if d == nil {
		return -1
	}
	return d.registry.MaxSignal()
}

// Emit 发射信号
//
// priority 为 true 时事件插入队首，在所有已排队事件之前处理；
// 否则追加到队尾，保持同优先级事件的到达顺序。
//
// 校验顺序：句柄 → 信号范围 → 是否绑定 → 是否关闭 → 队列上限。
// 校验失败时队列不变。
func (d *Dispatcher) Emit(priority bool, sig interfaces.Signal, arg any) error {
	if d == nil {
		return interfaces.ErrInvalidHandle
	}

	if !d.registry.InRange(sig) {
		return d.reject(sig, fmt.Errorf("emit signal %d (max %d): %w", sig, d.registry.MaxSignal(), interfaces.ErrOutOfRange))
	}
	if !d.registry.IsBound(sig) {
		return d.reject(sig, fmt.Errorf("emit signal %d: %w", sig, interfaces.ErrUnbound))
	}

	depth, err := d.queue.Push(priority, queue.Event{Signal: sig, Arg: arg})
	if err != nil {
		if errors.Is(err, interfaces.ErrAllocationFailure) {
			dropped := d.dropped.Add(1)
			// 每丢弃 100 个事件警告一次，避免日志泛滥
			if dropped%100 == 1 {
				d.log.Warn("pending queue full, event dropped",
					"signal", int(sig),
					"pending", depth,
					"dropped", dropped)
			}
		}
		return d.reject(sig, fmt.Errorf("emit signal %d: %w", sig, err))
	}

	d.emitted.Add(1)
	d.recorder.Emitted(sig, priority)
	d.recorder.Pending(depth)
	return nil
}

// EmitFront 以优先方式发射信号（插入队首）
func (d *Dispatcher) EmitFront(sig interfaces.Signal, arg any) error {
	return d.Emit(true, sig, arg)
}

// EmitBack 以普通方式发射信号（追加到队尾）
func (d *Dispatcher) EmitBack(sig interfaces.Signal, arg any) error {
	return d.Emit(false, sig, arg)
}

func (d *Dispatcher) reject(sig interfaces.Signal, err error) error {
	d.rejected.Add(1)
	d.recorder.Rejected(metrics.ReasonFor(err))
	d.log.Debug("emit rejected", "signal", int(sig), "err", err)
	return err
}

// Process 执行一轮排空
//
// 队列为空时阻塞等待；被唤醒后反复“加锁取出队首 → 解锁 → 执行回调”，
// 直到加锁检查发现队列为空。排空期间（包括回调中）新入队的事件也在本轮处理。
//
// 调度器关闭后返回 ErrClosed。回调中不得发射自身信号，否则本轮永不结束。
func (d *Dispatcher) Process() error {
	return d.ProcessContext(context.Background())
}

// ProcessContext 与 Process 相同，但 ctx 结束时停止等待并返回 ctx.Err()
//
// ctx 仅作用于等待阶段；一旦开始排空，本轮会处理到队列为空为止。
func (d *Dispatcher) ProcessContext(ctx context.Context) error {
	if d == nil {
		return interfaces.ErrInvalidHandle
	}

	if err := d.queue.Wait(ctx); err != nil {
		return err
	}
	// 已开始的排空不受 ctx 影响
	return d.drain(context.Background())
}

// drain 反复出队并执行回调，直到队列为空
//
// ctx 结束时提前返回 ctx.Err()，剩余事件留在队列中。
func (d *Dispatcher) drain(ctx context.Context) error {
	defer func() {
		d.lastDrain.Store(d.clock.Now().UnixNano())
		d.drains.Add(1)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, remaining, ok := d.queue.Pop()
		if !ok {
			return nil
		}
		d.recorder.Pending(remaining)
		d.dispatch(ev)
	}
}

// dispatch 在锁外执行事件回调
func (d *Dispatcher) dispatch(ev queue.Event) {
	cb, ok := d.registry.Lookup(ev.Signal)
	if !ok {
		// 绑定只写一次且在 Emit 时已检查，此处不应发生
		d.log.Error("no callback for queued signal", "signal", int(ev.Signal))
		return
	}

	start := d.clock.Now()
	cb(ev.Arg)
	elapsed := d.clock.Since(start)

	d.dispatched.Add(1)
	d.recorder.Dispatched(ev.Signal, elapsed)

	if d.slowThreshold > 0 && elapsed >= d.slowThreshold {
		d.slowCallbacks.Add(1)
		d.log.Warn("slow callback",
			"signal", int(ev.Signal),
			"elapsed", elapsed,
			"threshold", d.slowThreshold)
	}
}

// Run 循环等待并排空，直到 ctx 结束或调度器关闭
//
// 与 ProcessContext 不同，排空过程中每个事件之前都检查 ctx：
// 生产方持续发射时队列可能永不为空，Run 仍能及时退出，未处理的事件留在队列中。
//
// 调度器关闭时返回 nil；ctx 结束时返回 ctx.Err()。
func (d *Dispatcher) Run(ctx context.Context) error {
	if d == nil {
		return interfaces.ErrInvalidHandle
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := d.queue.Wait(ctx)
		if err == nil {
			err = d.drain(ctx)
		}
		switch {
		case err == nil:
		case errors.Is(err, interfaces.ErrClosed):
			return nil
		default:
			return err
		}
	}
}

// RunWorkers 启动 n 个并发消费者，阻塞直到全部退出
//
// 多消费者时，跨消费者的回调执行顺序不再全局串行，仅保证每轮排空内的出队顺序。
// n <= 0 时按 1 处理。任一消费者返回错误时取消其余消费者。
func (d *Dispatcher) RunWorkers(ctx context.Context, n int) error {
	if d == nil {
		return interfaces.ErrInvalidHandle
	}
	if n <= 0 {
		n = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return d.Run(gctx)
		})
	}
	return g.Wait()
}

// Len 返回待处理事件数
func (d *Dispatcher) Len() int {
	if d == nil {
		return 0
	}
	return d.queue.Len()
}

// Closed 检查调度器是否已关闭
func (d *Dispatcher) Closed() bool {
	if d == nil {
		return true
	}
	return d.queue.Closed()
}

// Close 关闭调度器
//
// 丢弃所有未处理事件（不执行其回调），唤醒所有阻塞的 Process 调用使其返回 ErrClosed。
// 之后的 Emit 返回 ErrClosed。启用指标时从注册器注销全部收集器。
// 可重复调用，对空队列安全。
func (d *Dispatcher) Close() error {
	if d == nil {
		return interfaces.ErrInvalidHandle
	}

	discarded, first := d.queue.Close()
	if !first {
		return nil
	}

	d.discarded.Add(uint64(discarded))
	d.recorder.Discarded(discarded)
	d.recorder.Pending(0)
	if d.detach != nil {
		d.detach()
	}

	d.log.Info("dispatcher closed",
		"discarded", discarded,
		"dispatched", d.dispatched.Load(),
		"bound", d.registry.Len())
	return nil
}
