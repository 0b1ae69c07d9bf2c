package dispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-asyncevent/internal/util/logger"
	"github.com/dep2p/go-asyncevent/pkg/interfaces"
)

const (
	sigClick interfaces.Signal = iota + 1
	sigMove
	sigPress
	sigRelease
)

// trace 记录回调执行顺序
type trace struct {
	mu    sync.Mutex
	calls []string
}

func (tr *trace) record(name string) interfaces.Callback {
	return func(any) {
		tr.mu.Lock()
		tr.calls = append(tr.calls, name)
		tr.mu.Unlock()
	}
}

func (tr *trace) get() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.calls...)
}

func newTestDispatcher(t *testing.T, opts Options) *Dispatcher {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	// 零值 Options 在测试中使用默认信号范围
	if opts.MaxSignal == 0 {
		opts.MaxSignal = interfaces.DefaultMaxSignal
	}
	d := New(opts)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// ============================================================================
// 接口契约测试
// ============================================================================

func TestDispatcher_ImplementsInterface(t *testing.T) {
	var _ interfaces.Dispatcher = (*Dispatcher)(nil)
}

func TestDispatcher_New(t *testing.T) {
	d := newTestDispatcher(t, Options{MaxSignal: 15})

	assert.NotEmpty(t, d.ID())
	assert.Equal(t, interfaces.Signal(15), d.MaxSignal())
	assert.Equal(t, 0, d.Len())
	assert.False(t, d.Closed())

	d2 := newTestDispatcher(t, Options{MaxSignal: -1, ID: "fixed"})
	assert.Equal(t, "fixed", d2.ID())
	assert.Equal(t, interfaces.DefaultMaxSignal, d2.MaxSignal())
}

// ============================================================================
// 绑定测试
// ============================================================================

func TestDispatcher_Bind_AlreadyBound(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	tr := &trace{}

	require.NoError(t, d.Bind(sigClick, tr.record("first")))
	err := d.Bind(sigClick, tr.record("second"))
	assert.ErrorIs(t, err, interfaces.ErrAlreadyBound)

	require.NoError(t, d.Emit(false, sigClick, nil))
	require.NoError(t, d.Process())

	// 第二个回调从未被调用
	assert.Equal(t, []string{"first"}, tr.get())
}

func TestDispatcher_Bind_OutOfRange(t *testing.T) {
	d := newTestDispatcher(t, Options{MaxSignal: 4})

	assert.ErrorIs(t, d.Bind(5, func(any) {}), interfaces.ErrOutOfRange)
	assert.ErrorIs(t, d.Bind(-1, func(any) {}), interfaces.ErrOutOfRange)
	assert.Empty(t, d.Signals())
	assert.Equal(t, 0, d.Stats().Bound)
}

// TestDispatcher_MaxSignalZero 最大信号值为 0 时只有信号 0 有效
func TestDispatcher_MaxSignalZero(t *testing.T) {
	d := New(Options{MaxSignal: 0, Logger: logger.Discard()})
	t.Cleanup(func() { _ = d.Close() })

	assert.Equal(t, interfaces.Signal(0), d.MaxSignal())
	require.NoError(t, d.Bind(0, func(any) {}))
	assert.ErrorIs(t, d.Bind(1, func(any) {}), interfaces.ErrOutOfRange)
	assert.ErrorIs(t, d.Emit(false, 1, nil), interfaces.ErrOutOfRange)
	require.NoError(t, d.Emit(false, 0, nil))
	assert.Equal(t, 1, d.Len())
}

func TestDispatcher_Bind_NullCallback(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	assert.ErrorIs(t, d.Bind(sigClick, nil), interfaces.ErrNullCallback)
	assert.False(t, d.IsBound(sigClick))
}

// ============================================================================
// 发射测试
// ============================================================================

func TestDispatcher_Emit_Unbound(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	require.NoError(t, d.Bind(sigClick, func(any) {}))
	require.NoError(t, d.Emit(false, sigClick, nil))

	err := d.Emit(false, sigMove, nil)
	assert.ErrorIs(t, err, interfaces.ErrUnbound)
	// 队列长度不变
	assert.Equal(t, 1, d.Len())
}

func TestDispatcher_Emit_OutOfRange(t *testing.T) {
	d := newTestDispatcher(t, Options{MaxSignal: 4})

	assert.ErrorIs(t, d.Emit(false, 5, nil), interfaces.ErrOutOfRange)
	assert.ErrorIs(t, d.Emit(true, -3, nil), interfaces.ErrOutOfRange)
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, uint64(2), d.Stats().Rejected)
}

func TestDispatcher_Emit_AllocationFailure(t *testing.T) {
	d := newTestDispatcher(t, Options{MaxPending: 2})
	tr := &trace{}
	require.NoError(t, d.Bind(sigClick, tr.record("click")))

	require.NoError(t, d.Emit(false, sigClick, nil))
	require.NoError(t, d.Emit(false, sigClick, nil))
	err := d.Emit(true, sigClick, nil)
	assert.ErrorIs(t, err, interfaces.ErrAllocationFailure)

	require.NoError(t, d.Process())
	// 被丢弃的事件消费者永远看不到
	assert.Len(t, tr.get(), 2)

	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, uint64(1), stats.Rejected)
	assert.Equal(t, uint64(2), stats.Emitted)
}

// ============================================================================
// 顺序测试
// ============================================================================

func TestDispatcher_FIFO(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	tr := &trace{}
	require.NoError(t, d.Bind(sigClick, tr.record("A")))
	require.NoError(t, d.Bind(sigMove, tr.record("B")))
	require.NoError(t, d.Bind(sigPress, tr.record("C")))

	require.NoError(t, d.Emit(false, sigClick, nil))
	require.NoError(t, d.Emit(false, sigMove, nil))
	require.NoError(t, d.Emit(false, sigPress, nil))

	require.NoError(t, d.Process())
	assert.Equal(t, []string{"A", "B", "C"}, tr.get())
}

func TestDispatcher_Priority(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	tr := &trace{}
	require.NoError(t, d.Bind(sigClick, tr.record("X")))
	require.NoError(t, d.Bind(sigMove, tr.record("Y")))

	require.NoError(t, d.Emit(false, sigClick, nil))
	require.NoError(t, d.EmitFront(sigMove, nil))

	require.NoError(t, d.Process())
	assert.Equal(t, []string{"Y", "X"}, tr.get())
}

// TestDispatcher_Scenario CLICK/MOVE 基本场景
func TestDispatcher_Scenario(t *testing.T) {
	d := newTestDispatcher(t, Options{})

	x, y := 1, 2
	var got []any
	require.NoError(t, d.Bind(sigClick, func(arg any) { got = append(got, arg) }))
	require.NoError(t, d.Bind(sigMove, func(arg any) { got = append(got, arg) }))

	require.NoError(t, d.EmitBack(sigClick, &x))
	require.NoError(t, d.EmitBack(sigMove, &y))

	require.NoError(t, d.Process())

	require.Len(t, got, 2)
	assert.Same(t, &x, got[0])
	assert.Same(t, &y, got[1])
	assert.Equal(t, 0, d.Len())
}

// ============================================================================
// 重入测试
// ============================================================================

// TestDispatcher_Reentrant 回调中发射其他信号，同一轮排空内被处理
func TestDispatcher_Reentrant(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	tr := &trace{}

	require.NoError(t, d.Bind(sigClick, func(arg any) {
		tr.record("click")(arg)
		assert.NoError(t, d.Emit(true, sigMove, arg))
		assert.NoError(t, d.Emit(true, sigPress, arg))
		assert.NoError(t, d.Emit(true, sigRelease, arg))
	}))
	require.NoError(t, d.Bind(sigMove, tr.record("move")))
	require.NoError(t, d.Bind(sigPress, tr.record("press")))
	require.NoError(t, d.Bind(sigRelease, tr.record("release")))

	require.NoError(t, d.Emit(false, sigClick, nil))
	require.NoError(t, d.Process())

	// 优先插入：后发射的排在前面
	assert.Equal(t, []string{"click", "release", "press", "move"}, tr.get())
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, uint64(1), d.Stats().Drains)
}

// TestDispatcher_DrainRechecksQueue 排空按队列状态循环，而非按唤醒时的长度
func TestDispatcher_DrainRechecksQueue(t *testing.T) {
	d := newTestDispatcher(t, Options{})

	remaining := 5
	calls := 0
	require.NoError(t, d.Bind(sigClick, func(any) {
		calls++
		assert.NoError(t, d.Emit(false, sigMove, nil))
	}))
	require.NoError(t, d.Bind(sigMove, func(any) {
		calls++
		// 有限次地追加自身信号，每次都在本轮内被处理
		if remaining > 0 {
			remaining--
			assert.NoError(t, d.Emit(false, sigMove, nil))
		}
	}))

	require.NoError(t, d.Emit(false, sigClick, nil))
	require.NoError(t, d.Process())

	assert.Equal(t, 7, calls)
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, uint64(1), d.Stats().Drains)
}

// ============================================================================
// 阻塞与关闭
// ============================================================================

func TestDispatcher_Process_BlocksUntilEmit(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	fired := make(chan struct{}, 1)
	require.NoError(t, d.Bind(sigClick, func(any) { fired <- struct{}{} }))

	done := make(chan error, 1)
	go func() { done <- d.Process() }()

	select {
	case <-done:
		t.Fatal("Process returned on empty queue")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, d.Emit(false, sigClick, nil))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Process not woken by Emit")
	}
	assert.Len(t, fired, 1)
}

func TestDispatcher_Close_UnblocksProcess(t *testing.T) {
	d := newTestDispatcher(t, Options{})

	done := make(chan error, 1)
	go func() { done <- d.Process() }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, d.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, interfaces.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Process not woken by Close")
	}
}

func TestDispatcher_Close_DiscardsPending(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	tr := &trace{}
	require.NoError(t, d.Bind(sigClick, tr.record("click")))

	const n = 10
	for i := 0; i < n; i++ {
		require.NoError(t, d.Emit(false, sigClick, i))
	}

	require.NoError(t, d.Close())
	assert.Empty(t, tr.get())
	assert.Equal(t, 0, d.Len())

	stats := d.Stats()
	assert.Equal(t, uint64(n), stats.Discarded)
	assert.True(t, stats.Closed)

	assert.ErrorIs(t, d.Emit(false, sigClick, nil), interfaces.ErrClosed)
	assert.ErrorIs(t, d.Process(), interfaces.ErrClosed)

	// 重复关闭安全
	assert.NoError(t, d.Close())
	assert.Equal(t, uint64(n), d.Stats().Discarded)
}

func TestDispatcher_Close_Fresh(t *testing.T) {
	d := New(Options{Logger: logger.Discard()})
	assert.NoError(t, d.Close())
	assert.Equal(t, uint64(0), d.Stats().Discarded)
}

func TestDispatcher_ProcessContext_Cancel(t *testing.T) {
	d := newTestDispatcher(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.ProcessContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatcher_Run(t *testing.T) {
	d := newTestDispatcher(t, Options{})

	var mu sync.Mutex
	count := 0
	require.NoError(t, d.Bind(sigClick, func(any) {
		mu.Lock()
		count++
		mu.Unlock()
	}))

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	for i := 0; i < 50; i++ {
		require.NoError(t, d.Emit(false, sigClick, nil))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 50
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, d.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestDispatcher_Run_ContextCanceled(t *testing.T) {
	d := newTestDispatcher(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// TestDispatcher_Run_CancelDuringDrain 队列始终非空时 Run 仍响应 ctx 取消
func TestDispatcher_Run_CancelDuringDrain(t *testing.T) {
	d := newTestDispatcher(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	pingPong := func(next interfaces.Signal) interfaces.Callback {
		return func(any) {
			calls++
			if calls == 10 {
				cancel()
			}
			// 两个信号互相触发，本轮排空永不结束
			assert.NoError(t, d.Emit(false, next, nil))
		}
	}
	require.NoError(t, d.Bind(sigClick, pingPong(sigMove)))
	require.NoError(t, d.Bind(sigMove, pingPong(sigClick)))
	require.NoError(t, d.Emit(false, sigClick, nil))

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		_ = d.Close()
		t.Fatal("Run did not return after cancel during drain")
	}
	assert.Equal(t, 10, calls)
	// 未处理的事件留在队列中
	assert.Equal(t, 1, d.Len())
}

// ============================================================================
// 空句柄
// ============================================================================

func TestDispatcher_NilHandle(t *testing.T) {
	var d *Dispatcher

	assert.ErrorIs(t, d.Bind(sigClick, func(any) {}), interfaces.ErrInvalidHandle)
	assert.ErrorIs(t, d.Emit(false, sigClick, nil), interfaces.ErrInvalidHandle)
	assert.ErrorIs(t, d.Process(), interfaces.ErrInvalidHandle)
	assert.ErrorIs(t, d.Run(context.Background()), interfaces.ErrInvalidHandle)
	assert.ErrorIs(t, d.RunWorkers(context.Background(), 2), interfaces.ErrInvalidHandle)
	assert.ErrorIs(t, d.Close(), interfaces.ErrInvalidHandle)
	assert.Equal(t, 0, d.Len())
	assert.True(t, d.Closed())
	assert.Empty(t, d.ID())
	assert.True(t, d.Stats().Closed)
}

// ============================================================================
// 统计与时钟
// ============================================================================

func TestDispatcher_SlowCallback(t *testing.T) {
	mock := clock.NewMock()
	d := newTestDispatcher(t, Options{
		Clock:                 mock,
		SlowCallbackThreshold: 100 * time.Millisecond,
	})

	require.NoError(t, d.Bind(sigClick, func(any) { mock.Add(150 * time.Millisecond) }))
	require.NoError(t, d.Bind(sigMove, func(any) { mock.Add(10 * time.Millisecond) }))

	require.NoError(t, d.Emit(false, sigClick, nil))
	require.NoError(t, d.Emit(false, sigMove, nil))
	require.NoError(t, d.Process())

	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.SlowCallbacks)
	assert.Equal(t, uint64(2), stats.Dispatched)
	assert.True(t, mock.Now().Equal(stats.LastDrain))
}

func TestDispatcher_Stats(t *testing.T) {
	d := newTestDispatcher(t, Options{MaxSignal: 9})
	require.NoError(t, d.Bind(sigClick, func(any) {}))
	require.NoError(t, d.Bind(sigMove, func(any) {}))

	assert.True(t, d.Stats().LastDrain.IsZero())

	require.NoError(t, d.Emit(false, sigClick, nil))
	require.NoError(t, d.Emit(true, sigMove, nil))
	_ = d.Emit(false, sigPress, nil)

	stats := d.Stats()
	assert.Equal(t, d.ID(), stats.ID)
	assert.Equal(t, 9, stats.MaxSignal)
	assert.Equal(t, 2, stats.Bound)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, uint64(2), stats.Emitted)
	assert.Equal(t, uint64(1), stats.Rejected)

	require.NoError(t, d.Process())
	stats = d.Stats()
	assert.Equal(t, uint64(2), stats.Dispatched)
	assert.Equal(t, uint64(1), stats.Drains)
	assert.False(t, stats.LastDrain.IsZero())
	assert.Equal(t, []interfaces.Signal{sigClick, sigMove}, d.Signals())
}
