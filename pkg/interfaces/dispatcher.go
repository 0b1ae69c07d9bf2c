// Package interfaces 定义 go-asyncevent 公共接口
//
// 本文件定义 Dispatcher 接口，提供信号绑定、事件发射与调度功能。
package interfaces

import (
	"context"
	"errors"
)

// Signal 信号值
//
// 由应用自行定义的小整数枚举，核心不关心其含义。
// 有效范围为 [0, MaxSignal]，MaxSignal 在构造时确定。
type Signal int

// Callback 信号回调函数
//
// arg 为发射方传入的不透明参数，系统不会复制、修改或持有它。
// 发射方需保证 arg 在回调执行前保持有效。
type Callback func(arg any)

// DefaultMaxSignal 默认最大信号值（共 1024 个槽位）
const DefaultMaxSignal Signal = 1023

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrInvalidHandle 句柄不存在（nil）
	ErrInvalidHandle = errors.New("asyncevent: invalid handle")
	// ErrOutOfRange 信号值超出有效范围
	ErrOutOfRange = errors.New("asyncevent: signal out of range")
	// ErrAlreadyBound 信号已被绑定
	ErrAlreadyBound = errors.New("asyncevent: signal already bound")
	// ErrUnbound 信号未绑定，不能触发事件
	ErrUnbound = errors.New("asyncevent: signal not bound")
	// ErrNullCallback 回调函数为空
	ErrNullCallback = errors.New("asyncevent: nil callback")
	// ErrAllocationFailure 事件无法入队（待处理队列已满），该事件被丢弃
	ErrAllocationFailure = errors.New("asyncevent: event allocation failed")
	// ErrClosed 句柄已关闭
	ErrClosed = errors.New("asyncevent: closed")
)

// Dispatcher 定义事件调度器接口
//
// 生产方通过 Emit 入队事件，消费方通过 Process 阻塞等待并执行一轮完整排空。
type Dispatcher interface {
	// Bind 为信号绑定回调，每个信号只能绑定一次
	Bind(sig Signal, cb Callback) error

	// Emit 发射信号
	//
	// priority 为 true 时插入队首（下一个被处理），否则追加到队尾。
	Emit(priority bool, sig Signal, arg any) error

	// Process 阻塞直到队列非空，然后排空队列并依次执行回调
	Process() error

	// ProcessContext 与 Process 相同，但可通过 ctx 取消等待
	ProcessContext(ctx context.Context) error

	// Run 循环调用 Process，直到 ctx 结束或调度器关闭
	Run(ctx context.Context) error

	// Len 返回待处理事件数
	Len() int

	// Close 关闭调度器，丢弃所有未处理事件（不执行其回调）
	Close() error
}
