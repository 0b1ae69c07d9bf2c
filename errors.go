package asyncevent

import "github.com/dep2p/go-asyncevent/pkg/interfaces"

// 公共错误定义
//
// 均为 pkg/interfaces 中哨兵错误的别名，可直接用 errors.Is 判断。
var (
	// ────────────────────────────────────────────────────────────────────────
	// 句柄错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrInvalidHandle 句柄为空
	ErrInvalidHandle = interfaces.ErrInvalidHandle

	// ErrClosed 调度器已关闭
	ErrClosed = interfaces.ErrClosed

	// ────────────────────────────────────────────────────────────────────────
	// 绑定与发射错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrOutOfRange 信号超出 [0, MaxSignal]
	ErrOutOfRange = interfaces.ErrOutOfRange

	// ErrAlreadyBound 信号已绑定
	ErrAlreadyBound = interfaces.ErrAlreadyBound

	// ErrUnbound 信号未绑定
	ErrUnbound = interfaces.ErrUnbound

	// ErrNullCallback 回调为空
	ErrNullCallback = interfaces.ErrNullCallback

	// ErrAllocationFailure 待处理事件已达上限，事件被丢弃
	ErrAllocationFailure = interfaces.ErrAllocationFailure
)
