// Package registry 实现信号与回调的绑定表
package registry

import (
	"fmt"
	"sync"

	"github.com/dep2p/go-asyncevent/internal/util/logger"
	"github.com/dep2p/go-asyncevent/pkg/interfaces"
)

var log = logger.Logger("core/registry")

// Registry 信号绑定表
//
// 槽位数为 maxSignal+1，按信号值直接索引。绑定只写一次，不支持替换或解绑。
type Registry struct {
	mu sync.RWMutex

	// slots 回调槽位，下标即信号值
	slots []interfaces.Callback

	// bound 已绑定的信号数
	bound int
}

// New 创建绑定表
//
// maxSignal 为最大有效信号值（含），小于 0 时使用 interfaces.DefaultMaxSignal。
func New(maxSignal interfaces.Signal) *Registry {
	if maxSignal < 0 {
		maxSignal = interfaces.DefaultMaxSignal
	}
	return &Registry{
		slots: make([]interfaces.Callback, int(maxSignal)+1),
	}
}

// MaxSignal 返回最大有效信号值
func (r *Registry) MaxSignal() interfaces.Signal {
	return interfaces.Signal(len(r.slots) - 1)
}

// InRange 检查信号值是否在 [0, MaxSignal] 范围内
func (r *Registry) InRange(sig interfaces.Signal) bool {
	return sig >= 0 && int(sig) < len(r.slots)
}

// Bind 为信号绑定回调
//
// 错误：
//   - ErrInvalidHandle: 绑定表不存在
//   - ErrOutOfRange: 信号值超出范围
//   - ErrNullCallback: 回调为空
//   - ErrAlreadyBound: 信号已绑定（保留原回调）
func (r *Registry) Bind(sig interfaces.Signal, cb interfaces.Callback) error {
	if r == nil {
		return interfaces.ErrInvalidHandle
	}
	if !r.InRange(sig) {
		return fmt.Errorf("bind signal %d (max %d): %w", sig, r.MaxSignal(), interfaces.ErrOutOfRange)
	}
	if cb == nil {
		return fmt.Errorf("bind signal %d: %w", sig, interfaces.ErrNullCallback)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slots[sig] != nil {
		return fmt.Errorf("bind signal %d: %w", sig, interfaces.ErrAlreadyBound)
	}
	r.slots[sig] = cb
	r.bound++

	log.Debug("signal bound", "signal", int(sig), "bound", r.bound)
	return nil
}

// Lookup 查找信号的回调
func (r *Registry) Lookup(sig interfaces.Signal) (interfaces.Callback, bool) {
	if r == nil || !r.InRange(sig) {
		return nil, false
	}

	r.mu.RLock()
	cb := r.slots[sig]
	r.mu.RUnlock()

	return cb, cb != nil
}

// IsBound 检查信号是否已绑定
func (r *Registry) IsBound(sig interfaces.Signal) bool {
	_, ok := r.Lookup(sig)
	return ok
}

// Len 返回已绑定的信号数
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bound
}

// Signals 按升序返回所有已绑定的信号
func (r *Registry) Signals() []interfaces.Signal {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]interfaces.Signal, 0, r.bound)
	for i, cb := range r.slots {
		if cb != nil {
			out = append(out, interfaces.Signal(i))
		}
	}
	return out
}
