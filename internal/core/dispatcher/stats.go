package dispatcher

import "time"

// Stats 调度器统计快照
type Stats struct {
	ID        string
	MaxSignal int
	Bound     int // 已绑定信号数
	Pending   int // 待处理事件数
	Closed    bool

	Emitted       uint64 // 成功入队
	Rejected      uint64 // 被拒绝（含 Dropped）
	Dropped       uint64 // 因队列上限被丢弃
	Dispatched    uint64 // 回调已执行
	Discarded     uint64 // 关闭时未处理即丢弃
	Drains        uint64 // 完成的排空轮数
	SlowCallbacks uint64

	// LastDrain 最近一次排空完成时间，零值表示尚未排空过
	LastDrain time.Time
}

// Stats 返回统计快照
func (d *Dispatcher) Stats() Stats {
	if d == nil {
		return Stats{Closed: true}
	}

	s := Stats{
		ID:            d.id,
		MaxSignal:     int(d.registry.MaxSignal()),
		Bound:         d.registry.Len(),
		Pending:       d.queue.Len(),
		Closed:        d.queue.Closed(),
		Emitted:       d.emitted.Load(),
		Rejected:      d.rejected.Load(),
		Dropped:       d.dropped.Load(),
		Dispatched:    d.dispatched.Load(),
		Discarded:     d.discarded.Load(),
		Drains:        d.drains.Load(),
		SlowCallbacks: d.slowCallbacks.Load(),
	}
	if s.Drains > 0 {
		s.LastDrain = time.Unix(0, d.lastDrain.Load())
	}
	return s
}
