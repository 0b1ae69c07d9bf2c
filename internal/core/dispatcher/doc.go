// Package dispatcher 实现进程内异步事件调度器
//
// 调度器由三部分协作组成：
//   - registry.Registry: 信号 → 回调的绑定表（只写一次）
//   - queue.Queue: 带优先插入的线程安全事件队列
//   - Dispatcher: 生产侧 Emit 与消费侧 Process（一次完整排空）
//
// # 快速开始
//
//	d := dispatcher.New(dispatcher.Options{MaxSignal: interfaces.DefaultMaxSignal})
//	defer d.Close()
//
//	_ = d.Bind(Click, func(arg any) { ... })
//
//	go func() { _ = d.Run(ctx) }()
//
//	_ = d.Emit(false, Click, &x) // 追加到队尾
//	_ = d.Emit(true, Click, &y)  // 插入队首
//
// # 排空语义
//
// Process 在队列为空时阻塞。被唤醒后按“加锁取队首 → 解锁 → 执行回调”循环，
// 直到加锁检查发现队列为空；排空期间新入队的事件（包括回调中 Emit 的事件）
// 也在同一轮中处理。回调中 Emit 自身信号会导致本轮永不结束，由调用方负责避免。
//
// # 关闭
//
// Close 丢弃未处理事件并唤醒所有阻塞的 Process，使其返回 interfaces.ErrClosed。
//
// # Fx 模块
//
//	app := fx.New(
//	    fx.Supply(cfg),
//	    dispatcher.Module(),
//	    fx.Invoke(func(d interfaces.Dispatcher) {
//	        _ = d.Bind(Click, onClick)
//	    }),
//	)
//
// # 并发安全
//
//   - 绑定表：RWMutex 保护
//   - 事件队列：Mutex + Cond，关闭状态与修改共用同一把锁
//   - 统计计数：atomic
package dispatcher
