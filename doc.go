// Package asyncevent 提供进程内异步事件调度
//
// 生产方把“信号 + 参数”放入队列，消费方在自己的 goroutine 上排空队列并执行
// 预先绑定的回调。生产方从不直接执行回调。
//
// # 核心概念
//
//   - Signal: 小整数事件标识，有效范围 [0, MaxSignal]
//   - Callback: 绑定到信号的回调，每个信号只能绑定一次
//   - Handle: 调度器句柄，持有绑定表与事件队列
//
// # 快速开始
//
//	import "github.com/dep2p/go-asyncevent"
//
//	const (
//	    Click asyncevent.Signal = iota + 1
//	    Move
//	)
//
//	h, err := asyncevent.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close()
//
//	_ = h.Bind(Click, onClick)
//	_ = h.Bind(Move, onMove)
//
//	go h.Run(ctx)
//
//	_ = h.EmitBack(Click, &pos)  // 追加到队尾
//	_ = h.EmitFront(Move, &pos)  // 插入队首，优先处理
//
// # 排空语义
//
// Process 在队列为空时阻塞；被唤醒后逐个“加锁取出 → 解锁 → 执行回调”，
// 直到队列为空才返回。回调在锁外执行，因此回调中可以再次 Emit；
// 优先发射的事件会在本轮排空中紧接着被处理。
//
// 回调中 Emit 自身信号会让本轮排空无法结束，由调用方负责避免。
//
// # 关闭
//
// Close 丢弃未处理事件（不执行其回调），唤醒阻塞的 Process 使其返回 ErrClosed，
// 之后的 Emit 返回 ErrClosed。
//
// # 配置
//
// 通过 Option 配置，或用 WithConfig / WithConfigFile 加载完整配置：
//
//	h, err := asyncevent.New(
//	    asyncevent.WithMaxSignal(255),
//	    asyncevent.WithMaxPending(10000),
//	    asyncevent.WithWorkers(1),
//	    asyncevent.WithMetrics(prometheus.DefaultRegisterer),
//	)
//
// # 文件组织
//
//	asyncevent.go  Handle 与版本信息
//	options.go     Option 定义
//	errors.go      错误定义
//	fx.go          Fx 应用组装
package asyncevent
