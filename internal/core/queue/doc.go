// Package queue 实现带优先插入的线程安全事件队列
//
// Queue 是调度器唯一的共享可变资源：
//   - Push(front=true) 插入队首，下一个被处理
//   - Push(front=false) 追加到队尾，保持同优先级事件的到达顺序
//   - Wait 在队列为空时阻塞于条件变量，循环重检以容忍虚假唤醒
//   - Close 进入关闭状态（与修改共用同一把锁），丢弃剩余事件并唤醒所有等待者
//
// 队列不提供 peek/cancel 操作。事件一旦入队，只会被 Pop 取出一次，
// 或在 Close 时被丢弃。
package queue
