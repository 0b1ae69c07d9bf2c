package queue

import (
	"container/list"
	"context"
	"sync"

	"github.com/dep2p/go-asyncevent/internal/util/logger"
	"github.com/dep2p/go-asyncevent/pkg/interfaces"
)

var log = logger.Logger("core/queue")

// Event 待处理事件
type Event struct {
	// Signal 信号值
	Signal interfaces.Signal

	// Arg 发射方传入的参数，队列不持有、不复制
	Arg any
}

// Queue 事件队列
//
// 所有修改都在 mu 下进行；cond 仅用于在队列为空时避免忙等。
type Queue struct {
	mu   sync.Mutex
	cond *sync.Cond

	// items 双端队列（使用链表实现，两端 O(1) 插入）
	items *list.List

	// limit 待处理事件上限，<= 0 表示不限
	limit int

	closed bool
}

// New 创建事件队列
func New(limit int) *Queue {
	q := &Queue{
		items: list.New(),
		limit: limit,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push 入队事件
//
// front 为 true 时插入队首，否则追加到队尾。成功后唤醒一个等待中的消费者。
// 返回入队后的队列长度。
//
// 错误：
//   - ErrClosed: 队列已关闭
//   - ErrAllocationFailure: 队列已达上限，事件被丢弃
func (q *Queue) Push(front bool, ev Event) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return q.items.Len(), interfaces.ErrClosed
	}
	if q.limit > 0 && q.items.Len() >= q.limit {
		return q.items.Len(), interfaces.ErrAllocationFailure
	}

	if front {
		q.items.PushFront(ev)
	} else {
		q.items.PushBack(ev)
	}
	q.cond.Signal()

	return q.items.Len(), nil
}

// Pop 取出队首事件
//
// 队列为空时返回 ok=false。remaining 为取出后剩余的事件数。
func (q *Queue) Pop() (ev Event, remaining int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	front := q.items.Front()
	if front == nil {
		return Event{}, 0, false
	}
	ev = q.items.Remove(front).(Event)
	return ev, q.items.Len(), true
}

// Wait 阻塞直到队列非空
//
// 等待期间释放锁，被唤醒后重新检查队列状态（容忍虚假唤醒）。
// 队列关闭时返回 ErrClosed，ctx 结束时返回 ctx.Err()。
func (q *Queue) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// ctx 结束时广播，唤醒阻塞在 cond 上的等待者
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Len() == 0 {
		if q.closed {
			return interfaces.ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		q.cond.Wait()
	}
	return nil
}

// Len 返回待处理事件数
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Closed 检查队列是否已关闭
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close 关闭队列
//
// 丢弃所有未处理事件并唤醒所有等待者。返回被丢弃的事件数，
// first 表示本次调用是否真正执行了关闭（重复调用返回 0, false）。
func (q *Queue) Close() (discarded int, first bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0, false
	}
	q.closed = true

	discarded = q.items.Len()
	q.items.Init()
	q.cond.Broadcast()

	if discarded > 0 {
		log.Debug("queue closed with pending events", "discarded", discarded)
	}
	return discarded, true
}
