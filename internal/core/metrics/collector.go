package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-asyncevent/internal/util/logger"
	"github.com/dep2p/go-asyncevent/pkg/interfaces"
)

var log = logger.Logger("core/metrics")

// 拒绝原因标签值
const (
	ReasonOutOfRange        = "out_of_range"
	ReasonUnbound           = "unbound"
	ReasonClosed            = "closed"
	ReasonAllocationFailure = "allocation_failure"
	ReasonInvalid           = "invalid"
)

// Collector 调度器指标收集器
type Collector struct {
	emitted    *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	dispatched *prometheus.CounterVec
	discarded  prometheus.Counter
	pending    prometheus.Gauge
	duration   prometheus.Histogram
}

// NewCollector 创建指标收集器
//
// namespace 为空时使用 "asyncevent"；dispatcherID 作为常量标签区分不同调度器。
func NewCollector(namespace, dispatcherID string) *Collector {
	if namespace == "" {
		namespace = "asyncevent"
	}
	constLabels := prometheus.Labels{"dispatcher": dispatcherID}

	return &Collector{
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "events",
			Name:        "emitted_total",
			Help:        "Number of events accepted into the queue.",
			ConstLabels: constLabels,
		}, []string{"signal", "priority"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "events",
			Name:        "rejected_total",
			Help:        "Number of emit calls rejected before or at enqueue.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "events",
			Name:        "dispatched_total",
			Help:        "Number of events whose callback has returned.",
			ConstLabels: constLabels,
		}, []string{"signal"}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "events",
			Name:        "discarded_total",
			Help:        "Number of queued events freed undelivered on close.",
			ConstLabels: constLabels,
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "events",
			Name:        "pending",
			Help:        "Number of events currently queued.",
			ConstLabels: constLabels,
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "callback_duration_seconds",
			Help:        "Time spent inside bound callbacks.",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
}

// Collectors 返回全部 Prometheus 收集器
func (c *Collector) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.emitted, c.rejected, c.dispatched, c.discarded, c.pending, c.duration,
	}
}

// Register 将全部收集器注册到 reg
//
// 已注册的同名收集器被视为成功（复用同一 Registry 重复注册时不报错）。
func (c *Collector) Register(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	for _, col := range c.Collectors() {
		if err := reg.Register(col); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				log.Debug("collector already registered")
				continue
			}
			return err
		}
	}
	return nil
}

// Unregister 从 reg 注销全部收集器
func (c *Collector) Unregister(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	for _, col := range c.Collectors() {
		reg.Unregister(col)
	}
}

// ============================================================================
// dispatcher.Recorder 实现
// ============================================================================

// Emitted 记录成功入队
func (c *Collector) Emitted(sig interfaces.Signal, priority bool) {
	c.emitted.WithLabelValues(signalLabel(sig), strconv.FormatBool(priority)).Inc()
}

// Rejected 记录被拒绝的发射
func (c *Collector) Rejected(reason string) {
	c.rejected.WithLabelValues(reason).Inc()
}

// Dispatched 记录回调执行完成
func (c *Collector) Dispatched(sig interfaces.Signal, elapsed time.Duration) {
	c.dispatched.WithLabelValues(signalLabel(sig)).Inc()
	c.duration.Observe(elapsed.Seconds())
}

// Discarded 记录关闭时丢弃的事件
func (c *Collector) Discarded(n int) {
	if n > 0 {
		c.discarded.Add(float64(n))
	}
}

// Pending 更新待处理事件数
func (c *Collector) Pending(n int) {
	c.pending.Set(float64(n))
}

func signalLabel(sig interfaces.Signal) string {
	return strconv.Itoa(int(sig))
}

// ReasonFor 将错误映射为拒绝原因标签
func ReasonFor(err error) string {
	switch {
	case errors.Is(err, interfaces.ErrOutOfRange):
		return ReasonOutOfRange
	case errors.Is(err, interfaces.ErrUnbound):
		return ReasonUnbound
	case errors.Is(err, interfaces.ErrClosed):
		return ReasonClosed
	case errors.Is(err, interfaces.ErrAllocationFailure):
		return ReasonAllocationFailure
	default:
		return ReasonInvalid
	}
}
