// Package metrics 提供调度器的 Prometheus 指标
//
// Collector 实现 dispatcher.Recorder，记录：
//   - asyncevent_events_emitted_total{signal,priority}   成功入队的事件
//   - asyncevent_events_rejected_total{reason}          被拒绝的事件（out_of_range/unbound/closed/allocation_failure）
//   - asyncevent_events_dispatched_total{signal}         已执行回调的事件
//   - asyncevent_events_discarded_total                  关闭时未处理即丢弃的事件
//   - asyncevent_events_pending                          当前待处理事件数
//   - asyncevent_callback_duration_seconds               回调执行耗时
//
// 每个 Collector 携带 dispatcher 常量标签，同一 Registry 可注册多个调度器的指标。
//
// # 快速开始
//
//	c := metrics.NewCollector("asyncevent", dispatcherID)
//	if err := c.Register(prometheus.DefaultRegisterer); err != nil {
//	    return err
//	}
package metrics
