// Package logger 提供 go-asyncevent 的统一日志系统
//
// 基于标准库 log/slog，支持：
//   - 按子系统配置日志级别
//   - 环境变量配置（ASYNCEVENT_LOG_LEVEL, ASYNCEVENT_LOG_FORMAT）
//   - 结构化日志
//
// 使用示例:
//
//	package queue
//
//	import "github.com/dep2p/go-asyncevent/internal/util/logger"
//
//	var log = logger.Logger("core/queue")
//
//	func foo() {
//	    log.Debug("event queued", "signal", sig, "pending", n)
//	}
//
// 环境变量配置:
//
//	# 所有子系统为 info，调度器为 debug
//	ASYNCEVENT_LOG_LEVEL=core/dispatcher=debug,info
//
//	# 使用 JSON 格式输出
//	ASYNCEVENT_LOG_FORMAT=json
package logger

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	// loggers 缓存各子系统的 Logger
	loggers sync.Map // map[string]*slog.Logger

	// handlers 缓存各子系统的 Handler（用于动态调整级别）
	handlers sync.Map // map[string]*subsystemHandler

	globalLogger     *slog.Logger
	globalLoggerOnce sync.Once

	// levelOverride SetGlobalLevel 设置的级别，之后创建的 Logger 同样使用
	levelOverride atomic.Pointer[slog.Level]
)

// Logger 获取指定子系统的 Logger
//
// Logger 会根据 ASYNCEVENT_LOG_LEVEL 环境变量配置日志级别。
// 同一子系统多次调用会返回相同的 Logger 实例。
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := ConfigFromEnv()
	level := cfg.LevelForSubsystem(subsystem)
	if lv := levelOverride.Load(); lv != nil {
		level = *lv
	}

	handler := newHandler(subsystem, level, cfg.Format)
	logger := slog.New(handler)

	actual, loaded := loggers.LoadOrStore(subsystem, logger)
	if !loaded {
		if h, ok := handler.(*subsystemHandler); ok {
			handlers.Store(subsystem, h)
		}
	}

	return actual.(*slog.Logger)
}

// GlobalLogger 返回全局 Logger
//
// 用于不属于特定子系统的日志。
func GlobalLogger() *slog.Logger {
	globalLoggerOnce.Do(func() {
		globalLogger = Logger("asyncevent")
	})
	return globalLogger
}

// SetLevel 动态设置子系统的日志级别
//
//	logger.SetLevel("core/dispatcher", slog.LevelDebug)
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).SetLevel(level)
	}
}

// SetGlobalLevel 设置所有子系统的日志级别
//
// 对已创建和之后创建的 Logger 均生效。
func SetGlobalLevel(level slog.Level) {
	levelOverride.Store(&level)
	handlers.Range(func(_, value any) bool {
		value.(*subsystemHandler).SetLevel(level)
		return true
	})
}

// Discard 返回一个丢弃所有日志的 Logger
//
// 主要用于测试，避免日志输出干扰测试结果。
func Discard() *slog.Logger {
	return slog.New(DiscardHandler())
}

// With 创建带有预设属性的 Logger
//
//	log := logger.With("core/dispatcher", "dispatcher", id)
func With(subsystem string, args ...any) *slog.Logger {
	return Logger(subsystem).With(args...)
}

// SetOutput 设置全局日志输出目标
//
// 已创建的 Logger 通过 dynamicWriter 写入，切换后立即生效。
func SetOutput(w io.Writer) {
	globalOutputMu.Lock()
	globalOutput = w
	globalOutputMu.Unlock()
}
