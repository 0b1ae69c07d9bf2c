// Package main 提供 asyncevent 演示命令行入口
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-asyncevent"
	"github.com/dep2p/go-asyncevent/config"
	"github.com/dep2p/go-asyncevent/internal/util/logger"
)

var log = logger.GlobalLogger()

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖 / 快速测试
//   JSON 配置文件：持久化配置
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	// ─────────────────────────────────────────────────────────────────────
	// 运行参数
	// ─────────────────────────────────────────────────────────────────────
	mode       = flag.String("mode", modeThread, "运行模式 (thread: 独立消费者 + 标准输入触发; loop: 单 goroutine 循环)")
	configFile = flag.String("config", "", "配置文件路径")
	maxSignal  = flag.Int("max-signal", config.DefaultMaxSignal, "最大信号值（含）")
	maxPending = flag.Int("max-pending", 0, "待处理事件上限（0 = 不限）")
	loops      = flag.Int("loops", 0, "loop 模式下的循环次数（0 = 直到中断）")

	// ─────────────────────────────────────────────────────────────────────
	// 可观测性
	// ─────────────────────────────────────────────────────────────────────
	metricsAddr = flag.String("metrics-addr", "", "Prometheus 指标监听地址（如 :9100，为空不启用）")
	logLevel    = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")
	logFile     = flag.String("log", "", "日志文件路径")

	// ─────────────────────────────────────────────────────────────────────
	// 信息显示
	// ─────────────────────────────────────────────────────────────────────
	showVersion = flag.Bool("version", false, "显示版本信息")
	showHelp    = flag.Bool("help", false, "显示帮助信息")
)

const (
	modeThread = "thread"
	modeLoop   = "loop"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(asyncevent.VersionInfo())
		return nil
	}
	if *showHelp {
		printHelp()
		return nil
	}
	if *mode != modeThread && *mode != modeLoop {
		return fmt.Errorf("未知运行模式: %q", *mode)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	// 设置日志
	logHandle, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	if logHandle != nil {
		defer func() { _ = logHandle.Close() }()
	}

	// 构建选项
	opts := buildOptions(cfg)

	var reg *prometheus.Registry
	if *metricsAddr != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, asyncevent.WithMetrics(reg))
	}

	h, err := asyncevent.New(opts...)
	if err != nil {
		return fmt.Errorf("创建调度器失败: %w", err)
	}
	defer func() { _ = h.Close() }()

	demo := newDemo(h, os.Stdout)
	if err := demo.bind(); err != nil {
		return fmt.Errorf("绑定信号失败: %w", err)
	}

	log.Info("启动 asyncevent",
		"version", asyncevent.Version,
		"id", h.ID(),
		"mode", *mode,
		"maxSignal", h.Stats().MaxSignal)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// 中断时关闭句柄，唤醒阻塞中的消费者
	g.Go(func() error {
		<-gctx.Done()
		return h.Close()
	})

	if reg != nil {
		g.Go(func() error {
			return serveMetrics(gctx, *metricsAddr, reg)
		})
	}

	switch *mode {
	case modeThread:
		fmt.Println("输入 a/b/c/d 触发 CLICK/MOVE/PRESS/RELEASE，Ctrl+C 退出")
		g.Go(func() error {
			return h.Run(gctx)
		})
		// 标准输入读取不可取消，不纳入 errgroup
		go func() {
			if err := demo.readInput(os.Stdin); err != nil {
				log.Warn("读取标准输入失败", "err", err)
			}
			waitDrained(gctx, h)
			stop()
		}()
	case modeLoop:
		g.Go(func() error {
			defer stop()
			return demo.loop(gctx, *loops)
		})
	}

	err = g.Wait()

	stats := h.Stats()
	log.Info("asyncevent 已退出",
		"emitted", stats.Emitted,
		"dispatched", stats.Dispatched,
		"discarded", stats.Discarded,
		"drains", stats.Drains)

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// serveMetrics 在 addr 上提供 /metrics，ctx 结束时关闭
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("指标服务已启动", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// waitDrained 等待所有已发射事件的回调执行完（标准输入结束后调用）
//
// 队列为空不代表回调已返回：最后一个 CLICK 回调可能尚未发射 MOVE/PRESS/RELEASE，
// 因此以 Dispatched == Emitted 为准。
func waitDrained(ctx context.Context, h *asyncevent.Handle) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for !drained(h) {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func drained(h *asyncevent.Handle) bool {
	stats := h.Stats()
	return stats.Dispatched == stats.Emitted
}

func printHelp() {
	fmt.Println("asyncevent - 异步事件调度演示")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  asyncevent [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  ASYNCEVENT_MAX_SIGNAL, ASYNCEVENT_MAX_PENDING, ASYNCEVENT_SLOW_CALLBACK_THRESHOLD,")
	fmt.Println("  ASYNCEVENT_METRICS_ENABLED, ASYNCEVENT_METRICS_NAMESPACE, ASYNCEVENT_LOG_FILE,")
	fmt.Println("  ASYNCEVENT_LOG_LEVEL, ASYNCEVENT_LOG_FORMAT")
}
