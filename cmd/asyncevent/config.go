package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dep2p/go-asyncevent"
	"github.com/dep2p/go-asyncevent/config"
	"github.com/dep2p/go-asyncevent/internal/util/logger"
)

// ============================================================================
//                              配置加载（CLI 专用）
// ============================================================================

// loadConfig 加载配置
//
// 配置优先级（从高到低）：
//  1. 命令行参数（见 buildOptions）
//  2. 环境变量（ASYNCEVENT_* 前缀）
//  3. 配置文件
//  4. 默认值
func loadConfig(path string) (*config.Config, error) {
	cfg := config.NewConfig()
	if path != "" {
		var err error
		cfg, err = config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}

	config.ApplyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildOptions 根据配置与显式设置的命令行参数构建选项
//
// WithConfig 必须在最前，之后的单项选项覆盖配置文件中的值。
func buildOptions(cfg *config.Config) []asyncevent.Option {
	opts := []asyncevent.Option{asyncevent.WithConfig(cfg)}

	if isFlagSet("max-signal") {
		opts = append(opts, asyncevent.WithMaxSignal(asyncevent.Signal(*maxSignal)))
	}
	if isFlagSet("max-pending") {
		opts = append(opts, asyncevent.WithMaxPending(*maxPending))
	}

	// CLI 自行驱动消费者
	opts = append(opts, asyncevent.WithWorkers(0))

	return opts
}

// setupLogging 设置日志输出与级别
//
// 日志文件：命令行 > 环境变量/配置文件；为空时输出到 stderr。
// 日志级别：命令行 > 配置文件 > ASYNCEVENT_LOG_LEVEL。
func setupLogging(cfg *config.Config) (*os.File, error) {
	levelName := *logLevel
	if levelName == "" {
		levelName = cfg.Log.Level
	}
	if levelName != "" {
		level, ok := logger.ParseLevel(levelName)
		if !ok {
			return nil, fmt.Errorf("无效的日志级别: %q", levelName)
		}
		logger.SetGlobalLevel(level)
	}

	path := *logFile
	if path == "" {
		path = cfg.Log.File
	}
	if path == "" {
		return nil, nil
	}

	// 确保日志目录存在
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // G304: 用户指定的日志路径是预期行为
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}

	logger.SetOutput(file)
	return file, nil
}

// isFlagSet 检查命令行参数是否被显式设置
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
