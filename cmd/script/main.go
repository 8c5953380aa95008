package main

import (
	"context"
	"os"
	"time"

	"web3-trader/internal/engine/config"
	"web3-trader/internal/engine/job"
	"web3-trader/internal/engine/repository"
	"web3-trader/pkg/logger"

	"go.uber.org/zap"
)

// 一次性维护任务：清理保留期之外的历史数据

func main() {
	startTime := time.Now()
	// 初始化配置文件
	cfg := config.InitConfig()

	// 初始化 trace provider
	logger.InitTrace("web3-trader", "script")
	// 启动主 span
	ctx, span := logger.StartSpan(context.Background(), "main", "main")
	defer span.End()

	// 创建 root logger 并注入 trace 上下文
	rootLogger := logger.NewLogger("script")
	logger.SetLogLevel(cfg.Log.Level)
	tl := logger.WithTrace(ctx, rootLogger)

	// 初始化 repository
	repo := repository.New(cfg, tl)
	defer repo.Close()

	tl.Info("Starting web3-trader history cleanup...")
	cleanup := job.NewCleanupJob(repo, tl)
	if err := cleanup.Run(ctx); err != nil {
		tl.Error("Failed to run cleanup", zap.Error(err))
		os.Exit(1)
	}
	tl.Info("Task completed successfully", zap.Duration("taken_time", time.Since(startTime)))
}
