package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/wfunc/word-merge/internal/config"
	"github.com/wfunc/word-merge/internal/logger"
	"github.com/wfunc/word-merge/internal/router"
)

// 版本信息，构建时注入
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("word-merge server\n")
		fmt.Printf("  Version:    %s\n", Version)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		return
	}

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "日志初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	printBanner()

	log := logger.GetLogger()
	log.Info("服务启动",
		zap.String("version", Version),
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)))

	// 配置热更新仅影响日志级别等运行参数，路由拓扑不变
	config.Watch(func(c *config.Config) {
		log.Info("配置已热更新", zap.String("log_level", c.Log.Level))
	})

	r := router.New(cfg, log)
	if err := r.Start(); err != nil {
		log.Fatal("路由进程启动失败", zap.Error(err))
	}

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("收到退出信号", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		log.Error("优雅关闭失败", zap.Error(err))
	}
	log.Info("服务已退出")
}

func printBanner() {
	fmt.Printf(`
 __        __            _   __  __
 \ \      / /__  _ __ __| | |  \/  | ___ _ __ __ _  ___
  \ \ /\ / / _ \| '__/ _' | | |\/| |/ _ \ '__/ _' |/ _ \
   \ V  V / (_) | | | (_| | | |  | |  __/ | | (_| |  __/
    \_/\_/ \___/|_|  \__,_| |_|  |_|\___|_|  \__, |\___|
                                             |___/
  word-merge game server %s
`, Version)
}
