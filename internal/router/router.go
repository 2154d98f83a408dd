package router

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/wfunc/word-merge/internal/config"
)

// stableHash 客户端地址的稳定哈希。
// 31进制字符串哈希，按32位有符号整型溢出后取非负值，
// 保证同一来源地址始终落在同一工作槽位。
func stableHash(s string) int {
	var h int32
	for _, c := range []byte(s) {
		h = (h << 5) - h + int32(c)
	}
	// 取负无法处理最小值溢出，直接屏蔽符号位
	return int(h & 0x7fffffff)
}

// Router 接入路由进程：按来源地址把 TCP 连接
// 粘性分发到固定的工作单元，并监督其存活。
type Router struct {
	cfg    *config.Config
	logger *zap.Logger

	mu       sync.RWMutex
	workers  []*Worker
	listener net.Listener

	quit      chan struct{}
	closeOnce sync.Once
}

// New 创建路由进程
func New(cfg *config.Config, logger *zap.Logger) *Router {
	return &Router{
		cfg:    cfg,
		logger: logger,
		quit:   make(chan struct{}),
	}
}

// Start 监听端口、拉起工作单元并开始分发连接
func (r *Router) Start() error {
	addr := fmt.Sprintf("%s:%d", r.cfg.Server.Host, r.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("监听失败 %s: %w", addr, err)
	}
	r.listener = ln

	n := r.cfg.Server.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	r.workers = make([]*Worker, n)
	for slot := 0; slot < n; slot++ {
		r.spawnWorker(slot)
	}

	r.logger.Info("路由进程启动",
		zap.String("addr", addr),
		zap.Int("workers", n))

	go r.acceptLoop()
	return nil
}

// spawnWorker 拉起指定槽位的工作单元并监督：
// 异常退出时原槽位重建，该单元上的大厅随之丢失。
func (r *Router) spawnWorker(slot int) {
	w := NewWorker(slot, r.cfg, r.listener.Addr(), r.logger)

	r.mu.Lock()
	r.workers[slot] = w
	r.mu.Unlock()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("工作单元崩溃",
					zap.Int("worker", slot),
					zap.Any("panic", rec))
				r.restart(slot)
			}
		}()
		if err := w.Serve(); err != nil {
			r.logger.Error("工作单元异常退出",
				zap.Int("worker", slot),
				zap.Error(err))
			r.restart(slot)
		}
	}()
}

func (r *Router) restart(slot int) {
	select {
	case <-r.quit:
		return
	default:
	}
	r.logger.Info("重建工作单元", zap.Int("worker", slot))
	r.spawnWorker(slot)
}

// acceptLoop 接入循环：哈希来源地址后投喂对应工作单元
func (r *Router) acceptLoop() {
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			select {
			case <-r.quit:
				return
			default:
			}
			r.logger.Error("接受连接失败", zap.Error(err))
			return
		}

		host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
		if err != nil {
			host = conn.RemoteAddr().String()
		}

		r.mu.RLock()
		w := r.workers[stableHash(host)%len(r.workers)]
		r.mu.RUnlock()

		w.Handoff(conn)
	}
}

// Shutdown 优雅退出：停止接入并依次关闭工作单元
func (r *Router) Shutdown(ctx context.Context) error {
	r.closeOnce.Do(func() { close(r.quit) })
	if r.listener != nil {
		_ = r.listener.Close()
	}

	r.mu.RLock()
	workers := make([]*Worker, len(r.workers))
	copy(workers, r.workers)
	r.mu.RUnlock()

	var firstErr error
	for _, w := range workers {
		if w == nil {
			continue
		}
		if err := w.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
