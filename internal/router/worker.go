package router

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wfunc/word-merge/internal/catalog"
	"github.com/wfunc/word-merge/internal/config"
	"github.com/wfunc/word-merge/internal/leaderboard"
	"github.com/wfunc/word-merge/internal/lobby"
	"github.com/wfunc/word-merge/internal/ws"
)

// connListener 由路由进程投喂连接的 net.Listener 实现
type connListener struct {
	ch        chan net.Conn
	addr      net.Addr
	done      chan struct{}
	closeOnce sync.Once
}

func newConnListener(addr net.Addr) *connListener {
	return &connListener{
		ch:   make(chan net.Conn, 64),
		addr: addr,
		done: make(chan struct{}),
	}
}

func (l *connListener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.ch:
		return conn, nil
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *connListener) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	return nil
}

func (l *connListener) Addr() net.Addr { return l.addr }

// Worker 集群内单个游戏服务单元：
// 独立的大厅注册表、排行榜与 HTTP 服务，经投喂的连接提供服务。
type Worker struct {
	slot     int
	listener *connListener
	srv      *http.Server
	manager  *lobby.Manager
	hub      *ws.Hub
	board    *leaderboard.Board
	logger   *zap.Logger
}

// NewWorker 创建工作单元
func NewWorker(slot int, cfg *config.Config, addr net.Addr, logger *zap.Logger) *Worker {
	wlog := logger.With(zap.Int("worker", slot))

	board := leaderboard.New(cfg.Leaderboard.Size, cfg.Leaderboard.TTL, wlog)
	manager := lobby.NewManager(slot, cfg.Game, catalog.Default(), board, wlog)
	hub := ws.NewHub(wlog)
	handler := ws.NewHandler(manager, wlog)
	gateway := ws.NewGateway(hub, handler, cfg.WebSocket, wlog)

	gin.SetMode(ginMode(cfg.Server.Mode))
	engine := gin.New()
	engine.Use(gin.Recovery())

	w := &Worker{
		slot:     slot,
		listener: newConnListener(addr),
		manager:  manager,
		hub:      hub,
		board:    board,
		logger:   wlog,
	}

	engine.GET(cfg.WebSocket.Path, gateway.HandleConnection)
	engine.GET("/health", w.handleHealth)
	engine.GET("/api/v1/leaderboard", w.handleLeaderboard)

	w.srv = &http.Server{Handler: engine}
	return w
}

// Serve 在投喂监听器上服务，阻塞直至关闭。
// 异常返回交由路由进程重建本槽位。
func (w *Worker) Serve() error {
	w.logger.Info("工作单元启动")
	err := w.srv.Serve(w.listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Handoff 接收路由进程投喂的连接。
// 队列已满时拒绝连接，避免拖垮接入循环。
func (w *Worker) Handoff(conn net.Conn) {
	select {
	case w.listener.ch <- conn:
	case <-w.listener.done:
		_ = conn.Close()
	default:
		w.logger.Warn("连接队列已满，拒绝连接",
			zap.String("remote", conn.RemoteAddr().String()))
		_ = conn.Close()
	}
}

// Shutdown 优雅退出：停大厅、断连接、关服务
func (w *Worker) Shutdown(ctx context.Context) error {
	w.manager.StopAll()
	w.hub.CloseAll()
	return w.srv.Shutdown(ctx)
}

// ginMode 运行模式映射到 gin 的模式常量
func ginMode(mode string) string {
	switch mode {
	case "production", "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

func (w *Worker) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"worker":  w.slot,
		"lobbies": w.manager.Count(),
		"clients": w.hub.Count(),
	})
}

func (w *Worker) handleLeaderboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"leaderboard": w.board.Top(),
	})
}
