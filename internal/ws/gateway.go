package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wfunc/word-merge/internal/config"
)

// Gateway websocket 接入点：升级连接并启动读写协程
type Gateway struct {
	hub      *Hub
	handler  *Handler
	cfg      config.WebSocketConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewGateway 创建接入点
func NewGateway(hub *Hub, handler *Handler, cfg config.WebSocketConfig, logger *zap.Logger) *Gateway {
	return &Gateway{
		hub:     hub,
		handler: handler,
		cfg:     cfg,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			// 游戏客户端来源不固定
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnection gin 路由入口
func (g *Gateway) HandleConnection(ctx *gin.Context) {
	conn, err := g.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		g.logger.Error("websocket 升级失败", zap.Error(err))
		return
	}

	client := NewClient(conn, g.hub, g.handler, g.cfg, g.logger)
	g.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
