package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wfunc/word-merge/internal/config"
	"github.com/wfunc/word-merge/internal/errors"
)

// Client 单个 websocket 连接。
// 读协程串行解析入站事件，写协程串行消费发送队列。
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte

	hub     *Hub
	handler *Handler
	cfg     config.WebSocketConfig
	logger  *zap.Logger

	// 当前所在大厅编号，仅由读协程访问
	lobbyID string

	closeOnce sync.Once
}

// NewClient 包装升级完成的连接
func NewClient(conn *websocket.Conn, hub *Hub, handler *Handler,
	cfg config.WebSocketConfig, logger *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		ID:      id,
		conn:    conn,
		send:    make(chan []byte, cfg.SendBuffer),
		hub:     hub,
		handler: handler,
		cfg:     cfg,
		logger:  logger.With(zap.String("client_id", id)),
	}
}

// SendEvent 向客户端推送事件。队列已满时丢弃并记录，
// 避免慢客户端拖垮大厅循环。
func (c *Client) SendEvent(event string, data interface{}) error {
	payload, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		return errors.Wrap(err, errors.ErrMessageFormat)
	}

	select {
	case c.send <- payload:
		return nil
	default:
		c.logger.Warn("发送队列已满，消息丢弃", zap.String("event", event))
		return errors.New(errors.ErrWebSocketSend)
	}
}

// ReadPump 读协程：解析入站消息并分发，连接断开时清理会话
func (c *Client) ReadPump() {
	defer func() {
		c.handler.OnDisconnect(c)
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("连接异常断开", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.Debug("入站消息解析失败", zap.Error(err))
			continue
		}
		c.handler.Handle(c, msg)
	}
}

// WritePump 写协程：消费发送队列并维持心跳
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close 关闭底层连接（幂等）
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}
