package ws

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/wfunc/word-merge/internal/errors"
	"github.com/wfunc/word-merge/internal/lobby"
)

// Handler 入站事件分发器：把客户端消息转成大厅命令
type Handler struct {
	manager *lobby.Manager
	logger  *zap.Logger
}

// NewHandler 创建分发器
func NewHandler(manager *lobby.Manager, logger *zap.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

// Handle 处理一条入站消息。在客户端读协程内串行调用。
func (h *Handler) Handle(c *Client, msg Message) {
	switch msg.Event {
	case eventAutoCreateLobby:
		h.autoCreateLobby(c)
	case eventJoinLobby:
		h.joinLobby(c, msg.Data)
	case eventSpawnItemByWord:
		var req spawnItemReq
		if decode(c, msg.Data, &req) {
			h.toLobby(c, lobby.CmdSpawnItem{SessionID: c.ID, Word: req.TypedWord})
		}
	case eventMoveItem:
		var req moveItemReq
		if decode(c, msg.Data, &req) {
			h.toLobby(c, lobby.CmdMoveItem{SessionID: c.ID, ItemID: req.ItemID, X: req.X})
		}
	case eventDropItem:
		var req dropItemReq
		if decode(c, msg.Data, &req) {
			h.toLobby(c, lobby.CmdDropItem{SessionID: c.ID, ItemID: req.ItemID})
		}
	case eventResize:
		var req resizeReq
		if decode(c, msg.Data, &req) {
			h.toLobby(c, lobby.CmdResize{Width: req.Width, Height: req.Height})
		}
	case eventSubmitNickname:
		var req submitNicknameReq
		if decode(c, msg.Data, &req) {
			h.toLobby(c, lobby.CmdSubmitNickname{SessionID: c.ID, Nickname: req.Nickname})
		}
	default:
		h.logger.Debug("未知入站事件",
			zap.String("event", msg.Event),
			zap.String("client_id", c.ID))
	}
}

// OnDisconnect 连接断开：从所在大厅退出
func (h *Handler) OnDisconnect(c *Client) {
	if c.lobbyID == "" {
		return
	}
	if l, ok := h.manager.Get(c.lobbyID); ok {
		select {
		case l.Inbox <- lobby.CmdLeave{SessionID: c.ID}:
		case <-l.Done():
		}
	}
	c.lobbyID = ""
}

func (h *Handler) autoCreateLobby(c *Client) {
	if c.lobbyID != "" {
		h.logger.Debug("客户端已在大厅中，忽略创建请求",
			zap.String("client_id", c.ID),
			zap.String("lobby_id", c.lobbyID))
		return
	}
	l := h.manager.Create(c.ID, c)
	c.lobbyID = l.ID()
}

func (h *Handler) joinLobby(c *Client, raw json.RawMessage) {
	var req joinLobbyReq
	if !decode(c, raw, &req) {
		return
	}
	if c.lobbyID != "" {
		_ = c.SendEvent(lobby.EventJoinError, lobby.JoinErrorData{
			Message: errors.Message(errors.ErrAlreadyExists),
		})
		return
	}

	// 大厅编号首字符编码所属工作槽位，
	// 粘性路由把客户端送错进程时可以直接判定失败
	if !h.manager.Owns(req.LobbyID) {
		_ = c.SendEvent(lobby.EventJoinError, lobby.JoinErrorData{
			Message: errors.Message(errors.ErrLobbyNotFound),
		})
		return
	}

	l, ok := h.manager.Get(req.LobbyID)
	if !ok {
		_ = c.SendEvent(lobby.EventJoinError, lobby.JoinErrorData{
			Message: errors.Message(errors.ErrLobbyNotFound),
		})
		return
	}

	// 大厅解散时主循环不再消费队列，入座应答必须与关闭信号一起等待，
	// 否则读协程会在 reply 上永久阻塞
	reply := make(chan error, 1)
	select {
	case l.Inbox <- lobby.CmdJoin{SessionID: c.ID, Sender: c, Reply: reply}:
	case <-l.Done():
		_ = c.SendEvent(lobby.EventJoinError, lobby.JoinErrorData{
			Message: errors.Message(errors.ErrLobbyClosed),
		})
		return
	}

	var err error
	select {
	case err = <-reply:
	case <-l.Done():
		// 关闭与应答可能同帧到达，优先取已写入的应答
		select {
		case err = <-reply:
		default:
			err = errors.New(errors.ErrLobbyClosed)
		}
	}
	if err != nil {
		_ = c.SendEvent(lobby.EventJoinError, lobby.JoinErrorData{
			Message: errors.Message(errors.GetCode(err)),
		})
		return
	}
	c.lobbyID = req.LobbyID
}

// toLobby 把命令投递到客户端所在大厅
func (h *Handler) toLobby(c *Client, cmd interface{}) {
	if c.lobbyID == "" {
		return
	}
	l, ok := h.manager.Get(c.lobbyID)
	if !ok {
		c.lobbyID = ""
		return
	}
	select {
	case l.Inbox <- cmd:
	default:
		h.logger.Warn("大厅命令队列已满，消息丢弃",
			zap.String("lobby_id", c.lobbyID))
	}
}

// decode 解析载荷，失败时静默丢弃并记录
func decode(c *Client, raw json.RawMessage, v interface{}) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		c.logger.Debug("载荷解析失败", zap.Error(err))
		return false
	}
	return true
}
