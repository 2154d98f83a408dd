package lobby

import (
	"crypto/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/wfunc/word-merge/internal/catalog"
	"github.com/wfunc/word-merge/internal/config"
	"github.com/wfunc/word-merge/internal/leaderboard"
)

// 大厅编号字符集。首字符编码所属工作槽位，
// 借此可以在不查询其他工作进程的情况下识别外部大厅。
const idCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

const idLength = 6

// Manager 工作进程内的大厅注册表
type Manager struct {
	mu      sync.RWMutex
	lobbies map[string]*Lobby

	slot   int
	cfg    config.GameConfig
	cat    *catalog.Catalog
	board  *leaderboard.Board
	logger *zap.Logger
}

// NewManager 创建注册表。slot 为所属工作槽位编号。
func NewManager(slot int, cfg config.GameConfig, cat *catalog.Catalog,
	board *leaderboard.Board, logger *zap.Logger) *Manager {
	return &Manager{
		lobbies: make(map[string]*Lobby),
		slot:    slot,
		cfg:     cfg,
		cat:     cat,
		board:   board,
		logger:  logger,
	}
}

// Create 创建大厅并启动其主循环，房主即刻入座。
// 返回前已向房主推送 lobbyCreated、当前排行榜与开局重置事件。
func (m *Manager) Create(ownerID string, sender Sender) *Lobby {
	m.mu.Lock()
	id := m.newIDLocked()
	l := newLobby(id, &member{sessionID: ownerID, sender: sender},
		m.cfg, m.cat, m.board, m.logger, m.remove, m.BroadcastLeaderboard)
	m.lobbies[id] = l
	m.mu.Unlock()

	// 主循环启动前完成首批推送，空箱快照此时读取无竞争
	_ = sender.SendEvent(EventLobbyCreated, LobbyCreatedData{LobbyID: id, IsOwner: true})
	_ = sender.SendEvent(EventLeaderboardUpdated, LeaderboardData{Leaderboard: m.board.Top()})
	_ = sender.SendEvent(EventStateUpdate, l.snapshot())
	_ = sender.SendEvent(EventGameRestarted, GameRestartedData{Message: "游戏重新开始"})

	go l.Run()

	m.logger.Info("大厅创建",
		zap.String("lobby_id", id),
		zap.String("owner", ownerID))

	return l
}

// Get 按编号查找大厅
func (m *Manager) Get(id string) (*Lobby, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lobbies[id]
	return l, ok
}

// Owns 判断编号是否属于本工作槽位（看首字符的槽位编码）
func (m *Manager) Owns(id string) bool {
	if id == "" {
		return false
	}
	return id[0] == idCharset[m.slot%len(idCharset)]
}

// Count 当前大厅数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lobbies)
}

// BroadcastLeaderboard 将排行榜变化扇出到其余大厅。
// 提交者所在大厅已即时收到榜单，按编号跳过以免重复推送。
// 非阻塞投递，命令队列已满的大厅跳过本次通知。
func (m *Manager) BroadcastLeaderboard(excludeID string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, l := range m.lobbies {
		if id == excludeID {
			continue
		}
		select {
		case l.Inbox <- CmdLeaderboardUpdated{}:
		default:
		}
	}
}

// StopAll 停止全部大厅（工作进程退出时调用）
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.lobbies {
		l.Stop()
		delete(m.lobbies, id)
	}
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.lobbies, id)
	m.mu.Unlock()
	m.logger.Info("大厅移除", zap.String("lobby_id", id))
}

// newIDLocked 生成未占用的大厅编号（调用方持锁）
func (m *Manager) newIDLocked() string {
	for {
		buf := make([]byte, idLength)
		if _, err := rand.Read(buf); err != nil {
			m.logger.Error("随机数生成失败", zap.Error(err))
		}
		id := make([]byte, idLength)
		id[0] = idCharset[m.slot%len(idCharset)]
		for i := 1; i < idLength; i++ {
			id[i] = idCharset[int(buf[i])%len(idCharset)]
		}
		if _, exists := m.lobbies[string(id)]; !exists {
			return string(id)
		}
	}
}
