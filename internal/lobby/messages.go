package lobby

import "github.com/wfunc/word-merge/internal/leaderboard"

// Sender 向客户端推送事件的抽象，由 websocket 层实现
type Sender interface {
	SendEvent(event string, data interface{}) error
}

// 大厅出站事件名
const (
	EventLobbyCreated       = "lobbyCreated"
	EventJoinedLobby        = "joinedLobby"
	EventJoinError          = "joinError"
	EventPlayerJoined       = "playerJoined"
	EventPlayerLeaved       = "playerLeaved"
	EventLobbyClosed        = "lobbyClosed"
	EventSpawnError         = "spawnError"
	EventItemSpawned        = "itemSpawned"
	EventStateUpdate        = "stateUpdate"
	EventItemCombined       = "itemCombined"
	EventScoreUpdated       = "scoreUpdated"
	EventGameOver           = "gameOver"
	EventGameRestarted      = "gameRestarted"
	EventLeaderboardUpdated = "leaderboardUpdated"
)

// 大厅命令（写入 Inbox，由大厅协程串行处理）

// CmdJoin 加入大厅
type CmdJoin struct {
	SessionID string
	Sender    Sender
	Reply     chan error
}

// CmdLeave 离开大厅（主动退出或断线）
type CmdLeave struct {
	SessionID string
}

// CmdSpawnItem 按单词生成物品
type CmdSpawnItem struct {
	SessionID string
	Word      string
}

// CmdMoveItem 水平移动静态物品
type CmdMoveItem struct {
	SessionID string
	ItemID    int
	X         float64
}

// CmdDropItem 释放物品进入动态模拟
type CmdDropItem struct {
	SessionID string
	ItemID    int
}

// CmdResize 视口尺寸变更
type CmdResize struct {
	Width  float64
	Height float64
}

// CmdSubmitNickname 游戏结束后提交昵称上榜
type CmdSubmitNickname struct {
	SessionID string
	Nickname  string
}

// CmdLeaderboardUpdated 排行榜变化通知（由管理器扇出到各单人大厅）
type CmdLeaderboardUpdated struct{}

// 出站事件载荷

// LobbyCreatedData 大厅创建成功
type LobbyCreatedData struct {
	LobbyID string `json:"lobbyId"`
	IsOwner bool   `json:"isOwner"`
}

// JoinedLobbyData 加入成功，发给加入者
type JoinedLobbyData struct {
	LobbyID     string `json:"lobbyId"`
	IsOwner     bool   `json:"isOwner"`
	PlayerCount int    `json:"playerCount"`
}

// JoinErrorData 加入失败
type JoinErrorData struct {
	Message string `json:"message"`
}

// PlayerJoinedData 新玩家加入广播
type PlayerJoinedData struct {
	PlayerID    string `json:"playerId"`
	PlayerCount int    `json:"playerCount"`
}

// PlayerLeavedData 玩家离开广播
type PlayerLeavedData struct {
	PlayerID    string `json:"playerId"`
	PlayerCount int    `json:"playerCount"`
}

// LobbyClosedData 大厅关闭广播
type LobbyClosedData struct {
	Message string `json:"message"`
}

// SpawnErrorData 生成物品失败
type SpawnErrorData struct {
	Message string `json:"message"`
}

// ItemSpawnedData 物品生成广播
type ItemSpawnedData struct {
	ItemID      int    `json:"itemId"`
	Word        string `json:"word"`
	RarityName  string `json:"rarityName"`
	Sprite      string `json:"sprite"`
	Owner       bool   `json:"owner"`
	PlayerCount int    `json:"playerCount"`
}

// ItemState 单个物品的帧快照
type ItemState struct {
	ID         int     `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Angle      float64 `json:"angle"`
	Radius     float64 `json:"radius"`
	Word       string  `json:"word"`
	RarityName string  `json:"rarityName"`
	Sprite     string  `json:"sprite"`
}

// ItemCombinedData 合成事件
type ItemCombinedData struct {
	OldA      int    `json:"oldA"`
	OldB      int    `json:"oldB"`
	NewID     int    `json:"newId"`
	NewWord   string `json:"newWord"`
	NewRarity string `json:"newRarity"`
	Sprite    string `json:"sprite"`
}

// ScoreUpdatedData 计分事件
type ScoreUpdatedData struct {
	ScoringPlayer string         `json:"scoringPlayer"`
	PointsGained  int            `json:"pointsGained"`
	Scores        map[string]int `json:"scores"`
}

// GameOverData 游戏结束
type GameOverData struct {
	WinnerID   string `json:"winnerId"`
	FinalScore int    `json:"finalScore"`
	Message    string `json:"message"`
}

// GameRestartedData 游戏重置
type GameRestartedData struct {
	Message string `json:"message"`
}

// LeaderboardData 排行榜推送
type LeaderboardData struct {
	Leaderboard []leaderboard.Record `json:"leaderboard"`
}
