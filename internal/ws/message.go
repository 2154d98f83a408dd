package ws

import "encoding/json"

// Message 入站消息信封：事件名加原始载荷
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// envelope 出站消息信封
type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// 入站事件名
const (
	eventAutoCreateLobby = "autoCreateLobby"
	eventJoinLobby       = "joinLobby"
	eventSpawnItemByWord = "spawnItemByWord"
	eventMoveItem        = "moveItem"
	eventDropItem        = "dropItem"
	eventResize          = "resize"
	eventSubmitNickname  = "submitNickname"
)

// 入站载荷

type joinLobbyReq struct {
	LobbyID string `json:"lobbyId"`
}

type spawnItemReq struct {
	TypedWord string `json:"typedWord"`
}

type moveItemReq struct {
	ItemID int     `json:"itemId"`
	X      float64 `json:"x"`
}

type dropItemReq struct {
	ItemID int `json:"itemId"`
}

type resizeReq struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type submitNicknameReq struct {
	Nickname string `json:"nickname"`
}
