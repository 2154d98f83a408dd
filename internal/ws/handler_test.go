package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wfunc/word-merge/internal/catalog"
	"github.com/wfunc/word-merge/internal/config"
	"github.com/wfunc/word-merge/internal/errors"
	"github.com/wfunc/word-merge/internal/leaderboard"
	"github.com/wfunc/word-merge/internal/lobby"
)

func newTestHandler(t *testing.T) (*Handler, *lobby.Manager) {
	t.Helper()
	board := leaderboard.New(5, 7*24*time.Hour, zap.NewNop())
	m := lobby.NewManager(0, config.GameConfig{
		TickRate:     30,
		SimWidth:     800,
		SimHeight:    600,
		BoxWidth:     400,
		Gravity:      980,
		ItemRadius:   20,
		ResultRadius: 25,
	}, catalog.Default(), board, zap.NewNop())
	t.Cleanup(m.StopAll)
	return NewHandler(m, zap.NewNop()), m
}

// newTestClient 无底层连接的客户端，事件堆积在发送队列中直接断言
func newTestClient(id string) *Client {
	return &Client{
		ID:     id,
		send:   make(chan []byte, 64),
		logger: zap.NewNop(),
	}
}

// awaitEvent 从发送队列取出指定事件，超时即失败
func awaitEvent(t *testing.T, c *Client, event string) Message {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case raw := <-c.send:
			var msg Message
			require.NoError(t, json.Unmarshal(raw, &msg))
			if msg.Event == event {
				return msg
			}
		case <-deadline:
			t.Fatalf("等待事件超时: %s", event)
		}
	}
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func joinErrorMessage(t *testing.T, msg Message) string {
	t.Helper()
	var data lobby.JoinErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	return data.Message
}

func TestJoinLobbyUnknownID(t *testing.T) {
	h, m := newTestHandler(t)
	c := newTestClient("client-1")

	// 首字符槽位匹配但大厅不存在
	h.joinLobby(c, mustMarshal(t, joinLobbyReq{LobbyID: "a1b2c3"}))

	msg := awaitEvent(t, c, lobby.EventJoinError)
	assert.Equal(t, errors.Message(errors.ErrLobbyNotFound), joinErrorMessage(t, msg))
	assert.Empty(t, c.lobbyID, "加入失败不应改变会话归属")
	assert.Equal(t, 0, m.Count())
}

func TestJoinLobbyForeignSlot(t *testing.T) {
	h, _ := newTestHandler(t)
	c := newTestClient("client-1")

	// 槽位0的大厅编号以 'a' 开头，'z' 开头属于其他工作单元
	h.joinLobby(c, mustMarshal(t, joinLobbyReq{LobbyID: "z9z9z9"}))

	msg := awaitEvent(t, c, lobby.EventJoinError)
	assert.Equal(t, errors.Message(errors.ErrLobbyNotFound), joinErrorMessage(t, msg))
	assert.Empty(t, c.lobbyID)
}

func TestJoinLobbyAlreadyInLobby(t *testing.T) {
	h, _ := newTestHandler(t)
	c := newTestClient("client-1")
	c.lobbyID = "a1b2c3"

	h.joinLobby(c, mustMarshal(t, joinLobbyReq{LobbyID: "a9z8x7"}))

	msg := awaitEvent(t, c, lobby.EventJoinError)
	assert.Equal(t, errors.Message(errors.ErrAlreadyExists), joinErrorMessage(t, msg))
	assert.Equal(t, "a1b2c3", c.lobbyID)
}

func TestJoinLobbySuccess(t *testing.T) {
	h, _ := newTestHandler(t)
	owner := newTestClient("owner-1")
	h.autoCreateLobby(owner)
	require.NotEmpty(t, owner.lobbyID)

	joiner := newTestClient("joiner-2")
	h.joinLobby(joiner, mustMarshal(t, joinLobbyReq{LobbyID: owner.lobbyID}))

	msg := awaitEvent(t, joiner, lobby.EventJoinedLobby)
	var data lobby.JoinedLobbyData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, owner.lobbyID, data.LobbyID)
	assert.False(t, data.IsOwner)
	assert.Equal(t, 2, data.PlayerCount)
	assert.Equal(t, owner.lobbyID, joiner.lobbyID)
}

func TestJoinLobbyStoppedLobby(t *testing.T) {
	h, m := newTestHandler(t)
	owner := newTestClient("owner-1")
	h.autoCreateLobby(owner)

	l, ok := m.Get(owner.lobbyID)
	require.True(t, ok)
	l.Stop()
	// 主循环存活时每帧都有广播，静默即可确认协程已退出
	quietUntil := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(quietUntil) {
		select {
		case <-owner.send:
			quietUntil = time.Now().Add(150 * time.Millisecond)
		case <-time.After(20 * time.Millisecond):
		}
	}

	// 退出后队列中的入座命令不会再被消费，
	// 加入方必须收到错误而不是永久等待应答
	joiner := newTestClient("joiner-2")
	h.joinLobby(joiner, mustMarshal(t, joinLobbyReq{LobbyID: l.ID()}))

	msg := awaitEvent(t, joiner, lobby.EventJoinError)
	assert.Equal(t, errors.Message(errors.ErrLobbyClosed), joinErrorMessage(t, msg))
	assert.Empty(t, joiner.lobbyID)
}
