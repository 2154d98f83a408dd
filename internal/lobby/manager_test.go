package lobby

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wfunc/word-merge/internal/catalog"
	"github.com/wfunc/word-merge/internal/leaderboard"
)

func newTestManager(t *testing.T, slot int) *Manager {
	t.Helper()
	board := leaderboard.New(5, 7*24*time.Hour, zap.NewNop())
	return NewManager(slot, testGameConfig(), catalog.Default(), board, zap.NewNop())
}

func TestManagerCreate(t *testing.T) {
	m := newTestManager(t, 2)
	owner := &fakeSender{}

	l := m.Create("owner-1", owner)
	defer l.Stop()

	require.Len(t, l.ID(), idLength)
	assert.Equal(t, byte('c'), l.ID()[0], "首字符编码工作槽位")
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get(l.ID())
	require.True(t, ok)
	assert.Same(t, l, got)

	_, ok = owner.last(EventLobbyCreated)
	assert.True(t, ok)
	_, ok = owner.last(EventLeaderboardUpdated)
	assert.True(t, ok)

	// 创建即完成一次开局重置
	ev, ok := owner.last(EventStateUpdate)
	require.True(t, ok)
	assert.Empty(t, ev.data.([]ItemState), "开局快照应为空箱")
	restarted, ok := owner.last(EventGameRestarted)
	require.True(t, ok)
	assert.Equal(t, "游戏重新开始", restarted.data.(GameRestartedData).Message)
}

func TestBroadcastLeaderboardSkipsSubmitter(t *testing.T) {
	m := newTestManager(t, 0)
	owner1 := &fakeSender{}
	owner2 := &fakeSender{}
	l1 := m.Create("owner-1", owner1)
	l2 := m.Create("owner-2", owner2)
	defer l1.Stop()
	defer l2.Stop()

	// 创建时各收到一次榜单
	require.Len(t, owner1.named(EventLeaderboardUpdated), 1)
	require.Len(t, owner2.named(EventLeaderboardUpdated), 1)

	m.BroadcastLeaderboard(l1.ID())

	assert.Eventually(t, func() bool {
		return len(owner2.named(EventLeaderboardUpdated)) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Len(t, owner1.named(EventLeaderboardUpdated), 1, "提交者大厅已即时收到榜单，扇出不再重复")
}

func TestManagerOwns(t *testing.T) {
	tests := []struct {
		name string
		slot int
		id   string
		want bool
	}{
		{name: "本槽位编号", slot: 0, id: "a1b2c3", want: true},
		{name: "他槽位编号", slot: 0, id: "c1b2c3", want: false},
		{name: "空编号", slot: 0, id: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, tt.slot)
			assert.Equal(t, tt.want, m.Owns(tt.id))
		})
	}
}

func TestManagerRemoveOnClose(t *testing.T) {
	m := newTestManager(t, 0)
	owner := &fakeSender{}

	l := m.Create("owner-1", owner)
	id := l.ID()

	// 房主离开触发关闭并从注册表移除
	l.Inbox <- CmdLeave{SessionID: "owner-1"}

	assert.Eventually(t, func() bool {
		_, ok := m.Get(id)
		return !ok
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, m.Count())
}

func TestManagerStopAll(t *testing.T) {
	m := newTestManager(t, 0)
	l1 := m.Create("owner-1", &fakeSender{})
	l2 := m.Create("owner-2", &fakeSender{})
	_, _ = l1, l2

	m.StopAll()
	assert.Equal(t, 0, m.Count())
}

func TestManagerLobbyLoop(t *testing.T) {
	m := newTestManager(t, 0)
	owner := &fakeSender{}
	l := m.Create("owner-1", owner)
	defer l.Stop()

	l.Inbox <- CmdSpawnItem{SessionID: "owner-1", Word: "apple"}

	// 主循环消费命令并按帧广播快照
	assert.Eventually(t, func() bool {
		_, ok := owner.last(EventItemSpawned)
		return ok
	}, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		_, ok := owner.last(EventStateUpdate)
		return ok
	}, time.Second, 10*time.Millisecond)
}
