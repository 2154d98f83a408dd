package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBoard(size int, ttl time.Duration) *Board {
	return New(size, ttl, zap.NewNop())
}

func TestSubmitOrdering(t *testing.T) {
	b := newTestBoard(5, 7*24*time.Hour)

	b.Submit("alice", 30)
	b.Submit("bob", 50)
	b.Submit("carol", 10)

	top := b.Top()
	require.Len(t, top, 3)
	assert.Equal(t, "bob", top[0].Username)
	assert.Equal(t, "alice", top[1].Username)
	assert.Equal(t, "carol", top[2].Username)
}

func TestSubmitSameUsername(t *testing.T) {
	tests := []struct {
		name      string
		first     int
		second    int
		changed   bool
		wantScore int
	}{
		{name: "更高分覆盖", first: 20, second: 40, changed: true, wantScore: 40},
		{name: "同分不覆盖", first: 20, second: 20, changed: false, wantScore: 20},
		{name: "低分不覆盖", first: 20, second: 10, changed: false, wantScore: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBoard(5, 7*24*time.Hour)
			b.Submit("alice", tt.first)
			changed := b.Submit("alice", tt.second)
			assert.Equal(t, tt.changed, changed)

			top := b.Top()
			require.Len(t, top, 1)
			assert.Equal(t, tt.wantScore, top[0].Score)
		})
	}
}

func TestSubmitFullBoard(t *testing.T) {
	b := newTestBoard(5, 7*24*time.Hour)
	names := []string{"p1", "p2", "p3", "p4", "p5"}
	for i, n := range names {
		b.Submit(n, (i+1)*10) // 10..50
	}

	// 低于最低分：不入榜
	changed := b.Submit("newbie", 5)
	assert.False(t, changed)
	assert.Len(t, b.Top(), 5)

	// 高于最低分：淘汰最低分
	changed = b.Submit("pro", 35)
	assert.True(t, changed)
	top := b.Top()
	require.Len(t, top, 5)
	for _, r := range top {
		assert.NotEqual(t, "p1", r.Username, "最低分记录应被淘汰")
	}
}

func TestExpiry(t *testing.T) {
	b := newTestBoard(5, 7*24*time.Hour)

	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.SetClock(func() time.Time { return current })

	b.Submit("alice", 100)

	// 8 天后记录过期
	current = current.Add(8 * 24 * time.Hour)
	assert.Empty(t, b.Top())

	// 过期后同名低分也能重新入榜
	changed := b.Submit("alice", 10)
	assert.True(t, changed)
	top := b.Top()
	require.Len(t, top, 1)
	assert.Equal(t, 10, top[0].Score)
}
