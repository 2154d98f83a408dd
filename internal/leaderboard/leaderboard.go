package leaderboard

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry 排行榜内部记录
type Entry struct {
	ID         int64
	Username   string
	Score      int
	AchievedAt time.Time
}

// Record 对外输出的名次记录（不含时间戳）
type Record struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Board 带时效衰减的排行榜。
// 同一工作进程内的所有大厅共享读写，内部加锁。
type Board struct {
	mu      sync.RWMutex
	entries []Entry
	size    int
	ttl     time.Duration
	nextID  int64
	logger  *zap.Logger

	// 测试可替换的时钟
	now func() time.Time
}

// New 创建排行榜
func New(size int, ttl time.Duration, logger *zap.Logger) *Board {
	return &Board{
		size:   size,
		ttl:    ttl,
		nextID: 1,
		logger: logger,
		now:    time.Now,
	}
}

// Submit 提交成绩。返回排行榜是否发生变化。
// 同名记录仅在新成绩严格更高时覆盖并刷新时间戳；
// 榜满时仅当成绩超过当前最低分才插入（淘汰最低分）。
func (b *Board) Submit(username string, score int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	// 先清理过期记录
	b.purgeLocked()

	for i := range b.entries {
		if b.entries[i].Username == username {
			if score <= b.entries[i].Score {
				// 未破纪录
				return false
			}
			b.entries[i].Score = score
			b.entries[i].AchievedAt = b.now()
			b.sortAndTruncateLocked()
			b.logger.Info("排行榜记录刷新",
				zap.String("username", username),
				zap.Int("score", score))
			return true
		}
	}

	if len(b.entries) >= b.size {
		// 榜满：必须超过最低分
		min := b.entries[0]
		for _, e := range b.entries[1:] {
			if e.Score < min.Score {
				min = e
			}
		}
		if score <= min.Score {
			return false
		}
		kept := b.entries[:0]
		for _, e := range b.entries {
			if e.ID != min.ID {
				kept = append(kept, e)
			}
		}
		b.entries = kept
	}

	b.entries = append(b.entries, Entry{
		ID:         b.nextID,
		Username:   username,
		Score:      score,
		AchievedAt: b.now(),
	})
	b.nextID++
	b.sortAndTruncateLocked()

	b.logger.Info("排行榜新记录",
		zap.String("username", username),
		zap.Int("score", score))
	return true
}

// Top 返回当前名次列表（降序，去除时间戳）
func (b *Board) Top() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.purgeLocked()
	b.sortAndTruncateLocked()

	out := make([]Record, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, Record{ID: e.ID, Username: e.Username, Score: e.Score})
	}
	return out
}

// purgeLocked 删除超过有效期的记录（调用方持锁）
func (b *Board) purgeLocked() {
	cutoff := b.now().Add(-b.ttl)
	kept := b.entries[:0]
	for _, e := range b.entries {
		if !e.AchievedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	b.entries = kept
}

// sortAndTruncateLocked 按分数降序排序并截断（调用方持锁）
func (b *Board) sortAndTruncateLocked() {
	sort.SliceStable(b.entries, func(i, j int) bool {
		return b.entries[i].Score > b.entries[j].Score
	})
	if len(b.entries) > b.size {
		b.entries = b.entries[:b.size]
	}
}

// SetClock 替换时钟（测试用）
func (b *Board) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}
