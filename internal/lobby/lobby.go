package lobby

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/word-merge/internal/catalog"
	"github.com/wfunc/word-merge/internal/config"
	"github.com/wfunc/word-merge/internal/errors"
	"github.com/wfunc/word-merge/internal/leaderboard"
	"github.com/wfunc/word-merge/internal/physics"
)

// Phase 大厅阶段
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseSoloActive Phase = "solo_active"
	PhaseDuoActive  Phase = "duo_active"
	PhaseGameOver   Phase = "game_over"
	PhaseClosed     Phase = "closed"
)

// member 大厅成员，members[0] 恒为房主
type member struct {
	sessionID string
	sender    Sender
}

// Item 游戏物品：单词词条与物理刚体的绑定
type Item struct {
	ID      int
	OwnerID string
	Word    *catalog.Word
	Body    *physics.Body
}

// Lobby 单个对局会话。所有游戏状态仅由大厅自身协程
// 通过 Inbox 命令与定时帧串行访问，外部不得直接读写。
type Lobby struct {
	id     string
	cfg    config.GameConfig
	cat    *catalog.Catalog
	board  *leaderboard.Board
	logger *zap.Logger

	// Inbox 命令队列，websocket 层写入
	Inbox chan interface{}
	quit  chan struct{}

	onClose       func(id string)
	onBoardChange func(excludeID string)

	phase      Phase
	members    []*member
	scores     map[string]int
	world      *physics.World
	items      map[int]*Item
	nextItemID int
	boxes      []*box
	viewW      float64
	viewH      float64
	winnerID   string
	finalScore int
}

// newLobby 创建大厅并立即进入单人对局
func newLobby(id string, owner *member, cfg config.GameConfig, cat *catalog.Catalog,
	board *leaderboard.Board, logger *zap.Logger, onClose func(string), onBoardChange func(string)) *Lobby {
	l := &Lobby{
		id:            id,
		cfg:           cfg,
		cat:           cat,
		board:         board,
		logger:        logger.With(zap.String("lobby_id", id)),
		Inbox:         make(chan interface{}, 256),
		quit:          make(chan struct{}),
		onClose:       onClose,
		onBoardChange: onBoardChange,
		phase:         PhaseWaiting,
		scores:        make(map[string]int),
		items:         make(map[int]*Item),
		nextItemID:    1,
		viewW:         cfg.SimWidth,
		viewH:         cfg.SimHeight,
	}
	l.world = physics.NewWorld(cfg.Gravity)
	l.members = append(l.members, owner)
	l.scores[owner.sessionID] = 0
	l.placeBoxes()
	l.setPhase(PhaseSoloActive)
	return l
}

// ID 大厅编号
func (l *Lobby) ID() string { return l.id }

// Done 大厅关闭信号。关闭后主循环不再消费命令队列，
// 等待应答的调用方需以此为退出条件。
func (l *Lobby) Done() <-chan struct{} { return l.quit }

// Run 大厅主循环：串行消费命令并按固定帧率推进模拟
func (l *Lobby) Run() {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("大厅协程异常退出", zap.Any("panic", r))
			l.closeLobby("服务器内部错误，大厅已关闭")
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(l.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-l.quit:
			return
		case cmd := <-l.Inbox:
			l.dispatch(cmd)
		case <-ticker.C:
			l.step()
		}
	}
}

// Stop 外部强制停止（工作进程退出时调用）
func (l *Lobby) Stop() {
	select {
	case <-l.quit:
	default:
		close(l.quit)
	}
}

func (l *Lobby) dispatch(cmd interface{}) {
	switch c := cmd.(type) {
	case CmdJoin:
		err := l.join(c.SessionID, c.Sender)
		if c.Reply != nil {
			c.Reply <- err
		}
	case CmdLeave:
		l.leave(c.SessionID)
	case CmdSpawnItem:
		l.spawnItem(c.SessionID, c.Word)
	case CmdMoveItem:
		l.moveItem(c.SessionID, c.ItemID, c.X)
	case CmdDropItem:
		l.dropItem(c.SessionID, c.ItemID)
	case CmdResize:
		l.resize(c.Width, c.Height)
	case CmdSubmitNickname:
		l.submitNickname(c.SessionID, c.Nickname)
	case CmdLeaderboardUpdated:
		// 榜单变化只推送给单人大厅
		if len(l.members) == 1 {
			l.broadcast(EventLeaderboardUpdated, LeaderboardData{Leaderboard: l.board.Top()})
		}
	default:
		l.logger.Warn("未知大厅命令", zap.Any("cmd", cmd))
	}
}

func (l *Lobby) setPhase(p Phase) {
	if l.phase == p {
		return
	}
	l.logger.Info("大厅阶段切换",
		zap.String("from", string(l.phase)),
		zap.String("to", string(p)))
	l.phase = p
}

// placeBoxes 按成员数重建箱体：单人居中，双人各占半屏
func (l *Lobby) placeBoxes() {
	for _, b := range l.boxes {
		b.remove(l.world)
	}
	l.boxes = l.boxes[:0]

	if len(l.members) <= 1 {
		l.boxes = append(l.boxes, newBox(l.world, l.viewW/2, l.viewH, l.cfg.BoxWidth))
	} else {
		l.boxes = append(l.boxes,
			newBox(l.world, l.viewW/4, l.viewH, l.cfg.BoxWidth),
			newBox(l.world, l.viewW*3/4, l.viewH, l.cfg.BoxWidth))
	}
}

// memberIndex 成员下标，-1 表示不在大厅
func (l *Lobby) memberIndex(sessionID string) int {
	for i, m := range l.members {
		if m.sessionID == sessionID {
			return i
		}
	}
	return -1
}

// boxFor 成员所属箱体：单人共用，双人房主在左
func (l *Lobby) boxFor(idx int) *box {
	if len(l.boxes) == 1 {
		return l.boxes[0]
	}
	return l.boxes[idx]
}

func (l *Lobby) join(sessionID string, sender Sender) error {
	if l.phase == PhaseClosed {
		return errors.New(errors.ErrLobbyClosed)
	}
	if len(l.members) >= 2 {
		return errors.New(errors.ErrLobbyFull)
	}
	if l.memberIndex(sessionID) >= 0 {
		return errors.New(errors.ErrLobbyFull)
	}

	l.members = append(l.members, &member{sessionID: sessionID, sender: sender})
	l.placeBoxes()
	l.resetRound()
	l.setPhase(PhaseDuoActive)

	l.logger.Info("玩家加入大厅",
		zap.String("session_id", sessionID),
		zap.Int("player_count", len(l.members)))

	for _, m := range l.members {
		if m.sessionID == sessionID {
			continue
		}
		l.send(m, EventPlayerJoined, PlayerJoinedData{
			PlayerID:    sessionID,
			PlayerCount: len(l.members),
		})
	}
	l.send(l.members[len(l.members)-1], EventJoinedLobby, JoinedLobbyData{
		LobbyID:     l.id,
		IsOwner:     false,
		PlayerCount: len(l.members),
	})
	l.send(l.members[len(l.members)-1], EventLeaderboardUpdated, LeaderboardData{Leaderboard: l.board.Top()})
	l.broadcast(EventStateUpdate, l.snapshot())
	l.broadcast(EventGameRestarted, GameRestartedData{Message: "游戏重新开始"})
	return nil
}

func (l *Lobby) leave(sessionID string) {
	idx := l.memberIndex(sessionID)
	if idx < 0 {
		return
	}

	if idx == 0 {
		// 房主离开即解散
		l.closeLobby("房主已离开，大厅关闭")
		return
	}

	l.members = append(l.members[:idx], l.members[idx+1:]...)
	delete(l.scores, sessionID)
	l.placeBoxes()
	l.resetRound()
	l.setPhase(PhaseSoloActive)

	l.logger.Info("玩家离开大厅",
		zap.String("session_id", sessionID),
		zap.Int("player_count", len(l.members)))

	l.broadcast(EventPlayerLeaved, PlayerLeavedData{
		PlayerID:    sessionID,
		PlayerCount: len(l.members),
	})
	l.broadcast(EventGameRestarted, GameRestartedData{Message: "游戏重新开始"})
}

// closeLobby 广播关闭并终止主循环
func (l *Lobby) closeLobby(message string) {
	if l.phase == PhaseClosed {
		return
	}
	l.broadcast(EventLobbyClosed, LobbyClosedData{Message: message})
	l.setPhase(PhaseClosed)
	l.Stop()
	if l.onClose != nil {
		l.onClose(l.id)
	}
}

func (l *Lobby) spawnItem(sessionID string, word string) {
	idx := l.memberIndex(sessionID)
	if idx < 0 {
		return
	}
	if l.phase != PhaseSoloActive && l.phase != PhaseDuoActive {
		l.send(l.members[idx], EventSpawnError, SpawnErrorData{
			Message: errors.Message(errors.ErrGameOver),
		})
		return
	}

	w, ok := l.cat.FindWord(word)
	if !ok {
		l.send(l.members[idx], EventSpawnError, SpawnErrorData{
			Message: errors.Message(errors.ErrWordNotFound),
		})
		return
	}

	spawnX := l.boxFor(idx).centerX
	body := l.world.AddCircle(physics.Vec2{X: spawnX, Y: spawnY}, l.cfg.ItemRadius, true)
	item := &Item{
		ID:      l.nextItemID,
		OwnerID: sessionID,
		Word:    w,
		Body:    body,
	}
	body.Tag = item.ID
	l.items[item.ID] = item
	l.nextItemID++

	l.logger.Debug("物品生成",
		zap.Int("item_id", item.ID),
		zap.String("word", w.Word),
		zap.String("session_id", sessionID))

	l.broadcast(EventItemSpawned, ItemSpawnedData{
		ItemID:      item.ID,
		Word:        w.Word,
		RarityName:  l.cat.RarityOf(w).Name,
		Sprite:      w.Sprite,
		Owner:       idx == 0,
		PlayerCount: len(l.members),
	})
}

func (l *Lobby) moveItem(sessionID string, itemID int, x float64) {
	idx := l.memberIndex(sessionID)
	if idx < 0 {
		return
	}
	item, ok := l.items[itemID]
	if !ok || !item.Body.Static {
		// 未知或已释放的物品：静默忽略
		return
	}
	if len(l.members) > 1 {
		// 双人模式按物品当前位置判侧，越界操作对方半屏静默忽略
		itemLeft := item.Body.Pos.X < l.viewW/2
		playerLeft := idx == 0
		if itemLeft != playerLeft {
			return
		}
	}

	b := l.boxFor(idx)
	item.Body.SetPosition(physics.Vec2{X: b.clampX(x), Y: item.Body.Pos.Y})
}

func (l *Lobby) dropItem(sessionID string, itemID int) {
	if l.memberIndex(sessionID) < 0 {
		return
	}
	item, ok := l.items[itemID]
	if !ok || !item.Body.Static {
		return
	}
	item.Body.SetStatic(false)
}

// resize 视口尺寸变化：箱体原地重定位，保留场上物品
func (l *Lobby) resize(w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	l.viewW, l.viewH = w, h

	if len(l.boxes) == 1 {
		l.boxes[0].moveTo(w/2, h)
	} else if len(l.boxes) == 2 {
		l.boxes[0].moveTo(w/4, h)
		l.boxes[1].moveTo(w*3/4, h)
	}
}

func (l *Lobby) submitNickname(sessionID string, nickname string) {
	idx := l.memberIndex(sessionID)
	if idx < 0 || l.phase != PhaseGameOver || nickname == "" {
		return
	}
	if len(l.members) > 1 && sessionID != l.winnerID {
		// 双人模式仅胜者可上榜
		return
	}

	changed := l.board.Submit(nickname, l.scores[sessionID])
	l.send(l.members[idx], EventLeaderboardUpdated, LeaderboardData{Leaderboard: l.board.Top()})
	if changed && l.onBoardChange != nil {
		l.onBoardChange(l.id)
	}
}

// step 单帧推进：物理积分、合成结算、出界判定、广播快照。
// 游戏结束后冻结模拟与计分，仅继续广播快照。
func (l *Lobby) step() {
	if l.phase == PhaseClosed {
		return
	}
	if l.phase == PhaseSoloActive || l.phase == PhaseDuoActive {
		contacts := l.world.Step(1 / float64(l.cfg.TickRate))
		l.resolveCombinations(contacts)
		l.checkOutOfBox()
	}
	l.broadcast(EventStateUpdate, l.snapshot())
}

// snapshot 场上物品帧快照（按编号排序保证确定性）
func (l *Lobby) snapshot() []ItemState {
	states := make([]ItemState, 0, len(l.items))
	for _, item := range l.items {
		states = append(states, ItemState{
			ID:         item.ID,
			X:          item.Body.Pos.X,
			Y:          item.Body.Pos.Y,
			Angle:      item.Body.Angle,
			Radius:     item.Body.Radius,
			Word:       item.Word.Word,
			RarityName: l.cat.RarityOf(item.Word).Name,
			Sprite:     item.Word.Sprite,
		})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return states
}

// resolveCombinations 处理本帧新建立的物品接触，命中配方即合成
func (l *Lobby) resolveCombinations(contacts []physics.Contact) {
	for _, ct := range contacts {
		a, okA := l.items[ct.A.Tag]
		b, okB := l.items[ct.B.Tag]
		if !okA || !okB {
			// 同帧早先的合成可能已移除其中一方
			continue
		}
		if !catalog.CanCombine(a.Word, b.Word) {
			continue
		}
		recipe, ok := l.cat.FindRecipe(a.Word.GUID, b.Word.GUID)
		if !ok {
			continue
		}
		result, ok := l.cat.WordByID(recipe.ResultID)
		if !ok {
			continue
		}
		l.combine(a, b, result)
	}
}

// combine 移除两个原料并在中点生成合成物，积分记给中点所在侧的玩家
func (l *Lobby) combine(a, b *Item, result *catalog.Word) {
	mid := a.Body.Pos.Add(b.Body.Pos).Scale(0.5)

	l.world.Remove(a.Body)
	l.world.Remove(b.Body)
	delete(l.items, a.ID)
	delete(l.items, b.ID)

	scorer := l.members[0]
	if len(l.members) > 1 && mid.X > l.viewW/2 {
		scorer = l.members[1]
	}

	body := l.world.AddCircle(mid, l.cfg.ResultRadius, false)
	item := &Item{
		ID:      l.nextItemID,
		OwnerID: scorer.sessionID,
		Word:    result,
		Body:    body,
	}
	body.Tag = item.ID
	l.items[item.ID] = item
	l.nextItemID++

	points := l.cat.RarityOf(a.Word).Value + l.cat.RarityOf(b.Word).Value
	l.scores[scorer.sessionID] += points

	l.logger.Info("物品合成",
		zap.String("word_a", a.Word.Word),
		zap.String("word_b", b.Word.Word),
		zap.String("result", result.Word),
		zap.String("scorer", scorer.sessionID),
		zap.Int("points", points))

	l.broadcast(EventItemCombined, ItemCombinedData{
		OldA:      a.ID,
		OldB:      b.ID,
		NewID:     item.ID,
		NewWord:   result.Word,
		NewRarity: l.cat.RarityOf(result).Name,
		Sprite:    result.Sprite,
	})
	l.broadcast(EventScoreUpdated, ScoreUpdatedData{
		ScoringPlayer: scorer.sessionID,
		PointsGained:  points,
		Scores:        l.copyScores(),
	})
}

func (l *Lobby) copyScores() map[string]int {
	out := make(map[string]int, len(l.scores))
	for k, v := range l.scores {
		out[k] = v
	}
	return out
}

// checkOutOfBox 出界判定：首个完全脱离箱体的动态物品终结本局
func (l *Lobby) checkOutOfBox() {
	ids := make([]int, 0, len(l.items))
	for id := range l.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		item := l.items[id]
		if item.Body.Static {
			continue
		}
		b := l.boxByPosition(item.Body.Pos.X)
		if b.escaped(item.Body) {
			l.gameOver(b)
			return
		}
	}
}

// boxByPosition 按横坐标归属箱体：双人模式左半屏属左箱
func (l *Lobby) boxByPosition(x float64) *box {
	if len(l.boxes) == 1 || x <= l.viewW/2 {
		return l.boxes[0]
	}
	return l.boxes[1]
}

// gameOver 终结本局。双人模式物品落出哪侧箱体哪侧判负，
// 对方获胜；单人模式无胜负概念，直接结束并结算得分。
func (l *Lobby) gameOver(losingBox *box) {
	loserIdx := 0
	if len(l.boxes) == 2 && losingBox == l.boxes[1] {
		loserIdx = 1
	}

	winner := l.members[0]
	message := "游戏结束"
	if len(l.members) > 1 {
		winner = l.members[1-loserIdx]
		message = "物品掉出箱体，对局结束"
	}

	l.winnerID = winner.sessionID
	l.finalScore = l.scores[winner.sessionID]
	l.setPhase(PhaseGameOver)

	l.logger.Info("对局结束",
		zap.String("winner", l.winnerID),
		zap.Int("final_score", l.finalScore))

	l.broadcast(EventGameOver, GameOverData{
		WinnerID:   l.winnerID,
		FinalScore: l.finalScore,
		Message:    message,
	})
}

// resetRound 清空场上物品与比分，保留箱体与成员
func (l *Lobby) resetRound() {
	for _, item := range l.items {
		l.world.Remove(item.Body)
	}
	l.items = make(map[int]*Item)
	for sid := range l.scores {
		l.scores[sid] = 0
	}
	l.winnerID = ""
	l.finalScore = 0
}

func (l *Lobby) send(m *member, event string, data interface{}) {
	if err := m.sender.SendEvent(event, data); err != nil {
		l.logger.Debug("事件发送失败",
			zap.String("event", event),
			zap.String("session_id", m.sessionID),
			zap.Error(err))
	}
}

func (l *Lobby) broadcast(event string, data interface{}) {
	for _, m := range l.members {
		l.send(m, event, data)
	}
}
