package session

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/palemoky/scatters/internal/game/dice"
	"github.com/palemoky/scatters/internal/game/timer"
	"github.com/palemoky/scatters/internal/protocol"
)

// Config 引擎配置
type Config struct {
	Room     string
	Mode     Mode
	RoundLen time.Duration   // 回合作答时长
	Clock    clockwork.Clock // 为空时使用真实时钟
	Rand     *rand.Rand      // 为空时使用默认随机源（测试注入固定种子）
}

// Engine 单个房间的回合状态机。
// 所有公开方法都在同一把锁上串行化：玩家操作和计时器到期回调
// 不会交错改写同一个会话的状态。不同房间的引擎之间没有共享锁。
type Engine struct {
	mu sync.Mutex

	room     string
	mode     Mode
	clock    clockwork.Clock
	rng      *rand.Rand
	roundLen time.Duration

	players     map[string]*Player
	order       []string       // 加入顺序，即回合顺序
	lastOrdinal map[string]int // 离开玩家的历史序号，重进时恢复

	dice         *dice.Dice
	sharedTimer  *timer.RoundTimer             // 同步模式
	playerTimers map[string]*timer.RoundTimer  // 异步模式

	phase       Phase
	playerPhase map[string]Phase // 异步模式按玩家跟踪阶段

	round           int
	activePlayer    string
	roundTallies    int // 本回合已提交计票的玩家数
	listsCompleted  int // 异步模式下已交卷的玩家数
	gameInProgress  bool
	roundInProgress bool

	phaseListeners map[string]PhaseListener
}

// New 创建引擎
func New(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.RoundLen <= 0 {
		cfg.RoundLen = 3 * time.Minute
	}

	e := &Engine{
		room:           cfg.Room,
		mode:           cfg.Mode,
		clock:          cfg.Clock,
		rng:            cfg.Rand,
		roundLen:       cfg.RoundLen,
		players:        make(map[string]*Player),
		lastOrdinal:    make(map[string]int),
		playerTimers:   make(map[string]*timer.RoundTimer),
		playerPhase:    make(map[string]Phase),
		phase:          PhaseNotStarted,
		phaseListeners: make(map[string]PhaseListener),
	}

	e.dice = e.newDice()
	if e.mode == ModeRealtime {
		e.sharedTimer = timer.NewWithClock(e.roundLen, e.clock)
	}

	return e
}

func (e *Engine) newDice() *dice.Dice {
	if e.rng != nil {
		return dice.NewWithRand(e.rng)
	}
	return dice.New()
}

// Room 房间名
func (e *Engine) Room() string {
	return e.room
}

// Mode 计时模式
func (e *Engine) Mode() Mode {
	return e.mode
}

// --- 阶段 ---

// setPhaseLocked 同步模式的全房间阶段。只有发生变化才通知监听器。
func (e *Engine) setPhaseLocked(next Phase) {
	if e.phase == next {
		return
	}
	e.phase = next
	e.notifyLocked(PhaseEvent{Room: e.room, Phase: next})
}

// setPlayerPhaseLocked 异步模式的单玩家阶段
func (e *Engine) setPlayerPhaseLocked(username string, next Phase) {
	if _, ok := e.players[username]; !ok {
		return
	}
	if e.playerPhase[username] == next {
		return
	}
	e.playerPhase[username] = next
	e.notifyLocked(PhaseEvent{Room: e.room, Username: username, Phase: next})
}

func (e *Engine) notifyLocked(ev PhaseEvent) {
	for _, l := range e.phaseListeners {
		l(ev)
	}
}

func (e *Engine) phaseOfLocked(username string) Phase {
	if e.mode == ModeAsync {
		return e.playerPhase[username]
	}
	return e.phase
}

// GetPhase 当前阶段。异步模式按玩家，同步模式全房间一致（忽略 username）。
func (e *Engine) GetPhase(username string) Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phaseOfLocked(username)
}

// RegisterPhaseListener 注册阶段监听器（同一 key 覆盖旧监听器）
func (e *Engine) RegisterPhaseListener(key string, l PhaseListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phaseListeners[key] = l
}

// UnregisterPhaseListener 注销阶段监听器
func (e *Engine) UnregisterPhaseListener(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.phaseListeners, key)
}

// --- 玩家管理 ---

// AddPlayer 加入玩家。已在房间的玩家视为在线刷新，分数和历史保留；
// 重进的玩家恢复历史序号，否则排在末尾。空房间的第一个玩家成为当前回合玩家。
func (e *Engine) AddPlayer(username string) protocol.PlayerInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.players[username]; ok {
		p.Touch(e.clock.Now())
		return p.Info()
	}

	p := NewPlayer(username)
	p.Touch(e.clock.Now())
	e.players[username] = p

	if prev, ok := e.lastOrdinal[username]; ok && prev >= 0 && prev < len(e.order) {
		e.order = append(e.order[:prev], append([]string{username}, e.order[prev:]...)...)
	} else {
		e.order = append(e.order, username)
	}
	e.reindexLocked()

	if e.mode == ModeAsync {
		e.playerTimers[username] = timer.NewWithClock(e.roundLen, e.clock)
		e.playerPhase[username] = PhaseNotStarted
	}

	if e.activePlayer == "" {
		e.setActivePlayerLocked(username)
	}

	return p.Info()
}

// RemovePlayer 移除玩家：注销其阶段监听器，停掉其个人计时器。
// 移除后房间为空时停掉共享计时器并（除非 reinitialize 为 false）回到初始状态；
// 否则重排剩余玩家的序号，被移除者是当前回合玩家时轮到下一个。
func (e *Engine) RemovePlayer(username string, reinitialize bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.phaseListeners, username)

	p, ok := e.players[username]
	if !ok {
		return
	}

	e.lastOrdinal[username] = p.Ordinal

	// 异步模式下这名玩家是否已经交过卷（计入过 listsCompleted）
	hadFinished := false
	switch e.playerPhase[username] {
	case PhaseWaitForOthers, PhaseVote, PhaseScores:
		hadFinished = true
	}

	if t, ok := e.playerTimers[username]; ok {
		t.Stop()
		delete(e.playerTimers, username)
	}
	delete(e.playerPhase, username)
	delete(e.players, username)
	if i := slices.Index(e.order, username); i >= 0 {
		e.order = append(e.order[:i], e.order[i+1:]...)
	}

	if len(e.players) == 0 {
		if e.sharedTimer != nil {
			e.sharedTimer.Stop()
		}
		e.activePlayer = ""
		if reinitialize {
			e.resetLocked()
		}
		return
	}

	e.reindexLocked()

	if e.activePlayer == username {
		e.nextTurnLocked()
	}

	// 走的人可能正是大家在等的那个：交过卷的离开要把计数扣回去，
	// 没交卷的离开可能让剩下的人凑齐，重查一次门槛。
	if e.mode == ModeAsync {
		if hadFinished && e.listsCompleted > 0 {
			e.listsCompleted--
		}
		e.maybeFinishAsyncRoundLocked()
	}
}

// reindexLocked 按加入顺序重算密集序号 0..N-1
func (e *Engine) reindexLocked() {
	for i, u := range e.order {
		e.players[u].Ordinal = i
	}
}

func (e *Engine) setActivePlayerLocked(username string) {
	if prev, ok := e.players[e.activePlayer]; ok {
		prev.IsTurn = false
	}
	p, ok := e.players[username]
	if !ok {
		return
	}
	p.IsTurn = true
	e.activePlayer = username
}

func (e *Engine) nextTurnLocked() {
	if len(e.order) == 0 {
		return
	}
	idx := slices.Index(e.order, e.activePlayer)
	e.setActivePlayerLocked(e.order[(idx+1)%len(e.order)])
}

// NextTurn 轮到序号顺序上的下一个玩家，末尾绕回开头。没有玩家时为空操作。
func (e *Engine) NextTurn() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextTurnLocked()
}

// ActivePlayer 当前回合玩家，没有玩家时为空字符串
func (e *Engine) ActivePlayer() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activePlayer
}

// NumPlayers 玩家数量
func (e *Engine) NumPlayers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.players)
}

// FindPlayer 查找玩家展示信息，第二个返回值表示是否存在
func (e *Engine) FindPlayer(username string) (protocol.PlayerInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[username]
	if !ok {
		return protocol.PlayerInfo{}, false
	}
	return p.Info(), true
}

// Players 按序号顺序返回所有玩家的展示信息
func (e *Engine) Players() []protocol.PlayerInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playersLocked()
}

func (e *Engine) playersLocked() []protocol.PlayerInfo {
	infos := make([]protocol.PlayerInfo, 0, len(e.order))
	for _, u := range e.order {
		infos = append(infos, e.players[u].Info())
	}
	return infos
}

// Touch 显式标记玩家活跃（任何玩家触发的外部操作都应经过这里）
func (e *Engine) Touch(username string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.players[username]; ok {
		p.Touch(e.clock.Now())
	}
}

// SetPlayerOnline 在线状态翻转（在线检测器的扫描结果）
func (e *Engine) SetPlayerOnline(username string, online bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.players[username]; ok {
		p.IsOnline = online
	}
}

// SetPlayerAway 标记玩家暂离（保留回合与分数状态，支持回来续玩）
func (e *Engine) SetPlayerAway(username string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.players[username]; ok {
		p.Away = true
	}
}

// SetPlayerBack 标记玩家回来
func (e *Engine) SetPlayerBack(username string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.players[username]; ok {
		p.Away = false
		p.Touch(e.clock.Now())
	}
}

// AwayPlayers 暂离中的玩家
func (e *Engine) AwayPlayers() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var away []string
	for _, u := range e.order {
		if e.players[u].Away {
			away = append(away, u)
		}
	}
	return away
}

// --- 游戏流程 ---

// StartGame 标记游戏进行中并进入 ROLL 阶段
func (e *Engine) StartGame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.gameInProgress = true
	if e.mode == ModeAsync {
		for _, u := range e.order {
			e.setPlayerPhaseLocked(u, PhaseRoll)
		}
	} else {
		e.setPhaseLocked(PhaseRoll)
	}
}

// RollDice 掷字母骰子。非当前回合玩家的请求静默忽略（不报错）。
// 同步模式强制全房间进入 ROLL，异步模式只有掷骰子的玩家进入 ROLL。
func (e *Engine) RollDice(username string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isActiveLocked(username) {
		return ""
	}

	v := e.dice.Roll()
	if e.mode == ModeAsync {
		e.setPlayerPhaseLocked(username, PhaseRoll)
	} else {
		e.setPhaseLocked(PhaseRoll)
	}
	e.players[username].Touch(e.clock.Now())

	return v
}

// RerollDice 放回当前字母后重掷。非当前回合玩家的请求静默忽略。
func (e *Engine) RerollDice(username string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isActiveLocked(username) {
		return ""
	}
	return e.dice.Reroll()
}

// ResetDiceRoll 放回当前字母且不重掷。非当前回合玩家的请求静默忽略。
func (e *Engine) ResetDiceRoll(username string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isActiveLocked(username) {
		return
	}
	e.dice.ResetRoll()
}

func (e *Engine) isActiveLocked(username string) bool {
	if _, ok := e.players[username]; !ok {
		return false
	}
	return username == e.activePlayer
}

// Letter 当前字母，未抽取时为空字符串
func (e *Engine) Letter() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dice.Value()
}

// --- 计时 ---

// StartTimer 开始回合计时并进入 LIST 阶段。同步模式启动共享计时器（忽略
// username），异步模式启动指定玩家的个人计时器。计时器已在运行时为空操作，
// 返回值表示计时是否真的启动了。
// onTick 每 250ms 收到剩余毫秒数，到期收到 0；到期同时推进阶段：
// 同步模式全房间进入 VOTE，异步模式该玩家进入 WAIT_FOR_OTHERS，
// 全部玩家交卷后全房间进入 VOTE。
func (e *Engine) StartTimer(onTick TickFunc, username string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode == ModeAsync {
		t, ok := e.playerTimers[username]
		if !ok || t.InProgress() {
			return false
		}
		e.setPlayerPhaseLocked(username, PhaseList)
		e.roundInProgress = true
		t.Start(func(remaining time.Duration) {
			if remaining <= 0 {
				e.finishPlayerList(username)
			}
			if onTick != nil {
				onTick(username, remaining.Milliseconds())
			}
		})
		return true
	}

	if e.sharedTimer.InProgress() {
		return false
	}
	e.setPhaseLocked(PhaseList)
	e.roundInProgress = true
	e.sharedTimer.Start(func(remaining time.Duration) {
		if remaining <= 0 {
			e.finishSharedList()
		}
		if onTick != nil {
			onTick("", remaining.Milliseconds())
		}
	})
	return true
}

// finishSharedList 共享计时器到期：作答结束，全房间进入计票
func (e *Engine) finishSharedList() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.roundInProgress = false
	if len(e.players) == 0 {
		e.setPhaseLocked(PhaseNotStarted)
	} else {
		e.setPhaseLocked(PhaseVote)
	}
}

// finishPlayerList 个人计时器到期：该玩家交卷等待其他人，
// 最后一个交卷后全房间进入计票
func (e *Engine) finishPlayerList(username string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listsCompleted++

	if len(e.players) == 0 {
		return
	}

	e.setPlayerPhaseLocked(username, PhaseWaitForOthers)
	e.maybeFinishAsyncRoundLocked()
}

// maybeFinishAsyncRoundLocked 所有在场玩家都交了卷就全房间进入计票
func (e *Engine) maybeFinishAsyncRoundLocked() {
	if len(e.players) == 0 || e.listsCompleted < len(e.players) {
		return
	}
	for _, u := range e.order {
		e.setPlayerPhaseLocked(u, PhaseVote)
	}
}

// StopTimer 停掉计时器并清空计时状态，可重复调用
func (e *Engine) StopTimer(username string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode == ModeAsync {
		if t, ok := e.playerTimers[username]; ok {
			t.Stop()
		}
		return
	}
	e.sharedTimer.Stop()
}

// --- 回合 ---

// GetRound 当前回合数
func (e *Engine) GetRound() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.round
}

// SetRound 覆盖回合数。LIST 阶段（作答中）的写入静默忽略，
// 避免答题类目在玩家眼皮底下换掉。
func (e *Engine) SetRound(round int, username string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phaseOfLocked(username) == PhaseList {
		return
	}
	e.round = round
}

// NextRound 进入下一回合：回合数加一，清空回合内状态，轮到下一个玩家，
// 所有人回到 ROLL 阶段
func (e *Engine) NextRound() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.roundInProgress = false
	e.roundTallies = 0
	e.listsCompleted = 0
	e.round++

	for _, u := range e.order {
		e.players[u].ResetRound()
	}

	if e.mode == ModeAsync {
		for _, u := range e.order {
			if t, ok := e.playerTimers[u]; ok {
				t.Stop()
			}
			e.setPlayerPhaseLocked(u, PhaseRoll)
		}
	} else {
		e.sharedTimer.Stop()
		e.setPhaseLocked(PhaseRoll)
	}

	e.nextTurnLocked()
}

// EndGame 结束游戏，回到初始状态
func (e *Engine) EndGame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

// Shutdown 停掉所有计时器（房间销毁时）
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopAllTimersLocked()
}

func (e *Engine) stopAllTimersLocked() {
	if e.sharedTimer != nil {
		e.sharedTimer.Stop()
	}
	for _, t := range e.playerTimers {
		t.Stop()
	}
}

// resetLocked 回到初始状态：回合归零、换新骰子、清空计分。
// 仍在房间的玩家保留，阶段直接归位不触发监听器。
func (e *Engine) resetLocked() {
	e.stopAllTimersLocked()

	e.round = 0
	e.roundTallies = 0
	e.listsCompleted = 0
	e.gameInProgress = false
	e.roundInProgress = false
	e.dice = e.newDice()
	e.phase = PhaseNotStarted

	for _, u := range e.order {
		e.players[u].ResetAll()
		if e.mode == ModeAsync {
			e.playerPhase[u] = PhaseNotStarted
		}
	}

	e.activePlayer = ""
	if len(e.order) > 0 {
		e.setActivePlayerLocked(e.order[0])
	}
}

// GameInProgress 游戏是否进行中
func (e *Engine) GameInProgress() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gameInProgress
}

// RoundInProgress 回合是否进行中
func (e *Engine) RoundInProgress() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roundInProgress
}

// --- 答案与计票 ---

// SetPlayerAnswers 记录玩家本回合的答案，返回目前已提交非空答案的
// {玩家, 答案} 集合，调用方据此判断"所有人都已作答"。
func (e *Engine) SetPlayerAnswers(username string, answers []string) []protocol.AnswerSet {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.players[username]
	if !ok {
		return nil
	}

	p.SetAnswers(answers)
	p.Touch(e.clock.Now())

	var out []protocol.AnswerSet
	for _, u := range e.order {
		pl := e.players[u]
		if len(pl.Answers) == 0 {
			continue
		}
		out = append(out, protocol.AnswerSet{
			Username: u,
			Answers:  append([]string(nil), pl.Answers...),
		})
	}
	return out
}

// TalliesToScores 接收一个计票玩家投出的全部票值：键为被计票玩家，值为其
// 12 个类目的票值，按行追加进各自的计票矩阵（行序即计票玩家顺序）。
// 每次调用计票计数加一；计数到达本回合应计票人数时进入 SCORES 阶段、
// 执行一次计分、计数归零并回调 done。计分只会在这里被触发，
// 重复计分由计数门闩挡住。
func (e *Engine) TalliesToScores(tallies map[string][]int, done func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for username, row := range tallies {
		if p, ok := e.players[username]; ok {
			p.PushTallyRow(append([]int(nil), row...))
		}
	}

	e.roundTallies++

	eligible := e.eligibleTallyCountLocked()
	if eligible == 0 || e.roundTallies < eligible {
		return
	}

	if e.mode == ModeAsync {
		for _, u := range e.order {
			e.setPlayerPhaseLocked(u, PhaseScores)
		}
	} else {
		e.setPhaseLocked(PhaseScores)
	}

	e.calculateScoresLocked()
	e.roundTallies = 0

	if done != nil {
		done()
	}
}

// eligibleTallyCountLocked 本回合应计票的人数。同步模式是所有玩家；
// 异步模式只数本回合已交卷的玩家（还在作答的不算）。
func (e *Engine) eligibleTallyCountLocked() int {
	if e.mode != ModeAsync {
		return len(e.players)
	}

	n := 0
	for _, u := range e.order {
		switch e.playerPhase[u] {
		case PhaseWaitForOthers, PhaseVote, PhaseScores:
			n++
		}
	}
	return n
}

// --- 快照 ---

// Snapshot 状态快照（只读）。异步模式的阶段和计时窗口取指定玩家的。
func (e *Engine) Snapshot(username string) protocol.StatusPayload {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := protocol.StatusPayload{
		Room:            e.room,
		ActivePlayer:    e.activePlayer,
		Round:           e.round,
		Phase:           string(e.phaseOfLocked(username)),
		RoundInProgress: e.roundInProgress,
		GameInProgress:  e.gameInProgress,
		Letter:          e.dice.Value(),
		Players:         e.playersLocked(),
	}

	t := e.sharedTimer
	if e.mode == ModeAsync {
		t = e.playerTimers[username]
	}
	if t != nil && t.InProgress() {
		st.StartTime = t.StartTime().UnixMilli()
		st.EndTime = t.EndTime().UnixMilli()
	}

	return st
}

// TimerWindow 当前计时窗口的毫秒时间戳（未运行时两个都为 0）
func (e *Engine) TimerWindow(username string) (start, end int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.sharedTimer
	if e.mode == ModeAsync {
		t = e.playerTimers[username]
	}
	if t != nil && t.InProgress() {
		return t.StartTime().UnixMilli(), t.EndTime().UnixMilli()
	}
	return 0, 0
}
