package session

// Phase 回合阶段
type Phase string

const (
	PhaseNotStarted    Phase = "NOT_STARTED"
	PhaseRoll          Phase = "ROLL"            // 等待掷字母
	PhaseList          Phase = "LIST"            // 作答中
	PhaseWaitForOthers Phase = "WAIT_FOR_OTHERS" // 异步模式下等待其他人交卷
	PhaseVote          Phase = "VOTE"            // 互相计票
	PhaseScores        Phase = "SCORES"          // 计分完成
)

// Mode 计时模式
type Mode string

const (
	// ModeRealtime 全房间共用一个计时器，阶段全房间同步
	ModeRealtime Mode = "realtime"
	// ModeAsync 每个玩家独立计时器，阶段按玩家跟踪
	ModeAsync Mode = "async"
)

// SetsPerRound 每回合的答题类目数
const SetsPerRound = 12

// PhaseEvent 阶段变化通知
type PhaseEvent struct {
	Room     string
	Username string // 异步模式下受影响的玩家，同步模式为空
	Phase    Phase
}

// PhaseListener 阶段监听器。回调内不得再调用引擎方法，否则会死锁。
type PhaseListener func(PhaseEvent)

// TickFunc 计时器滴答回调，剩余时长，到期为 0
type TickFunc func(username string, remaining int64)
