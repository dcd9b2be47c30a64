package session

import (
	"time"

	"github.com/palemoky/scatters/internal/protocol"
)

// Player 房间内单个玩家的计分状态
type Player struct {
	Username string

	Answers     []string // 本回合答案，每个类目一格
	TallyRows   [][]int  // 本回合收到的计票，每个计票玩家一行
	RoundScores []int    // 每回合得分历史
	Score       int      // 累计总分

	IsTurn  bool
	Ordinal int // 回合顺序和计分表展示用的密集序号

	IsOnline bool
	LastSeen time.Time
	Away     bool
}

// NewPlayer 创建玩家，序号未分配时为 -1
func NewPlayer(username string) *Player {
	return &Player{
		Username: username,
		Ordinal:  -1,
	}
}

// SetAnswers 记录本回合答案
func (p *Player) SetAnswers(answers []string) {
	p.Answers = answers
}

// PushTallyRow 追加一行计票（行序即计票玩家顺序）
func (p *Player) PushTallyRow(row []int) {
	p.TallyRows = append(p.TallyRows, row)
}

// ResetRound 清空回合内状态，得分历史保留
func (p *Player) ResetRound() {
	p.Answers = nil
	p.TallyRows = nil
}

// ResetAll 完全重置计分状态（会话重新初始化时）
func (p *Player) ResetAll() {
	p.Answers = nil
	p.TallyRows = nil
	p.RoundScores = nil
	p.Score = 0
	p.IsTurn = false
}

// Touch 显式标记活跃。任何由该玩家触发的变更都应调用。
func (p *Player) Touch(now time.Time) {
	p.IsOnline = true
	p.LastSeen = now
}

// Info 展示信息
func (p *Player) Info() protocol.PlayerInfo {
	return protocol.PlayerInfo{
		Username:    p.Username,
		Score:       p.Score,
		RoundScores: append([]int(nil), p.RoundScores...),
		Answers:     append([]string(nil), p.Answers...),
		Ordinal:     p.Ordinal,
		IsOnline:    p.IsOnline,
		IsTurn:      p.IsTurn,
		Away:        p.Away,
	}
}
