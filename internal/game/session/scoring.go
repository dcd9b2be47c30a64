package session

import "strings"

// calculateScoresLocked 本回合计分。每个类目把所有计票玩家投的票值相加，
// 和为正记 1 分；得分类目的答案里，首字母与本回合字母相同的非首单词
// 每个再加 1 分（头韵加分，忽略大小写）。回合分追加进历史并累进总分，
// 计票矩阵清空。
func (e *Engine) calculateScoresLocked() {
	letter := strings.ToLower(e.dice.Value())

	for _, u := range e.order {
		p := e.players[u]
		roundScore := 0

		for i := 0; i < SetsPerRound; i++ {
			setScore := 0
			for _, row := range p.TallyRows {
				if i < len(row) {
					setScore += row[i]
				}
			}
			if setScore <= 0 {
				continue
			}

			roundScore++

			if letter == "" || i >= len(p.Answers) {
				continue
			}
			words := strings.Fields(p.Answers[i])
			for j, w := range words {
				if j == 0 {
					continue
				}
				if strings.EqualFold(w[:1], letter) {
					roundScore++
				}
			}
		}

		p.RoundScores = append(p.RoundScores, roundScore)
		p.Score += roundScore
		p.TallyRows = nil
	}
}
