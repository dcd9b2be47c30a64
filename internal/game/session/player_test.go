package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlayerResetRoundKeepsScores(t *testing.T) {
	t.Parallel()

	p := NewPlayer("alice")
	p.SetAnswers([]string{"Ant", "Apple"})
	p.PushTallyRow([]int{1, 0})
	p.RoundScores = []int{2}
	p.Score = 2

	p.ResetRound()

	assert.Empty(t, p.Answers)
	assert.Empty(t, p.TallyRows)
	assert.Equal(t, []int{2}, p.RoundScores)
	assert.Equal(t, 2, p.Score)
}

func TestPlayerResetAll(t *testing.T) {
	t.Parallel()

	p := NewPlayer("alice")
	p.SetAnswers([]string{"Ant"})
	p.RoundScores = []int{2, 3}
	p.Score = 5
	p.IsTurn = true

	p.ResetAll()

	assert.Empty(t, p.Answers)
	assert.Empty(t, p.RoundScores)
	assert.Zero(t, p.Score)
	assert.False(t, p.IsTurn)
}

func TestPlayerInfoCopiesSlices(t *testing.T) {
	t.Parallel()

	p := NewPlayer("alice")
	p.Touch(time.Now())
	p.SetAnswers([]string{"Ant"})
	p.RoundScores = []int{1}

	info := p.Info()
	info.Answers[0] = "mutated"
	info.RoundScores[0] = 99

	assert.Equal(t, "Ant", p.Answers[0])
	assert.Equal(t, 1, p.RoundScores[0])
	assert.True(t, info.IsOnline)
	assert.Equal(t, -1, info.Ordinal)
}
