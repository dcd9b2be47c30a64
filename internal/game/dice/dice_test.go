package dice

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Dice {
	t.Helper()
	return NewWithRand(rand.New(rand.NewPCG(1, 2)))
}

func TestRollNoRepeatsWithinPool(t *testing.T) {
	t.Parallel()

	d := seeded(t)
	seen := make(map[string]bool)
	for i := 0; i < len(Values); i++ {
		v := d.Roll()
		assert.False(t, seen[v], "letter %q drawn twice before pool refill", v)
		seen[v] = true
	}

	// One full pass draws the entire alphabet exactly once.
	assert.Len(t, seen, len(Values))
	assert.Equal(t, 0, d.Remaining())
}

func TestRollRefillsEmptyPool(t *testing.T) {
	t.Parallel()

	d := seeded(t)
	for i := 0; i < len(Values); i++ {
		d.Roll()
	}
	require.Equal(t, 0, d.Remaining())

	v := d.Roll()
	assert.NotEmpty(t, v)
	assert.Equal(t, len(Values)-1, d.Remaining())
}

func TestRollSingleLetterPool(t *testing.T) {
	t.Parallel()

	d := seeded(t)
	for i := 0; i < len(Values)-1; i++ {
		d.Roll()
	}
	require.Equal(t, 1, d.Remaining())

	v := d.Roll()
	assert.NotEmpty(t, v)
	assert.Equal(t, v, d.Value())
	assert.Equal(t, 0, d.Remaining())
}

func TestRerollKeepsPoolSize(t *testing.T) {
	t.Parallel()

	d := seeded(t)
	d.Roll()
	require.Equal(t, len(Values)-1, d.Remaining())

	// Current letter goes back in before the new one comes out.
	v := d.Reroll()
	assert.NotEmpty(t, v)
	assert.Equal(t, len(Values)-1, d.Remaining())
}

func TestResetRoll(t *testing.T) {
	t.Parallel()

	d := seeded(t)
	d.Roll()
	d.ResetRoll()

	assert.Empty(t, d.Value())
	assert.Equal(t, len(Values), d.Remaining())

	// Resetting with no current letter must not grow the pool.
	d.ResetRoll()
	assert.Equal(t, len(Values), d.Remaining())
}
