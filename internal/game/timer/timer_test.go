package timer

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recvTick waits for the next tick with a real-time safety net so a broken
// timer fails the test instead of hanging it.
func recvTick(t *testing.T, ch <-chan time.Duration) time.Duration {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
		return 0
	}
}

func TestTimerTicksAndExpires(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	rt := NewWithClock(500*time.Millisecond, fc)

	ticks := make(chan time.Duration, 16)
	rt.Start(func(remaining time.Duration) {
		ticks <- remaining
	})

	// First tick fires immediately with the full round length.
	assert.Equal(t, 500*time.Millisecond, recvTick(t, ticks))

	fc.BlockUntil(1)
	fc.Advance(TickInterval)
	assert.Equal(t, 250*time.Millisecond, recvTick(t, ticks))

	fc.BlockUntil(1)
	fc.Advance(TickInterval)
	assert.Equal(t, time.Duration(0), recvTick(t, ticks))

	// Expiry stops the timer on its own.
	assert.Eventually(t, func() bool { return !rt.InProgress() },
		2*time.Second, 10*time.Millisecond)
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	rt := NewWithClock(time.Minute, fc)

	ticks := make(chan time.Duration, 16)
	rt.Start(func(remaining time.Duration) {
		ticks <- remaining
	})
	recvTick(t, ticks)

	end := rt.EndTime()
	rt.Start(func(time.Duration) {
		t.Error("second callback must not be installed")
	})

	// Deadline unchanged, original callback still the one ticking.
	assert.Equal(t, end, rt.EndTime())
	fc.BlockUntil(1)
	fc.Advance(TickInterval)
	recvTick(t, ticks)
}

func TestStopClearsStateAndRestarts(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	rt := NewWithClock(time.Minute, fc)

	ticks := make(chan time.Duration, 16)
	rt.Start(func(remaining time.Duration) {
		ticks <- remaining
	})
	recvTick(t, ticks)

	rt.Stop()
	assert.False(t, rt.InProgress())
	assert.True(t, rt.StartTime().IsZero())
	assert.True(t, rt.EndTime().IsZero())

	// Idempotent.
	rt.Stop()

	rt.Start(func(remaining time.Duration) {
		ticks <- remaining
	})
	require.True(t, rt.InProgress())
	assert.Equal(t, time.Minute, recvTick(t, ticks))
}
