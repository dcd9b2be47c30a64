package presence

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeRecorder struct {
	mu      sync.Mutex
	changes []string
}

func (cr *changeRecorder) record(username string, online bool) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	state := "offline"
	if online {
		state = "online"
	}
	cr.changes = append(cr.changes, username+":"+state)
}

func (cr *changeRecorder) snapshot() []string {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return append([]string(nil), cr.changes...)
}

func TestTouchMarksOnline(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	rec := &changeRecorder{}
	tr := NewWithClock(fc, DefaultSweepInterval, DefaultWindow, rec.record)

	assert.False(t, tr.IsOnline("alice"))

	tr.Touch("alice")
	assert.True(t, tr.IsOnline("alice"))
	assert.Equal(t, []string{"alice:online"}, rec.snapshot())

	// Repeated touches while online stay quiet.
	tr.Touch("alice")
	assert.Equal(t, []string{"alice:online"}, rec.snapshot())
}

func TestSweepExpiresStalePlayers(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	rec := &changeRecorder{}
	tr := NewWithClock(fc, DefaultSweepInterval, DefaultWindow, rec.record)

	tr.Touch("alice")
	tr.Touch("bob")

	// Within the window nobody expires.
	fc.Advance(DefaultWindow)
	tr.Sweep()
	assert.True(t, tr.IsOnline("alice"))

	// Bob stays fresh, alice goes stale.
	tr.Touch("bob")
	fc.Advance(DefaultWindow / 2)
	tr.Sweep()

	assert.False(t, tr.IsOnline("alice"))
	assert.True(t, tr.IsOnline("bob"))
	assert.Contains(t, rec.snapshot(), "alice:offline")

	// Coming back flips online immediately.
	tr.Touch("alice")
	assert.True(t, tr.IsOnline("alice"))
}

func TestSweepLoopRunsOnClock(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	rec := &changeRecorder{}
	tr := NewWithClock(fc, DefaultSweepInterval, DefaultWindow, rec.record)

	tr.Touch("alice")
	tr.Start()
	defer tr.Stop()

	fc.BlockUntil(1)
	fc.Advance(DefaultWindow + DefaultSweepInterval)

	require.Eventually(t, func() bool {
		return !tr.IsOnline("alice")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestForget(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	tr := NewWithClock(fc, DefaultSweepInterval, DefaultWindow, nil)

	tr.Touch("alice")
	tr.Forget("alice")
	assert.False(t, tr.IsOnline("alice"))

	// No callback registered, sweep must not panic.
	fc.Advance(DefaultWindow * 2)
	tr.Sweep()
}
