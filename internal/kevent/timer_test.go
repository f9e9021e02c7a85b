package kevent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerOneShot(t *testing.T) {
	t.Parallel()

	g := NewGroup()
	tmr := NewTimer(g, WakeDue)
	defer tmr.Stop()
	tmr.Arm(10*time.Millisecond, 0)
	require.Equal(t, WakeDue, g.Wait(WakeDue, true, time.Second))
	// one-shot must not fire again
	assert.Equal(t, Bits(0), g.Wait(WakeDue, true, 50*time.Millisecond))
}

func TestTimerPeriodic(t *testing.T) {
	t.Parallel()

	g := NewGroup()
	tmr := NewTimer(g, WakeDue)
	defer tmr.Stop()
	tmr.Arm(5*time.Millisecond, 5*time.Millisecond)
	for i := 0; i < 3; i++ {
		require.Equal(t, WakeDue, g.Wait(WakeDue, true, time.Second), "fire=%d", i)
	}
}

func TestTimerArmReplacesPending(t *testing.T) {
	t.Parallel()

	g := NewGroup()
	tmr := NewTimer(g, WakeDue)
	defer tmr.Stop()
	tmr.Arm(30*time.Millisecond, 30*time.Millisecond)
	tmr.Arm(5*time.Millisecond, 0)
	require.Equal(t, WakeDue, g.Wait(WakeDue, true, time.Second))
	// replaced schedule was periodic, new one is one-shot
	assert.Equal(t, Bits(0), g.Wait(WakeDue, true, 60*time.Millisecond))
}

func TestTimerStop(t *testing.T) {
	t.Parallel()

	g := NewGroup()
	tmr := NewTimer(g, WakeDue)
	tmr.Arm(10*time.Millisecond, 0)
	tmr.Stop()
	assert.Equal(t, Bits(0), g.Wait(WakeDue, true, 50*time.Millisecond))
}
