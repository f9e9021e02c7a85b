package kevent

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitConsume(t *testing.T) {
	t.Parallel()

	g := NewGroup()
	g.Set(PeerConnected)
	hit := g.Wait(PeerConnected|WakeDue, true, time.Second)
	assert.Equal(t, PeerConnected, hit)
	assert.Equal(t, Bits(0), g.Pending())
}

func TestWaitTimeout(t *testing.T) {
	t.Parallel()

	g := NewGroup()
	begin := time.Now()
	hit := g.Wait(AckReceived, true, 20*time.Millisecond)
	assert.Equal(t, Bits(0), hit)
	assert.GreaterOrEqual(t, time.Since(begin), 20*time.Millisecond)
}

func TestCoalesce(t *testing.T) {
	t.Parallel()

	g := NewGroup()
	g.Set(WakeDue)
	g.Set(WakeDue)
	g.Set(WakeDue)
	require.Equal(t, WakeDue, g.Wait(WakeDue, true, time.Second))
	// coalesced: second wait must block until timeout
	assert.Equal(t, Bits(0), g.Wait(WakeDue, true, 20*time.Millisecond))
}

func TestUnrelatedBitsSurvive(t *testing.T) {
	t.Parallel()

	g := NewGroup()
	g.Set(PeerConnected | NotificationsArmed)
	require.Equal(t, PeerConnected, g.Wait(PeerConnected, true, time.Second))
	// armed bit must still be pending
	assert.Equal(t, NotificationsArmed, g.Wait(NotificationsArmed, true, time.Second))
}

func TestWaitNoClear(t *testing.T) {
	t.Parallel()

	g := NewGroup()
	g.Set(PeerDisconnected)
	require.Equal(t, PeerDisconnected, g.Wait(PeerDisconnected, false, time.Second))
	require.Equal(t, PeerDisconnected, g.Wait(PeerDisconnected, true, time.Second))
	assert.Equal(t, Bits(0), g.Pending())
}

func TestClear(t *testing.T) {
	t.Parallel()

	g := NewGroup()
	g.Set(AckReceived | WakeDue)
	g.Clear(AckReceived)
	assert.Equal(t, WakeDue, g.Pending())
}

func TestSetWakesWaiter(t *testing.T) {
	t.Parallel()

	g := NewGroup()
	var wg sync.WaitGroup
	wg.Add(1)
	var hit Bits
	go func() {
		defer wg.Done()
		hit = g.Wait(AckReceived, true, 5*time.Second)
	}()
	time.Sleep(10 * time.Millisecond)
	g.Set(AckReceived)
	wg.Wait()
	assert.Equal(t, AckReceived, hit)
}

func TestWaitForever(t *testing.T) {
	t.Parallel()

	g := NewGroup()
	go func() {
		time.Sleep(10 * time.Millisecond)
		g.Set(WakeDue)
	}()
	assert.Equal(t, WakeDue, g.Wait(WakeDue, true, 0))
}
