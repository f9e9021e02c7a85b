// Package kevent is the synchronisation backbone of the telemetry cycle:
// a coalescing bitmask signal group and a reprogrammable wake timer.
//
// Group semantics: Set() OR-merges bits and never blocks, so it is safe
// from any producer goroutine or transport callback. Wait() suspends the
// single consumer until any bit of mask is pending. Repeated Set() of the
// same bit before a Wait() collapse into one pending signal; bits of
// different kinds accumulate independently and survive unrelated waits.
package kevent

import (
	"sync"
	"time"
)

type Bits uint32

const (
	WakeDue Bits = 1 << iota
	PeerConnected
	PeerDisconnected
	NotificationsArmed
	AckReceived
	Stop
)

type Group struct {
	mu      sync.Mutex
	pending Bits
	bcast   chan struct{}
}

func NewGroup() *Group {
	return &Group{bcast: make(chan struct{})}
}

func (self *Group) Set(b Bits) {
	self.mu.Lock()
	self.pending |= b
	close(self.bcast)
	self.bcast = make(chan struct{})
	self.mu.Unlock()
}

func (self *Group) Clear(b Bits) {
	self.mu.Lock()
	self.pending &^= b
	self.mu.Unlock()
}

func (self *Group) Pending() Bits {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.pending
}

// Wait returns the pending bits matching mask, or 0 on timeout.
// timeout=0 means wait forever.
// With clear=true the matched bits are consumed; bits outside mask are
// left pending for a later wait.
func (self *Group) Wait(mask Bits, clear bool, timeout time.Duration) Bits {
	var deadline <-chan time.Time
	if timeout > 0 {
		tmr := time.NewTimer(timeout)
		defer tmr.Stop()
		deadline = tmr.C
	}

	for {
		self.mu.Lock()
		if hit := self.pending & mask; hit != 0 {
			if clear {
				self.pending &^= hit
			}
			self.mu.Unlock()
			return hit
		}
		bcast := self.bcast
		self.mu.Unlock()

		select {
		case <-bcast:
		case <-deadline:
			return 0
		}
	}
}
