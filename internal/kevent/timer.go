package kevent

import (
	"sync"
	"time"
)

// Timer is the cycle scheduler: one pending wake at most, Arm replaces it.
// Expiry only sets bit on group, all policy lives in the consumer.
type Timer struct {
	mu     sync.Mutex
	group  *Group
	bit    Bits
	tmr    *time.Timer
	period time.Duration
	gen    uint32
}

func NewTimer(group *Group, bit Bits) *Timer {
	return &Timer{group: group, bit: bit}
}

// Arm programs the next wake after delay, replacing any pending one.
// period=0 is one-shot, otherwise the timer re-arms itself every period
// after the first expiry.
func (self *Timer) Arm(delay, period time.Duration) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.stopLocked()
	self.period = period
	self.gen++
	gen := self.gen
	self.tmr = time.AfterFunc(delay, func() { self.expire(gen) })
}

func (self *Timer) Stop() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.stopLocked()
}

func (self *Timer) stopLocked() {
	self.gen++
	if self.tmr != nil {
		self.tmr.Stop()
		self.tmr = nil
	}
}

func (self *Timer) expire(gen uint32) {
	self.mu.Lock()
	if gen != self.gen {
		// replaced or stopped while this expiry was in flight
		self.mu.Unlock()
		return
	}
	if self.period > 0 {
		self.gen++
		next := self.gen
		self.tmr = time.AfterFunc(self.period, func() { self.expire(next) })
	} else {
		self.tmr = nil
	}
	self.mu.Unlock()

	self.group.Set(self.bit)
}
