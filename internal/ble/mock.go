package ble

// Public API to easy create link stubs to test your code.

import (
	"sync"
)

// Mock implements Transporter in-memory. Peer* methods play the central
// role from a test goroutine, exactly like transport callbacks would.
type Mock struct {
	// error injection, nil = success
	AdvertiseFunc  func() error
	NotifyFunc     func(data []byte) error
	DisconnectFunc func() error
	// when true, Disconnect does not deliver the disconnected event
	DisconnectSilent bool

	mu          sync.Mutex
	events      Events
	connected   bool
	armed       bool
	advertising bool
	notified    [][]byte
}

func (self *Mock) Init(events Events) error {
	self.mu.Lock()
	self.events = events
	self.mu.Unlock()
	return nil
}

func (self *Mock) StartAdvertise() error {
	if self.AdvertiseFunc != nil {
		if err := self.AdvertiseFunc(); err != nil {
			return err
		}
	}
	self.mu.Lock()
	self.advertising = true
	self.mu.Unlock()
	return nil
}

func (self *Mock) StopAdvertise() {
	self.mu.Lock()
	self.advertising = false
	self.mu.Unlock()
}

func (self *Mock) Notify(data []byte) error {
	if self.NotifyFunc != nil {
		if err := self.NotifyFunc(data); err != nil {
			return err
		}
	}
	self.mu.Lock()
	self.notified = append(self.notified, append([]byte(nil), data...))
	self.mu.Unlock()
	return nil
}

func (self *Mock) Disconnect() error {
	if self.DisconnectFunc != nil {
		if err := self.DisconnectFunc(); err != nil {
			return err
		}
	}
	if !self.DisconnectSilent {
		self.PeerDisconnect()
	}
	return nil
}

func (self *Mock) Connected() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.connected
}

func (self *Mock) Close() error { return nil }

func (self *Mock) PeerConnect() {
	self.mu.Lock()
	self.connected = true
	f := self.events.Connected
	self.mu.Unlock()
	if f != nil {
		f()
	}
}

// PeerDisconnect also delivers the disarm edge: a disconnecting central
// loses its notify subscription.
func (self *Mock) PeerDisconnect() {
	self.mu.Lock()
	self.connected = false
	wasArmed := self.armed
	self.armed = false
	armedF := self.events.Armed
	disconnF := self.events.Disconnected
	self.mu.Unlock()
	if wasArmed && armedF != nil {
		armedF(false)
	}
	if disconnF != nil {
		disconnF()
	}
}

func (self *Mock) PeerArm(enabled bool) {
	self.mu.Lock()
	self.armed = enabled
	f := self.events.Armed
	self.mu.Unlock()
	if f != nil {
		f(enabled)
	}
}

func (self *Mock) PeerWrite(data []byte) {
	self.mu.Lock()
	f := self.events.Inbound
	self.mu.Unlock()
	if f != nil {
		f(append([]byte(nil), data...))
	}
}

func (self *Mock) Advertising() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.advertising
}

func (self *Mock) Notified() [][]byte {
	self.mu.Lock()
	defer self.mu.Unlock()
	out := make([][]byte, len(self.notified))
	copy(out, self.notified)
	return out
}

var _ Transporter = &Mock{}
