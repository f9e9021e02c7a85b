package ble

import (
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/paypal/gatt"
	"github.com/paypal/gatt/examples/option"

	"github.com/theMossCode/sht41-peripheral/log2"
)

const poweredOnTimeout = 10 * time.Second

// polling is the only disarm edge paypal/gatt exposes (Notifier.Done)
const notifierPollInterval = 250 * time.Millisecond

// gattTransport drives a BlueZ HCI device through paypal/gatt.
// Pairing with the fixed passkey is delegated to the controller agent;
// the passkey is kept in config for provisioning.
type gattTransport struct {
	mu     sync.Mutex
	log    *log2.Log
	config Config
	events Events

	device    gatt.Device
	central   gatt.Central
	notifier  gatt.Notifier
	powered   bool
	poweredCh chan struct{}
}

func NewGatt(log *log2.Log, config Config) Transporter {
	if config.DeviceName == "" {
		config.DeviceName = "sht41-peripheral"
	}
	if config.Passkey == 0 {
		config.Passkey = DefaultPasskey
	}
	return &gattTransport{
		log:       log,
		config:    config,
		poweredCh: make(chan struct{}),
	}
}

func (self *gattTransport) Init(events Events) error {
	self.events = events

	device, err := gatt.NewDevice(option.DefaultServerOptions...)
	if err != nil {
		return errors.Annotate(err, "ble new device")
	}
	self.device = device

	device.Handle(
		gatt.CentralConnected(self.onConnect),
		gatt.CentralDisconnected(self.onDisconnect),
	)
	if err = device.Init(self.onStateChanged); err != nil {
		return errors.Annotate(err, "ble init")
	}

	select {
	case <-self.poweredCh:
	case <-time.After(poweredOnTimeout):
		return errors.Errorf("ble power on timeout")
	}
	self.log.Debugf("ble ready name=%s", self.config.DeviceName)
	return nil
}

func (self *gattTransport) StartAdvertise() error {
	err := self.device.AdvertiseNameAndServices(self.config.DeviceName, []gatt.UUID{gatt.MustParseUUID(ServiceUUID)})
	return errors.Annotate(err, "ble advertise")
}

func (self *gattTransport) StopAdvertise() {
	if err := self.device.StopAdvertising(); err != nil {
		self.log.Errorf("ble stop advertise err=%v", err)
	}
}

func (self *gattTransport) Notify(data []byte) error {
	self.mu.Lock()
	n := self.notifier
	self.mu.Unlock()
	if n == nil || n.Done() {
		return errors.Errorf("ble notify channel not armed")
	}
	if _, err := n.Write(data); err != nil {
		return errors.Annotate(err, "ble notify")
	}
	return nil
}

func (self *gattTransport) Disconnect() error {
	self.mu.Lock()
	c := self.central
	self.mu.Unlock()
	if c == nil {
		return errors.Errorf("ble disconnect without central")
	}
	return errors.Annotate(c.Close(), "ble disconnect")
}

func (self *gattTransport) Connected() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.central != nil
}

func (self *gattTransport) Close() error {
	// paypal/gatt declares Stop only on the linux device, not on the
	// gatt.Device interface; assert to reach it.
	return errors.Annotate(self.device.(interface{ Stop() error }).Stop(), "ble close")
}

func (self *gattTransport) onStateChanged(d gatt.Device, s gatt.State) {
	self.log.Debugf("ble state=%s", s)
	switch s {
	case gatt.StatePoweredOn:
		if err := d.AddService(self.buildService()); err != nil {
			self.log.Errorf("ble add service err=%v", err)
			return
		}
		self.mu.Lock()
		if !self.powered {
			self.powered = true
			close(self.poweredCh)
		}
		self.mu.Unlock()
	default:
		self.log.Infof("ble not operational state=%s", s)
	}
}

func (self *gattTransport) buildService() *gatt.Service {
	svc := gatt.NewService(gatt.MustParseUUID(ServiceUUID))

	rx := svc.AddCharacteristic(gatt.MustParseUUID(RxUUID))
	rx.HandleWriteFunc(func(r gatt.Request, data []byte) byte {
		if self.config.LogDebug {
			self.log.Debugf("ble rx write % x", data)
		}
		if self.events.Inbound != nil {
			// copy: gatt reuses the request buffer
			self.events.Inbound(append([]byte(nil), data...))
		}
		return gatt.StatusSuccess
	})

	tx := svc.AddCharacteristic(gatt.MustParseUUID(TxUUID))
	tx.HandleNotifyFunc(func(r gatt.Request, n gatt.Notifier) {
		self.log.Infof("ble notifications armed central=%s", r.Central.ID())
		self.mu.Lock()
		self.notifier = n
		self.mu.Unlock()
		if self.events.Armed != nil {
			self.events.Armed(true)
		}
		go self.watchNotifier(n)
	})

	return svc
}

func (self *gattTransport) watchNotifier(n gatt.Notifier) {
	for !n.Done() {
		time.Sleep(notifierPollInterval)
	}
	self.mu.Lock()
	current := self.notifier == n
	if current {
		self.notifier = nil
	}
	self.mu.Unlock()
	if current {
		self.log.Infof("ble notifications disarmed")
		if self.events.Armed != nil {
			self.events.Armed(false)
		}
	}
}

func (self *gattTransport) onConnect(c gatt.Central) {
	self.log.Infof("ble central connected id=%s mtu=%d", c.ID(), c.MTU())
	self.mu.Lock()
	self.central = c
	self.mu.Unlock()
	if self.events.Connected != nil {
		self.events.Connected()
	}
}

func (self *gattTransport) onDisconnect(c gatt.Central) {
	self.log.Infof("ble central disconnected id=%s", c.ID())
	self.mu.Lock()
	if self.central != nil && self.central.ID() == c.ID() {
		self.central = nil
	}
	self.mu.Unlock()
	if self.events.Disconnected != nil {
		self.events.Disconnected()
	}
}

var _ Transporter = &gattTransport{} // compile-time interface test
