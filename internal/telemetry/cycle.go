package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/temoto/alive/v2"

	"github.com/theMossCode/sht41-peripheral/helpers"
	"github.com/theMossCode/sht41-peripheral/helpers/atomic_clock"
	"github.com/theMossCode/sht41-peripheral/internal/ble"
	"github.com/theMossCode/sht41-peripheral/internal/kevent"
	"github.com/theMossCode/sht41-peripheral/internal/sensor"
	"github.com/theMossCode/sht41-peripheral/log2"
)

type State uint32

const (
	StateDefault State = iota

	StateWaitWake   // block on wake bit, no timeout
	StateAdvertise  // start discoverability
	StateAwaitPeer  // wait connect 60s, then notify arm 5s
	StateMeasure    // sensor ready check + one fetch
	StateDeliver    // encode + notify
	StateAwaitAck   // wait collector ack/retry 5s
	StateDisconnect // teardown, stop adv, re-arm wake

	StateStop
)

func (s State) String() string {
	switch s {
	case StateWaitWake:
		return "WaitWake"
	case StateAdvertise:
		return "Advertise"
	case StateAwaitPeer:
		return "AwaitPeer"
	case StateMeasure:
		return "Measure"
	case StateDeliver:
		return "Deliver"
	case StateAwaitAck:
		return "AwaitAck"
	case StateDisconnect:
		return "Disconnect"
	case StateStop:
		return "Stop"
	}
	return "Default"
}

type Config struct {
	WakeIntervalSec      int `hcl:"wake_interval_sec"`
	ConnectTimeoutSec    int `hcl:"connect_timeout_sec"`
	ArmTimeoutSec        int `hcl:"arm_timeout_sec"`
	AckTimeoutSec        int `hcl:"ack_timeout_sec"`
	DisconnectTimeoutSec int `hcl:"disconnect_timeout_sec"`
	SensorRetrySec       int `hcl:"sensor_retry_sec"`
	DeliveryRetrySec     int `hcl:"delivery_retry_sec"`
	PeerRetrySec         int `hcl:"peer_retry_sec"`
	IdleRearmSec         int `hcl:"idle_rearm_sec"`
}

// Timings carries every delivery timeout in resolved form.
// Tests shrink them to milliseconds.
type Timings struct {
	WakeInterval      time.Duration // initial arm at boot
	ConnectTimeout    time.Duration
	ArmTimeout        time.Duration
	AckTimeout        time.Duration
	DisconnectTimeout time.Duration
	SensorRetry       time.Duration // one-shot after fetch error
	DeliveryRetry     time.Duration // repeating after notify error or ack timeout
	PeerRetry         time.Duration // one-shot after collector retry request
	IdleRearm         time.Duration // one-shot after successful delivery
}

func (c Config) Timings() Timings {
	return Timings{
		WakeInterval:      helpers.IntSecondDefault(c.WakeIntervalSec, 60*time.Second),
		ConnectTimeout:    helpers.IntSecondDefault(c.ConnectTimeoutSec, 60*time.Second),
		ArmTimeout:        helpers.IntSecondDefault(c.ArmTimeoutSec, 5*time.Second),
		AckTimeout:        helpers.IntSecondDefault(c.AckTimeoutSec, 5*time.Second),
		DisconnectTimeout: helpers.IntSecondDefault(c.DisconnectTimeoutSec, 5*time.Second),
		SensorRetry:       helpers.IntSecondDefault(c.SensorRetrySec, 5*time.Second),
		DeliveryRetry:     helpers.IntSecondDefault(c.DeliveryRetrySec, 15*time.Second),
		PeerRetry:         helpers.IntSecondDefault(c.PeerRetrySec, 1*time.Second),
		IdleRearm:         helpers.IntSecondDefault(c.IdleRearmSec, 15*time.Second),
	}
}

const ackNone uint32 = 0

// Cycle runs the measure-advertise-deliver-ack loop. Single consumer of
// the event group; transport callbacks only flip flags and set bits.
type Cycle struct { //nolint:maligned
	log       *log2.Log
	transport ble.Transporter
	sensor    sensor.Sensorer
	group     *kevent.Group
	timer     *kevent.Timer
	timings   Timings

	// written by transport callbacks, read by the cycle
	armed   uint32
	ackCode uint32 // 0 = none, else 0x100|code

	// reading of the current iteration only, never reused
	reading sensor.Reading

	state         uint32
	lastWake      *atomic_clock.Clock
	lastDelivered *atomic_clock.Clock

	onOutcome func(Outcome, sensor.Reading)

	XXX_testHook func(State)
}

func NewCycle(log *log2.Log, transport ble.Transporter, sens sensor.Sensorer, timings Timings) *Cycle {
	group := kevent.NewGroup()
	return &Cycle{
		log:           log,
		transport:     transport,
		sensor:        sens,
		group:         group,
		timer:         kevent.NewTimer(group, kevent.WakeDue),
		timings:       timings,
		lastWake:      atomic_clock.New(0),
		lastDelivered: atomic_clock.New(0),
	}
}

// Init registers the callback set with the transport.
func (self *Cycle) Init() error {
	return self.transport.Init(ble.Events{
		Connected:    func() { self.group.Set(kevent.PeerConnected) },
		Disconnected: func() { self.group.Set(kevent.PeerDisconnected) },
		Armed:        self.onArmed,
		Inbound:      self.onInbound,
	})
}

// SetOutcomeFunc installs the uplink hook; called once per iteration
// from the cycle goroutine, reading valid only for OutcomeDelivered.
func (self *Cycle) SetOutcomeFunc(f func(Outcome, sensor.Reading)) { self.onOutcome = f }

func (self *Cycle) Timer() *kevent.Timer { return self.timer }
func (self *Cycle) Group() *kevent.Group { return self.group }

func (self *Cycle) State() State       { return State(atomic.LoadUint32(&self.state)) }
func (self *Cycle) setState(new State) { atomic.StoreUint32(&self.state, uint32(new)) }

func (self *Cycle) LastWake() time.Time      { return self.lastWake.Time() }
func (self *Cycle) LastDelivered() time.Time { return self.lastDelivered.Time() }

func (self *Cycle) Loop(a *alive.Alive) {
	a.Add(1)
	defer a.Done()
	go func() {
		<-a.StopChan()
		self.group.Set(kevent.Stop)
	}()

	next := StateWaitWake
	for next != StateStop && a.IsRunning() {
		self.setState(next)
		current := next
		next = self.enter(current)
		if next == StateDefault {
			self.log.Fatalf("cycle state=%s next=default", current.String())
		}
		if self.XXX_testHook != nil {
			self.XXX_testHook(next)
		}
	}
	self.setState(StateStop)
	self.log.Debugf("cycle loop end")
}

func (self *Cycle) enter(s State) State {
	self.log.Debugf("cycle enter %s", s.String())
	switch s {
	case StateWaitWake:
		hit := self.group.Wait(kevent.WakeDue|kevent.Stop, true, 0)
		if hit&kevent.Stop != 0 {
			return StateStop
		}
		self.lastWake.SetNow()
		// invalid until this iteration fetches
		self.reading = sensor.Reading{}
		return StateAdvertise

	case StateAdvertise:
		if err := self.transport.StartAdvertise(); err != nil {
			self.log.Errorf("cycle advertise err=%v", err)
			return self.abandon(OutcomeAdvertiseFailed)
		}
		return StateAwaitPeer

	case StateAwaitPeer:
		if !self.transport.Connected() {
			self.log.Infof("cycle wait connection")
			hit := self.group.Wait(kevent.PeerConnected|kevent.Stop, true, self.timings.ConnectTimeout)
			if hit&kevent.Stop != 0 {
				return StateStop
			}
			if hit == 0 {
				self.log.Errorf("cycle connection wait timeout")
				self.transport.StopAdvertise()
				return self.abandon(OutcomePeerUnreachable)
			}
		}
		if !self.Armed() {
			self.log.Infof("cycle wait notifications arm")
			hit := self.group.Wait(kevent.NotificationsArmed|kevent.Stop, true, self.timings.ArmTimeout)
			if hit&kevent.Stop != 0 {
				return StateStop
			}
			if hit == 0 {
				self.log.Errorf("cycle notifications arm wait timeout")
				self.transport.StopAdvertise()
				return self.abandon(OutcomePeerUnreachable)
			}
		}
		return StateMeasure

	case StateMeasure:
		if !self.sensor.Ready() {
			self.log.Errorf("cycle sensor not available")
			self.sendBestEffort(EncodeError())
			return self.abandon(OutcomeSensorUnavailable)
		}
		reading, err := self.sensor.Fetch()
		if err != nil {
			self.log.Errorf("cycle sensor fetch err=%v", err)
			self.sendBestEffort(EncodeWait())
			self.timer.Arm(self.timings.SensorRetry, 0)
			return self.abandon(OutcomeSensorReadError)
		}
		self.reading = reading
		return StateDeliver

	case StateDeliver:
		// discard ack signals from outside the awaiting-ack window
		if self.takeAck() != ackNone {
			self.log.Infof("cycle stale ack dropped")
		}
		self.group.Clear(kevent.AckReceived)

		if !self.Armed() {
			self.log.Errorf("cycle notify channel disarmed before send")
			self.timer.Arm(self.timings.DeliveryRetry, self.timings.DeliveryRetry)
			return self.abandon(OutcomeNotifyFailed)
		}
		if err := self.transport.Notify(EncodeOk(self.reading)); err != nil {
			self.log.Errorf("cycle notify err=%v", err)
			self.timer.Arm(self.timings.DeliveryRetry, self.timings.DeliveryRetry)
			return self.abandon(OutcomeNotifyFailed)
		}
		self.log.Infof("cycle delivered %s", self.reading.String())
		return StateAwaitAck

	case StateAwaitAck:
		// unknown recorded code retries the wait once, never loops
		for try := 0; try < 2; try++ {
			hit := self.group.Wait(kevent.AckReceived|kevent.Stop, true, self.timings.AckTimeout)
			if hit&kevent.Stop != 0 {
				return StateStop
			}
			if hit == 0 {
				self.log.Errorf("cycle ack wait timeout")
				self.timer.Arm(self.timings.DeliveryRetry, self.timings.DeliveryRetry)
				return self.abandon(OutcomePeerAckTimeout)
			}
			switch code := self.takeAck(); code {
			case 0x100 | uint32(AckOk):
				return StateDisconnect
			case 0x100 | uint32(AckRetry):
				self.log.Infof("cycle collector requested retry")
				self.timer.Arm(self.timings.PeerRetry, 0)
				return self.abandon(OutcomeRetryRequested)
			default:
				self.log.Errorf("cycle unexpected ack code=%03x", code)
			}
		}
		self.timer.Arm(self.timings.DeliveryRetry, self.timings.DeliveryRetry)
		return self.abandon(OutcomePeerAckTimeout)

	case StateDisconnect:
		if err := self.transport.Disconnect(); err != nil {
			self.log.Errorf("cycle disconnect err=%v", err)
			return self.abandon(OutcomeDisconnectFailed)
		}
		hit := self.group.Wait(kevent.PeerDisconnected|kevent.Stop, true, self.timings.DisconnectTimeout)
		if hit&kevent.Stop != 0 {
			return StateStop
		}
		if hit == 0 {
			self.log.Errorf("cycle disconnect wait timeout")
			return self.abandon(OutcomeDisconnectTimeout)
		}
		self.transport.StopAdvertise()
		self.timer.Arm(self.timings.IdleRearm, 0)
		self.lastDelivered.SetNow()
		self.report(OutcomeDelivered)
		return StateWaitWake
	}
	return StateDefault
}

// abandon ends the iteration after a failure branch. Scheduler decisions
// are made at the call site: some paths re-arm, some deliberately rely
// on the previously programmed wake.
func (self *Cycle) abandon(o Outcome) State {
	self.report(o)
	return StateWaitWake
}

func (self *Cycle) report(o Outcome) {
	self.log.Infof("cycle outcome=%s", o.String())
	if self.onOutcome != nil {
		self.onOutcome(o, self.reading)
	}
}

func (self *Cycle) sendBestEffort(frame []byte) {
	if !self.Armed() {
		return
	}
	if err := self.transport.Notify(frame); err != nil {
		self.log.Debugf("cycle best-effort notify err=%v", err)
	}
}

func (self *Cycle) Armed() bool { return atomic.LoadUint32(&self.armed) != 0 }

func (self *Cycle) onArmed(enabled bool) {
	if enabled {
		atomic.StoreUint32(&self.armed, 1)
		self.group.Set(kevent.NotificationsArmed)
	} else {
		atomic.StoreUint32(&self.armed, 0)
	}
}

func (self *Cycle) onInbound(data []byte) {
	if len(data) == 0 {
		self.log.Errorf("cycle inbound empty write")
		return
	}
	switch data[0] {
	case AckOk, AckRetry:
		atomic.StoreUint32(&self.ackCode, 0x100|uint32(data[0]))
		self.group.Set(kevent.AckReceived)
	default:
		self.log.Errorf("cycle inbound unexpected code=%02x", data[0])
	}
}

func (self *Cycle) takeAck() uint32 { return atomic.SwapUint32(&self.ackCode, ackNone) }
