package tele

import (
	"encoding/json"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/theMossCode/sht41-peripheral/internal/sensor"
	"github.com/theMossCode/sht41-peripheral/internal/telemetry"
	"github.com/theMossCode/sht41-peripheral/log2"
)

const queueDepth = 32

type qkind byte

const (
	qState qkind = iota + 1
	qTelemetry
)

type qmsg struct {
	kind    qkind
	payload []byte
}

type tele struct {
	config    Config
	log       *log2.Log
	transport Transporter
	alive     *alive.Alive
	q         chan qmsg
}

// OutcomeReport is the telemetry payload schema.
type OutcomeReport struct {
	Time    int64  `json:"t"`
	Outcome string `json:"outcome"`
	Temp    *int16 `json:"temp,omitempty"` // centi-degrees, delivered cycles only
	Rh      *int16 `json:"rh,omitempty"`   // centi-percent, delivered cycles only
}

func New() Teler { return &tele{} }

// NewWithTransporter is the test seam, production path uses MQTT.
func NewWithTransporter(trans Transporter) Teler { return &tele{transport: trans} }

func (self *tele) Init(log *log2.Log, config Config) error {
	self.config = config
	self.log = log
	if config.LogDebug {
		self.log = log.Clone(log2.LDebug)
	}
	if !config.Enabled {
		return nil
	}

	if self.transport == nil { // production path
		self.transport = &transportMqtt{}
	}
	if err := self.transport.Init(self.log, config); err != nil {
		return errors.Annotate(err, "tele transport")
	}

	self.alive = alive.NewAlive()
	self.q = make(chan qmsg, queueDepth)
	self.alive.Add(1)
	go self.qworker()
	self.State(State_Boot)
	return nil
}

func (self *tele) Close() {
	if self.alive != nil {
		self.alive.Stop()
		self.alive.Wait()
	}
	if self.transport != nil {
		self.transport.Close()
	}
}

func (self *tele) State(s State) {
	if !self.config.Enabled {
		return
	}
	self.push(qmsg{kind: qState, payload: []byte{byte(s)}})
}

func (self *tele) Outcome(o telemetry.Outcome, r sensor.Reading) {
	if !self.config.Enabled {
		return
	}
	report := OutcomeReport{
		Time:    time.Now().Unix(),
		Outcome: o.String(),
	}
	if o == telemetry.OutcomeDelivered {
		temp, rh := r.Temp, r.Rh
		report.Temp, report.Rh = &temp, &rh
	}
	payload, err := json.Marshal(report)
	if err != nil {
		self.log.Errorf("tele outcome marshal err=%v", err)
		return
	}
	self.push(qmsg{kind: qTelemetry, payload: payload})
}

// push never blocks; on a full queue the oldest message is dropped.
func (self *tele) push(m qmsg) {
	for {
		select {
		case self.q <- m:
			return
		default:
		}
		select {
		case dropped := <-self.q:
			self.log.Errorf("tele queue overflow dropped kind=%d", dropped.kind)
		default:
		}
	}
}

func (self *tele) qworker() {
	defer self.alive.Done()
	for {
		select {
		case m := <-self.q:
			self.deliver(m)
		case <-self.alive.StopChan():
			// drain what is already queued, then leave
			for {
				select {
				case m := <-self.q:
					self.deliver(m)
				default:
					return
				}
			}
		}
	}
}

func (self *tele) deliver(m qmsg) {
	var ok bool
	switch m.kind {
	case qState:
		ok = self.transport.SendState(m.payload)
	case qTelemetry:
		ok = self.transport.SendTelemetry(m.payload)
	default:
		self.log.Errorf("tele code error unknown queue kind=%d", m.kind)
		return
	}
	if !ok {
		self.log.Errorf("tele send failed kind=%d payload=%x", m.kind, m.payload)
	}
}

var _ Teler = &tele{}
