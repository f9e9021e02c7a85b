// Package tele mirrors cycle outcomes and device state to a fleet
// backend over MQTT.
//
// Contract:
// - Init() fails only with invalid config, network issues are ignored
// - State/Outcome never block the telemetry cycle; messages are queued
//   in memory and the oldest is dropped on overflow
// - nothing is persisted, a reboot loses undelivered messages
package tele

import (
	"github.com/theMossCode/sht41-peripheral/internal/sensor"
	"github.com/theMossCode/sht41-peripheral/internal/telemetry"
	"github.com/theMossCode/sht41-peripheral/log2"
)

type State byte

const (
	State_Invalid State = iota
	State_Boot
	State_Nominal
	State_Disconnected
)

type Config struct {
	Enabled           bool   `hcl:"enable"`
	DeviceId          string `hcl:"device_id"`
	MqttBroker        string `hcl:"mqtt_broker"`
	MqttPassword      string `hcl:"mqtt_password"`
	KeepaliveSec      int    `hcl:"keepalive_sec"`
	PingTimeoutSec    int    `hcl:"ping_timeout_sec"`
	NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
	LogDebug          bool   `hcl:"log_debug"`
}

type Teler interface {
	Init(log *log2.Log, config Config) error
	State(s State)
	Outcome(o telemetry.Outcome, r sensor.Reading)
	Close()
}

// stub does nothing, for tests and tele-disabled devices.
type stub struct{}

func NewStub() Teler                                       { return stub{} }
func (stub) Init(log *log2.Log, config Config) error       { return nil }
func (stub) State(s State)                                 {}
func (stub) Outcome(o telemetry.Outcome, r sensor.Reading) {}
func (stub) Close()                                        {}
