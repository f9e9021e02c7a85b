package tele

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"

	"github.com/theMossCode/sht41-peripheral/helpers"
	"github.com/theMossCode/sht41-peripheral/log2"
)

const defaultNetworkTimeout = 30 * time.Second

type transportMqtt struct {
	log *log2.Log
	m   mqtt.Client

	networkTimeout time.Duration
	topicConnect   string
	topicState     string
	topicTelemetry string
}

func (self *transportMqtt) Init(log *log2.Log, config Config) error {
	self.log = log
	mqtt.ERROR = log
	mqtt.CRITICAL = log
	mqtt.WARN = log
	if config.LogDebug {
		mqtt.DEBUG = log
	}

	if config.DeviceId == "" {
		return errors.Errorf("tele mqtt config device_id is required")
	}
	if config.MqttBroker == "" {
		return errors.Errorf("tele mqtt config mqtt_broker is required")
	}
	clientId := config.DeviceId
	credFun := func() (string, string) {
		return clientId, config.MqttPassword
	}
	self.topicConnect = fmt.Sprintf("%s/c", clientId)
	self.topicState = fmt.Sprintf("%s/w/1s", clientId)
	self.topicTelemetry = fmt.Sprintf("%s/w/1t", clientId)

	keepAlive := helpers.IntSecondDefault(config.KeepaliveSec, 60*time.Second)
	pingTimeout := helpers.IntSecondDefault(config.PingTimeoutSec, 30*time.Second)
	self.networkTimeout = helpers.IntSecondDefault(config.NetworkTimeoutSec, defaultNetworkTimeout)

	opt := mqtt.NewClientOptions().
		AddBroker(config.MqttBroker).
		SetBinaryWill(self.topicConnect, []byte{0x00}, 1, true).
		SetCleanSession(false).
		SetClientID(clientId).
		SetCredentialsProvider(credFun).
		SetKeepAlive(keepAlive).
		SetPingTimeout(pingTimeout).
		SetOrderMatters(false).
		SetConnectRetryInterval(keepAlive / 2).
		SetAutoReconnect(true)
	self.m = mqtt.NewClient(opt)

	// connect in background, device must start without network
	t := self.m.Connect()
	go func() {
		t.Wait()
		if err := t.Error(); err != nil {
			self.log.Errorf("tele mqtt connect err=%v", err)
			return
		}
		self.publish(self.topicConnect, []byte{0x01}, true)
	}()
	return nil
}

func (self *transportMqtt) SendState(payload []byte) bool {
	return self.publish(self.topicState, payload, true)
}

func (self *transportMqtt) SendTelemetry(payload []byte) bool {
	return self.publish(self.topicTelemetry, payload, false)
}

func (self *transportMqtt) Close() {
	const disconnectMillis = 250
	self.publish(self.topicConnect, []byte{0x00}, true)
	self.m.Disconnect(disconnectMillis)
}

func (self *transportMqtt) publish(topic string, payload []byte, retained bool) bool {
	t := self.m.Publish(topic, 1, retained, payload)
	if !t.WaitTimeout(self.networkTimeout) {
		self.log.Errorf("tele mqtt publish timeout topic=%s", topic)
		return false
	}
	if err := t.Error(); err != nil {
		self.log.Errorf("tele mqtt publish topic=%s err=%v", topic, err)
		return false
	}
	return true
}

var _ Transporter = &transportMqtt{}
