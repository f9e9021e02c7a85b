package tele

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theMossCode/sht41-peripheral/internal/sensor"
	"github.com/theMossCode/sht41-peripheral/internal/telemetry"
	"github.com/theMossCode/sht41-peripheral/log2"
)

type mockTransport struct {
	mu      sync.Mutex
	states  [][]byte
	reports [][]byte
}

func (self *mockTransport) Init(log *log2.Log, config Config) error { return nil }
func (self *mockTransport) SendState(payload []byte) bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.states = append(self.states, payload)
	return true
}
func (self *mockTransport) SendTelemetry(payload []byte) bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.reports = append(self.reports, payload)
	return true
}
func (self *mockTransport) Close() {}

func (self *mockTransport) wait(t testing.TB, states, reports int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		self.mu.Lock()
		ok := len(self.states) >= states && len(self.reports) >= reports
		self.mu.Unlock()
		if ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting states=%d reports=%d", states, reports)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOutcomeReports(t *testing.T) {
	t.Parallel()

	trans := &mockTransport{}
	teler := NewWithTransporter(trans)
	require.NoError(t, teler.Init(log2.NewTest(t, log2.LDebug), Config{Enabled: true, DeviceId: "test1"}))
	defer teler.Close()

	teler.Outcome(telemetry.OutcomeDelivered, sensor.Reading{Temp: 2137, Rh: 5502})
	teler.Outcome(telemetry.OutcomePeerAckTimeout, sensor.Reading{})
	trans.wait(t, 1, 2)

	// boot state published by Init
	assert.Equal(t, [][]byte{{byte(State_Boot)}}, trans.states)

	var delivered OutcomeReport
	require.NoError(t, json.Unmarshal(trans.reports[0], &delivered))
	assert.Equal(t, "delivered", delivered.Outcome)
	require.NotNil(t, delivered.Temp)
	require.NotNil(t, delivered.Rh)
	assert.Equal(t, int16(2137), *delivered.Temp)
	assert.Equal(t, int16(5502), *delivered.Rh)

	var failed OutcomeReport
	require.NoError(t, json.Unmarshal(trans.reports[1], &failed))
	assert.Equal(t, "peer-ack-timeout", failed.Outcome)
	assert.Nil(t, failed.Temp, "reading only valid for delivered cycles")
}

func TestDisabled(t *testing.T) {
	t.Parallel()

	trans := &mockTransport{}
	teler := NewWithTransporter(trans)
	require.NoError(t, teler.Init(log2.NewTest(t, log2.LDebug), Config{Enabled: false}))
	defer teler.Close()

	teler.State(State_Nominal)
	teler.Outcome(telemetry.OutcomeDelivered, sensor.Reading{})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, trans.states)
	assert.Empty(t, trans.reports)
}

func TestStub(t *testing.T) {
	t.Parallel()

	s := NewStub()
	require.NoError(t, s.Init(nil, Config{}))
	s.State(State_Boot)
	s.Outcome(telemetry.OutcomeDelivered, sensor.Reading{})
	s.Close()
}
