package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theMossCode/sht41-peripheral/log2"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(t testing.TB, c *Config)
		expectErr string
	}
	cases := []Case{
		{"empty", "", func(t testing.TB, c *Config) {
			tm := c.Timing.Timings()
			assert.Equal(t, "60s", tm.WakeInterval.String())
			assert.Equal(t, "5s", tm.AckTimeout.String())
		}, ""},

		{"explicit", `
ble {
  name = "sht41-sensor"
  passkey = 123456
}
sensor {
  bus = "1"
  addr = 68
}
timing {
  wake_interval_sec = 300
  delivery_retry_sec = 30
}
tele {
  enable = true
  device_id = "dev-1"
  mqtt_broker = "tcp://localhost:1883"
}
`, func(t testing.TB, c *Config) {
			assert.Equal(t, "sht41-sensor", c.Ble.DeviceName)
			assert.Equal(t, 123456, c.Ble.Passkey)
			assert.Equal(t, "1", c.Sensor.Bus)
			assert.Equal(t, 0x44, c.Sensor.Addr)
			tm := c.Timing.Timings()
			assert.Equal(t, "5m0s", tm.WakeInterval.String())
			assert.Equal(t, "30s", tm.DeliveryRetry.String())
			assert.Equal(t, "5s", tm.ArmTimeout.String())
			assert.True(t, c.Tele.Enabled)
			assert.Equal(t, "dev-1", c.Tele.DeviceId)
		}, ""},

		{"include-normal", `
include "base" {}
timing { wake_interval_sec = 120 }
`, func(t testing.TB, c *Config) {
			assert.Equal(t, "probe", c.Ble.DeviceName)
			tm := c.Timing.Timings()
			assert.Equal(t, "2m0s", tm.WakeInterval.String())
		}, ""},

		{"include-optional-missing", `
include "non-exist" { optional = true }
ble { name = "x" }
`, func(t testing.TB, c *Config) {
			assert.Equal(t, "x", c.Ble.DeviceName)
		}, ""},

		{"include-required-missing", `include "non-exist" {}`, nil,
			"config required name=non-exist path=non-exist not found"},
	}

	mkFs := func(input string) *MockFullReader {
		return NewMockFullReader(map[string]string{
			"test-inline": input,
			"base":        `ble { name = "probe" }`,
		})
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			log := log2.NewTest(t, log2.LDebug)
			cfg, err := ReadConfig(log, mkFs(c.input), "test-inline")
			if c.expectErr == "" {
				require.NoError(t, err)
				c.check(t, cfg)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.expectErr)
			}
		})
	}
}

func TestNewTestContext(t *testing.T) {
	t.Parallel()

	ctx, g := NewTestContext(t, `ble { name = "unit" }`)
	require.NotNil(t, ctx)
	assert.Equal(t, "unit", g.Config.Ble.DeviceName)
	assert.NotNil(t, g.Ble())
	assert.NotNil(t, g.Sensor())
	assert.Same(t, g, GetGlobal(ctx))
}
