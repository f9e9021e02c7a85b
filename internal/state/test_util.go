package state

import (
	"context"
	"testing"

	"github.com/theMossCode/sht41-peripheral/internal/ble"
	"github.com/theMossCode/sht41-peripheral/internal/sensor"
	"github.com/theMossCode/sht41-peripheral/log2"
)

func NewTestContext(t testing.TB, confString string) (context.Context, *Global) {
	fs := NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	log := log2.NewTest(t, log2.LDebug)
	log.SetFlags(log2.LTestFlags)
	ctx, g := NewContext(log)
	g.Hardware.Ble = &ble.Mock{}
	g.Hardware.Sensor = &sensor.Mock{}

	config := MustReadConfig(log, fs, "test-inline")
	g.MustInit(ctx, config)

	return ctx, g
}
