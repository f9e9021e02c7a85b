package state

import (
	"context"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/theMossCode/sht41-peripheral/helpers"
	"github.com/theMossCode/sht41-peripheral/internal/ble"
	"github.com/theMossCode/sht41-peripheral/internal/sensor"
	"github.com/theMossCode/sht41-peripheral/internal/tele"
	"github.com/theMossCode/sht41-peripheral/log2"
)

type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Config       *Config
	Log          *log2.Log
	Tele         tele.Teler

	Hardware struct {
		Ble    ble.Transporter
		Sensor sensor.Sensorer
	}
}

const ContextKey = "run/state-global"

func NewContext(log *log2.Log) (context.Context, *Global) {
	if log == nil {
		panic("code error state.NewContext() log=nil")
	}

	g := &Global{
		Alive: alive.NewAlive(),
		Log:   log,
		Tele:  tele.NewStub(),
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, log2.ContextKey, log)
	ctx = context.WithValue(ctx, ContextKey, g)
	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic("context.Value " + ContextKey)
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic("context.Value -> type")
}

func (g *Global) Init(ctx context.Context, config *Config) error {
	g.Config = config

	errs := make([]error, 0)

	if g.Config.Tele.Enabled {
		g.Tele = tele.New()
	}
	if err := g.Tele.Init(g.Log, g.Config.Tele); err != nil {
		errs = append(errs, errors.Annotate(err, "tele init"))
	}

	return errors.Annotate(helpers.FoldErrors(errs), "state.Init")
}

func (g *Global) MustInit(ctx context.Context, config *Config) {
	if err := g.Init(ctx, config); err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}
}

// Ble returns the peripheral transport, creating it on first use.
// Tests assign Hardware.Ble before Init to inject a mock.
func (g *Global) Ble() ble.Transporter {
	if g.Hardware.Ble == nil {
		g.Hardware.Ble = ble.NewGatt(g.Log, g.Config.Ble)
	}
	return g.Hardware.Ble
}

func (g *Global) Sensor() sensor.Sensorer {
	if g.Hardware.Sensor == nil {
		g.Hardware.Sensor = sensor.NewSHT4x(g.Log, g.Config.Sensor)
	}
	return g.Hardware.Sensor
}

func (g *Global) Stop() {
	g.Alive.Stop()
}
