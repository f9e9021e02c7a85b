// Package sensor provides the temperature/humidity source for the
// telemetry cycle. One Fetch per cycle, readings are never cached.
package sensor

import "fmt"

// Reading is one sample in signed fixed-point centi-units:
// Temp = degrees Celsius * 100, Rh = percent relative humidity * 100.
type Reading struct {
	Temp int16
	Rh   int16
}

func (r Reading) String() string {
	return fmt.Sprintf("t=%sC rh=%s%%", centi(r.Temp), centi(r.Rh))
}

// centi avoids the sign loss of %d on values in (-100..0)
func centi(x int16) string {
	v := int32(x)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// NewReading converts physical values, rounding to centi-units and
// saturating at the int16 range.
func NewReading(tempC, rhPercent float64) Reading {
	return Reading{
		Temp: clamp100(tempC),
		Rh:   clamp100(rhPercent),
	}
}

func clamp100(v float64) int16 {
	x := v * 100
	if x >= 32767 {
		return 32767
	}
	if x <= -32768 {
		return -32768
	}
	if x >= 0 {
		return int16(x + 0.5)
	}
	return int16(x - 0.5)
}

// Sensorer is the device boundary. Ready may be called every cycle;
// it must be cheap on the happy path and re-probe after failures.
type Sensorer interface {
	Ready() bool
	Fetch() (Reading, error)
}
