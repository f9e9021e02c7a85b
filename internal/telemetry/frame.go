// Package telemetry implements the delivery state machine and the wire
// frames exchanged with the collector over the BLE notify/write pair.
package telemetry

import (
	"github.com/juju/errors"

	"github.com/theMossCode/sht41-peripheral/internal/sensor"
)

// Outbound status frames, notified on the tx characteristic.
// Ok carries the reading, Wait and Error are single-byte.
const (
	StatusOk    byte = 0x00
	StatusWait  byte = 0x01
	StatusError byte = 0xff
)

// Inbound single-byte codes written by the collector to the rx
// characteristic. Anything else is dropped.
const (
	AckOk    byte = 0x00
	AckRetry byte = 0x01
)

const okFrameLength = 5

// EncodeOk builds [status, tempHi, tempLo, rhHi, rhLo] with both values
// big-endian signed centi-units. Bit-exact interop format, do not touch.
func EncodeOk(r sensor.Reading) []byte {
	return []byte{
		StatusOk,
		byte(uint16(r.Temp) >> 8),
		byte(uint16(r.Temp)),
		byte(uint16(r.Rh) >> 8),
		byte(uint16(r.Rh)),
	}
}

func EncodeWait() []byte  { return []byte{StatusWait} }
func EncodeError() []byte { return []byte{StatusError} }

// DecodeOk is the collector-side inverse of EncodeOk, used in tests and
// by the tele uplink to re-label delivered readings.
func DecodeOk(frame []byte) (sensor.Reading, error) {
	if len(frame) != okFrameLength {
		return sensor.Reading{}, errors.Errorf("ok frame length=%d expected=%d", len(frame), okFrameLength)
	}
	if frame[0] != StatusOk {
		return sensor.Reading{}, errors.Errorf("ok frame status=%02x", frame[0])
	}
	return sensor.Reading{
		Temp: int16(uint16(frame[1])<<8 | uint16(frame[2])),
		Rh:   int16(uint16(frame[3])<<8 | uint16(frame[4])),
	}, nil
}
