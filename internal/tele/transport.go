package tele

import (
	"github.com/theMossCode/sht41-peripheral/log2"
)

// Transporter contract:
// - Init fails only with invalid config, ignores network errors
// - Send* deliver within network timeout or report false
// - assume worst network quality: the device may spend most of its life
//   out of coverage
type Transporter interface {
	Init(log *log2.Log, config Config) error
	SendState(payload []byte) bool
	SendTelemetry(payload []byte) bool
	Close()
}
