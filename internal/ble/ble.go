// Package ble is the link boundary of the telemetry cycle.
//
// The cycle only ever calls Transporter methods and reacts to Events
// callbacks; advertising, connection, pairing and GATT plumbing live
// behind this interface. Events producers must never block and must not
// call back into the Transporter.
package ble

const (
	ServiceUUID = "edd1a5f3-dbb0-4b29-b449-a4be5161f18e"
	// central writes ack/retry bytes here
	RxUUID = "edd1a5f3-dbb2-4b29-b449-a4be5161f18e"
	// device notifies status frames here
	TxUUID = "edd1a5f3-dbb3-4b29-b449-a4be5161f18e"
)

const DefaultPasskey = 123456

type Config struct {
	DeviceName string `hcl:"name"`
	Passkey    int    `hcl:"passkey"`
	LogDebug   bool   `hcl:"log_debug"`
}

// Events are delivered from the transport's own goroutines.
type Events struct {
	Connected    func()
	Disconnected func()
	// Armed reports the notify channel enable/disable edge. May fire at
	// any point, including mid-cycle.
	Armed func(enabled bool)
	// Inbound delivers raw central writes to the rx characteristic.
	Inbound func(data []byte)
}

type Transporter interface {
	Init(events Events) error
	StartAdvertise() error
	StopAdvertise()
	Notify(data []byte) error
	Disconnect() error
	Connected() bool
	Close() error
}
