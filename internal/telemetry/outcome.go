package telemetry

type Outcome uint32

const (
	OutcomeInvalid Outcome = iota
	OutcomeDelivered
	OutcomeAdvertiseFailed
	OutcomePeerUnreachable // connect or arm wait timed out
	OutcomeSensorUnavailable
	OutcomeSensorReadError
	OutcomeNotifyFailed
	OutcomePeerAckTimeout
	OutcomeRetryRequested
	OutcomeDisconnectFailed
	OutcomeDisconnectTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeAdvertiseFailed:
		return "advertise-failed"
	case OutcomePeerUnreachable:
		return "peer-unreachable"
	case OutcomeSensorUnavailable:
		return "sensor-unavailable"
	case OutcomeSensorReadError:
		return "sensor-read-error"
	case OutcomeNotifyFailed:
		return "notify-failed"
	case OutcomePeerAckTimeout:
		return "peer-ack-timeout"
	case OutcomeRetryRequested:
		return "retry-requested"
	case OutcomeDisconnectFailed:
		return "disconnect-failed"
	case OutcomeDisconnectTimeout:
		return "disconnect-timeout"
	}
	return "invalid"
}
