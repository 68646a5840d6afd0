package notifications

// Channel define los medios de envío soportados.
// @Enum EMAIL, SMS, WHATSAPP
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WHATSAPP"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp:
		return true
	default:
		return false
	}
}

// Status define el ciclo de entrega de una notificación,
// independiente del estado de la cita que la originó.
// @Enum PENDING, SENT, DELIVERED, FAILED
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusDelivered, StatusFailed:
		return true
	default:
		return false
	}
}

// statusTransitions es la tabla cerrada de transiciones de entrega.
// DELIVERED es terminal; FAILED solo sale vía Retry (vuelta a PENDING).
var statusTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusSent:   true,
		StatusFailed: true,
	},
	StatusSent: {
		StatusDelivered: true,
		StatusFailed:    true,
	},
	StatusFailed: {
		StatusPending: true,
	},
	StatusDelivered: {},
}

func CanTransition(from, to Status) bool {
	return statusTransitions[from][to]
}
