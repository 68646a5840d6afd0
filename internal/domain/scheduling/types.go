package scheduling

// Status define el ciclo de vida de una cita.
// @Enum SCHEDULED, CONFIRMED, IN_PROGRESS, COMPLETED, CANCELLED, NO_SHOW
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusNoShow     Status = "NO_SHOW"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	default:
		return false
	}
}

// IsTerminal: desde COMPLETED o CANCELLED no se admite ninguna mutación.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// BlocksSlot indica si la cita retiene su horario a efectos de conflicto.
// Un NO_SHOW libera el slot (la cita no ocurrió) igual que los terminales.
func (s Status) BlocksSlot() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress:
		return true
	default:
		return false
	}
}

// transitions es la tabla cerrada de transiciones legales.
// Agregar un estado nuevo obliga a revisar cada entrada aquí.
var transitions = map[Status]map[Status]bool{
	StatusScheduled: {
		StatusConfirmed:  true,
		StatusInProgress: true,
		StatusCancelled:  true,
		StatusNoShow:     true,
	},
	StatusConfirmed: {
		StatusInProgress: true,
		StatusCancelled:  true,
		StatusNoShow:     true,
	},
	StatusInProgress: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	// Desde NO_SHOW lo único permitido es reagendar, y siempre
	// se vuelve a SCHEDULED (nunca directo a CONFIRMED).
	StatusNoShow: {
		StatusScheduled: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return transitions[from][to]
}
