package scheduling

import (
	"context"
	"time"
)

// Repository es el contrato de persistencia del agregado.
//
// Create debe cerrar la carrera check-then-insert: además del pre-chequeo
// del Service, el store re-verifica superposición de forma atómica
// (lock de escritura en memoria, transacción serializable en Postgres)
// y devuelve ErrSchedulingConflict si otro request ganó el slot.
type Repository interface {
	Create(ctx context.Context, s Scheduling) error
	Save(ctx context.Context, s Scheduling) error
	GetByID(ctx context.Context, id string) (Scheduling, error)

	// FindConflicts devuelve citas activas (BlocksSlot) cuyo slot se
	// superpone al candidato. excludeID permite re-agendar sin chocar
	// contra la propia cita.
	FindConflicts(ctx context.Context, slot TimeSlot, excludeID string) ([]Scheduling, error)

	UpdateStatus(ctx context.Context, id string, status Status, updatedAt time.Time) error
	UpdateTimeSlot(ctx context.Context, id string, slot TimeSlot, updatedAt time.Time) error

	ListByPeriod(ctx context.Context, from, to time.Time) ([]Scheduling, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Scheduling, error)
	ListByPet(ctx context.Context, petID string) ([]Scheduling, error)
}
