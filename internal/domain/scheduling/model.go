package scheduling

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrIllegalTransition  = errors.New("illegal status transition")
	ErrTerminalState      = errors.New("scheduling is in a terminal state")
	ErrNoServices         = errors.New("scheduling requires at least one service")
	ErrSchedulingConflict = errors.New("scheduling conflict")
	ErrInvalidInput       = errors.New("invalid input")
)

// ScheduledService es una línea de servicio inmutable dentro de la cita
// (snapshot del catálogo al momento de agendar: si el precio del servicio
// cambia después, la cita conserva el precio pactado).
type ScheduledService struct {
	ID              string
	ServiceID       string
	Name            string
	UnitPrice       decimal.Decimal
	DurationMinutes int
}

// Scheduling es el agregado cita: slot + servicios + máquina de estados.
// Toda mutación pasa por los métodos; si el método falla, el agregado
// queda exactamente como estaba (no hay updates parciales).
type Scheduling struct {
	ID         string
	CustomerID string
	PetID      string

	Slot       TimeSlot
	Status     Status
	Services   []ScheduledService
	TotalPrice decimal.Decimal

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewScheduling construye una cita en SCHEDULED.
// No valida conflictos de horario: eso es del workflow de creación (Service).
func NewScheduling(id, customerID, petID string, slot TimeSlot, services []ScheduledService, notes string, now time.Time) (Scheduling, error) {
	if id == "" || customerID == "" || petID == "" {
		return Scheduling{}, ErrInvalidInput
	}
	if slot.IsZero() {
		return Scheduling{}, ErrInvalidInterval
	}
	if len(services) == 0 {
		return Scheduling{}, ErrNoServices
	}

	owned := copyServices(services)

	return Scheduling{
		ID:         id,
		CustomerID: customerID,
		PetID:      petID,
		Slot:       slot,
		Status:     StatusScheduled,
		Services:   owned,
		TotalPrice: totalFor(owned),
		Notes:      notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *Scheduling) Confirm(now time.Time) error {
	return s.transition(StatusConfirmed, now)
}

func (s *Scheduling) MarkAsInProgress(now time.Time) error {
	return s.transition(StatusInProgress, now)
}

func (s *Scheduling) Complete(now time.Time) error {
	return s.transition(StatusCompleted, now)
}

func (s *Scheduling) Cancel(now time.Time) error {
	return s.transition(StatusCancelled, now)
}

func (s *Scheduling) MarkAsNoShow(now time.Time) error {
	return s.transition(StatusNoShow, now)
}

// Reschedule reactiva una cita NO_SHOW con un horario nuevo.
// Siempre vuelve a SCHEDULED: el cliente debe re-confirmar.
func (s *Scheduling) Reschedule(slot TimeSlot, now time.Time) error {
	if slot.IsZero() {
		return ErrInvalidInterval
	}
	if err := s.transition(StatusScheduled, now); err != nil {
		return err
	}
	s.Slot = slot
	return nil
}

// UpdateTimeSlot cambia el horario de una cita todavía activa.
func (s *Scheduling) UpdateTimeSlot(slot TimeSlot, now time.Time) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if slot.IsZero() {
		return ErrInvalidInterval
	}
	s.Slot = slot
	s.UpdatedAt = now
	return nil
}

// UpdateServices reemplaza la lista de servicios y recalcula el total.
// La lista entrante se copia: el agregado es dueño exclusivo de sus líneas.
func (s *Scheduling) UpdateServices(services []ScheduledService, now time.Time) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if len(services) == 0 {
		return ErrNoServices
	}
	owned := copyServices(services)
	s.Services = owned
	s.TotalPrice = totalFor(owned)
	s.UpdatedAt = now
	return nil
}

func (s *Scheduling) HasConflictWith(other Scheduling) bool {
	return s.Slot.Overlaps(other.Slot)
}

// ServicesCopy devuelve una copia propia de las líneas de servicio.
func (s *Scheduling) ServicesCopy() []ScheduledService {
	return copyServices(s.Services)
}

func (s *Scheduling) transition(to Status, now time.Time) error {
	if s.Status.IsTerminal() {
		return ErrTerminalState
	}
	if !CanTransition(s.Status, to) {
		return ErrIllegalTransition
	}
	s.Status = to
	s.UpdatedAt = now
	return nil
}

// mutable: slot y servicios solo se tocan mientras la cita está activa.
// NO_SHOW tampoco admite edición (solo Reschedule).
func (s *Scheduling) mutable() error {
	if s.Status.IsTerminal() {
		return ErrTerminalState
	}
	if s.Status == StatusNoShow {
		return ErrIllegalTransition
	}
	return nil
}

func copyServices(in []ScheduledService) []ScheduledService {
	out := make([]ScheduledService, len(in))
	copy(out, in)
	return out
}

func totalFor(services []ScheduledService) decimal.Decimal {
	total := decimal.Zero
	for _, sv := range services {
		total = total.Add(sv.UnitPrice)
	}
	return total
}
