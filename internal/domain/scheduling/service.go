package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Eventos que dispara el ciclo de vida de la cita. Las claves son las
// que resuelve la tabla de reglas de notificación ("category.type").
const (
	EventCreated     = "scheduling.created"
	EventConfirmed   = "scheduling.confirmed"
	EventCancelled   = "scheduling.cancelled"
	EventRescheduled = "scheduling.rescheduled"
	EventCompleted   = "scheduling.completed"
	EventNoShow      = "scheduling.no_show"
)

// EventSink recibe los eventos de cita para despachar notificaciones.
// Puede ser nil (modo dev sin notificaciones).
type EventSink interface {
	Publish(ctx context.Context, event string, s Scheduling)
}

type Service struct {
	repo   Repository
	events EventSink
	now    func() time.Time
}

func NewService(repo Repository, events EventSink) *Service {
	return &Service{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

type ServiceItemInput struct {
	ServiceID       string
	Name            string
	UnitPrice       decimal.Decimal
	DurationMinutes int
}

type CreateInput struct {
	CustomerID string
	PetID      string
	StartAt    time.Time
	EndAt      time.Time
	Services   []ServiceItemInput
	Notes      string
}

// Create es el workflow de creación: valida, busca conflictos y persiste.
// Un resultado no vacío de FindConflicts es falla dura (ErrSchedulingConflict):
// nunca se persiste una cita que pise un slot ocupado.
func (s *Service) Create(ctx context.Context, in CreateInput) (Scheduling, error) {
	customerID := strings.TrimSpace(in.CustomerID)
	petID := strings.TrimSpace(in.PetID)
	if customerID == "" || petID == "" {
		return Scheduling{}, ErrInvalidInput
	}

	slot, err := NewTimeSlot(in.StartAt, in.EndAt)
	if err != nil {
		return Scheduling{}, err
	}

	items, err := buildServices(in.Services)
	if err != nil {
		return Scheduling{}, err
	}

	now := s.now()
	sch, err := NewScheduling(uuid.NewString(), customerID, petID, slot, items, strings.TrimSpace(in.Notes), now)
	if err != nil {
		return Scheduling{}, err
	}

	conflicts, err := s.repo.FindConflicts(ctx, slot, "")
	if err != nil {
		return Scheduling{}, err
	}
	if len(conflicts) > 0 {
		return Scheduling{}, ErrSchedulingConflict
	}

	// El store repite el chequeo de forma atómica al insertar.
	if err := s.repo.Create(ctx, sch); err != nil {
		return Scheduling{}, err
	}

	s.publish(ctx, EventCreated, sch)
	return sch, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Scheduling, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Scheduling{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Confirm(ctx context.Context, id string) (Scheduling, error) {
	return s.applyTransition(ctx, id, EventConfirmed, (*Scheduling).Confirm)
}

func (s *Service) MarkAsInProgress(ctx context.Context, id string) (Scheduling, error) {
	return s.applyTransition(ctx, id, "", (*Scheduling).MarkAsInProgress)
}

func (s *Service) Complete(ctx context.Context, id string) (Scheduling, error) {
	return s.applyTransition(ctx, id, EventCompleted, (*Scheduling).Complete)
}

func (s *Service) Cancel(ctx context.Context, id string) (Scheduling, error) {
	return s.applyTransition(ctx, id, EventCancelled, (*Scheduling).Cancel)
}

func (s *Service) MarkAsNoShow(ctx context.Context, id string) (Scheduling, error) {
	return s.applyTransition(ctx, id, EventNoShow, (*Scheduling).MarkAsNoShow)
}

// Reschedule reactiva una cita NO_SHOW en un horario nuevo,
// con el mismo chequeo de conflictos que una creación.
func (s *Service) Reschedule(ctx context.Context, id string, startAt, endAt time.Time) (Scheduling, error) {
	sch, err := s.GetByID(ctx, id)
	if err != nil {
		return Scheduling{}, err
	}

	slot, err := NewTimeSlot(startAt, endAt)
	if err != nil {
		return Scheduling{}, err
	}

	conflicts, err := s.repo.FindConflicts(ctx, slot, sch.ID)
	if err != nil {
		return Scheduling{}, err
	}
	if len(conflicts) > 0 {
		return Scheduling{}, ErrSchedulingConflict
	}

	if err := sch.Reschedule(slot, s.now()); err != nil {
		return Scheduling{}, err
	}
	if err := s.repo.Save(ctx, sch); err != nil {
		return Scheduling{}, err
	}

	s.publish(ctx, EventRescheduled, sch)
	return sch, nil
}

// UpdateTimeSlot mueve una cita activa de horario.
func (s *Service) UpdateTimeSlot(ctx context.Context, id string, startAt, endAt time.Time) (Scheduling, error) {
	sch, err := s.GetByID(ctx, id)
	if err != nil {
		return Scheduling{}, err
	}

	slot, err := NewTimeSlot(startAt, endAt)
	if err != nil {
		return Scheduling{}, err
	}

	conflicts, err := s.repo.FindConflicts(ctx, slot, sch.ID)
	if err != nil {
		return Scheduling{}, err
	}
	if len(conflicts) > 0 {
		return Scheduling{}, ErrSchedulingConflict
	}

	if err := sch.UpdateTimeSlot(slot, s.now()); err != nil {
		return Scheduling{}, err
	}
	if err := s.repo.UpdateTimeSlot(ctx, sch.ID, slot, sch.UpdatedAt); err != nil {
		return Scheduling{}, err
	}

	s.publish(ctx, EventRescheduled, sch)
	return sch, nil
}

func (s *Service) UpdateServices(ctx context.Context, id string, items []ServiceItemInput) (Scheduling, error) {
	sch, err := s.GetByID(ctx, id)
	if err != nil {
		return Scheduling{}, err
	}

	built, err := buildServices(items)
	if err != nil {
		return Scheduling{}, err
	}

	if err := sch.UpdateServices(built, s.now()); err != nil {
		return Scheduling{}, err
	}
	if err := s.repo.Save(ctx, sch); err != nil {
		return Scheduling{}, err
	}
	return sch, nil
}

func (s *Service) ListByPeriod(ctx context.Context, from, to time.Time) ([]Scheduling, error) {
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return nil, ErrInvalidInterval
	}
	return s.repo.ListByPeriod(ctx, from, to)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]Scheduling, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]Scheduling, error) {
	return s.repo.ListByPet(ctx, petID)
}

func (s *Service) applyTransition(ctx context.Context, id, event string, fn func(*Scheduling, time.Time) error) (Scheduling, error) {
	sch, err := s.GetByID(ctx, id)
	if err != nil {
		return Scheduling{}, err
	}

	if err := fn(&sch, s.now()); err != nil {
		return Scheduling{}, err
	}
	if err := s.repo.UpdateStatus(ctx, sch.ID, sch.Status, sch.UpdatedAt); err != nil {
		return Scheduling{}, err
	}

	if event != "" {
		s.publish(ctx, event, sch)
	}
	return sch, nil
}

func (s *Service) publish(ctx context.Context, event string, sch Scheduling) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, event, sch)
}

func buildServices(in []ServiceItemInput) ([]ScheduledService, error) {
	if len(in) == 0 {
		return nil, ErrNoServices
	}

	out := make([]ScheduledService, 0, len(in))
	for _, item := range in {
		serviceID := strings.TrimSpace(item.ServiceID)
		name := strings.TrimSpace(item.Name)
		if serviceID == "" || name == "" {
			return nil, ErrInvalidInput
		}
		if item.UnitPrice.IsNegative() {
			return nil, ErrInvalidInput
		}
		if item.DurationMinutes <= 0 {
			return nil, ErrInvalidDuration
		}
		out = append(out, ScheduledService{
			ID:              uuid.NewString(),
			ServiceID:       serviceID,
			Name:            name,
			UnitPrice:       item.UnitPrice,
			DurationMinutes: item.DurationMinutes,
		})
	}
	return out, nil
}
