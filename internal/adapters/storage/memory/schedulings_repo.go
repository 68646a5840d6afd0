package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-grooming-scheduler/internal/domain/scheduling"
)

var (
	ErrNotFound = errors.New("not found")
)

type schedulingsRepo struct {
	mu   sync.RWMutex
	byID map[string]scheduling.Scheduling
}

func NewSchedulingsRepo() scheduling.Repository {
	return &schedulingsRepo{
		byID: make(map[string]scheduling.Scheduling),
	}
}

// Create re-chequea superposición bajo el lock de escritura: el
// pre-chequeo del service y este insert no son atómicos entre sí,
// acá se cierra la carrera de dos creaciones concurrentes.
func (r *schedulingsRepo) Create(ctx context.Context, s scheduling.Scheduling) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("scheduling id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("scheduling already exists")
	}

	for _, other := range r.byID {
		if !other.Status.BlocksSlot() {
			continue
		}
		if other.Slot.Overlaps(s.Slot) {
			return scheduling.ErrSchedulingConflict
		}
	}

	r.byID[s.ID] = s
	return nil
}

func (r *schedulingsRepo) Save(ctx context.Context, s scheduling.Scheduling) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[s.ID]; !exists {
		return ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *schedulingsRepo) GetByID(ctx context.Context, id string) (scheduling.Scheduling, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return scheduling.Scheduling{}, ErrNotFound
	}
	return s, nil
}

func (r *schedulingsRepo) FindConflicts(ctx context.Context, slot scheduling.TimeSlot, excludeID string) ([]scheduling.Scheduling, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]scheduling.Scheduling, 0)
	for _, s := range r.byID {
		if s.ID == excludeID {
			continue
		}
		if !s.Status.BlocksSlot() {
			continue
		}
		if s.Slot.Overlaps(slot) {
			out = append(out, s)
		}
	}

	sortByStart(out)
	return out, nil
}

func (r *schedulingsRepo) UpdateStatus(ctx context.Context, id string, status scheduling.Status, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = updatedAt
	r.byID[id] = s
	return nil
}

func (r *schedulingsRepo) UpdateTimeSlot(ctx context.Context, id string, slot scheduling.TimeSlot, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.Slot = slot
	s.UpdatedAt = updatedAt
	r.byID[id] = s
	return nil
}

func (r *schedulingsRepo) ListByPeriod(ctx context.Context, from, to time.Time) ([]scheduling.Scheduling, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	period, err := scheduling.NewTimeSlot(from, to)
	if err != nil {
		return nil, err
	}

	out := make([]scheduling.Scheduling, 0)
	for _, s := range r.byID {
		if s.Slot.Overlaps(period) {
			out = append(out, s)
		}
	}

	sortByStart(out)
	return out, nil
}

func (r *schedulingsRepo) ListByCustomer(ctx context.Context, customerID string) ([]scheduling.Scheduling, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]scheduling.Scheduling, 0)
	for _, s := range r.byID {
		if s.CustomerID == customerID {
			out = append(out, s)
		}
	}

	sortByStart(out)
	return out, nil
}

func (r *schedulingsRepo) ListByPet(ctx context.Context, petID string) ([]scheduling.Scheduling, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]scheduling.Scheduling, 0)
	for _, s := range r.byID {
		if s.PetID == petID {
			out = append(out, s)
		}
	}

	sortByStart(out)
	return out, nil
}

// Orden estable por inicio de slot (agenda cronológica).
func sortByStart(items []scheduling.Scheduling) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Slot.Start().Before(items[j].Slot.Start())
	})
}
