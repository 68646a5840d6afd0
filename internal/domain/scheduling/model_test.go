package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testServices() []ScheduledService {
	return []ScheduledService{
		{ID: "ss-1", ServiceID: "svc-bath", Name: "Baño", UnitPrice: decimal.NewFromInt(350), DurationMinutes: 45},
		{ID: "ss-2", ServiceID: "svc-cut", Name: "Corte", UnitPrice: decimal.RequireFromString("280.50"), DurationMinutes: 30},
	}
}

func newTestScheduling(t *testing.T) Scheduling {
	t.Helper()

	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	slot := mustSlot(t, at(10, 0), at(11, 0))

	s, err := NewScheduling("sch-1", "cust-1", "pet-1", slot, testServices(), "", now)
	if err != nil {
		t.Fatalf("NewScheduling returned error: %v", err)
	}
	return s
}

func TestNewScheduling_ComputesTotalAndCopiesServices(t *testing.T) {
	in := testServices()
	s := func() Scheduling {
		now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		slot := mustSlot(t, at(10, 0), at(11, 0))
		sch, err := NewScheduling("sch-1", "cust-1", "pet-1", slot, in, "nervioso con secador", now)
		if err != nil {
			t.Fatalf("NewScheduling returned error: %v", err)
		}
		return sch
	}()

	if s.Status != StatusScheduled {
		t.Fatalf("expected initial status SCHEDULED, got %s", s.Status)
	}
	want := decimal.RequireFromString("630.50")
	if !s.TotalPrice.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, s.TotalPrice)
	}

	// La lista entrante no queda aliased dentro del agregado.
	in[0].Name = "mutated"
	if s.Services[0].Name != "Baño" {
		t.Fatalf("aggregate must own a copy of its services")
	}
}

func TestNewScheduling_RejectsEmptyServices(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	slot := mustSlot(t, at(10, 0), at(11, 0))

	if _, err := NewScheduling("sch-1", "cust-1", "pet-1", slot, nil, "", now); !errors.Is(err, ErrNoServices) {
		t.Fatalf("expected ErrNoServices, got %v", err)
	}
}

func TestScheduling_HappyPathTransitions(t *testing.T) {
	s := newTestScheduling(t)
	now := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	steps := []struct {
		name string
		op   func() error
		want Status
	}{
		{"confirm", func() error { return s.Confirm(now) }, StatusConfirmed},
		{"start", func() error { return s.MarkAsInProgress(now) }, StatusInProgress},
		{"complete", func() error { return s.Complete(now) }, StatusCompleted},
	}

	for _, step := range steps {
		if err := step.op(); err != nil {
			t.Fatalf("%s returned error: %v", step.name, err)
		}
		if s.Status != step.want {
			t.Fatalf("%s: expected status %s, got %s", step.name, step.want, s.Status)
		}
	}
}

func TestScheduling_ConfirmOnlyFromScheduled(t *testing.T) {
	s := newTestScheduling(t)
	now := time.Now()

	if err := s.Confirm(now); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if err := s.Confirm(now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("confirm from CONFIRMED: expected ErrIllegalTransition, got %v", err)
	}
}

func TestScheduling_CompleteOnlyFromInProgress(t *testing.T) {
	s := newTestScheduling(t)
	if err := s.Complete(time.Now()); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("complete from SCHEDULED: expected ErrIllegalTransition, got %v", err)
	}
}

func TestScheduling_MarkAsInProgressSkipsConfirm(t *testing.T) {
	// Walk-in: el cliente llega sin confirmar y se atiende igual.
	s := newTestScheduling(t)
	if err := s.MarkAsInProgress(time.Now()); err != nil {
		t.Fatalf("start from SCHEDULED: %v", err)
	}
}

func TestScheduling_TerminalStatesRejectEveryMutation(t *testing.T) {
	now := time.Now()

	build := func(terminal Status) Scheduling {
		s := newTestScheduling(t)
		switch terminal {
		case StatusCompleted:
			_ = s.MarkAsInProgress(now)
			_ = s.Complete(now)
		case StatusCancelled:
			_ = s.Cancel(now)
		}
		return s
	}

	for _, terminal := range []Status{StatusCompleted, StatusCancelled} {
		s := build(terminal)
		before := s

		otherSlot := mustSlot(t, at(15, 0), at(16, 0))
		ops := []struct {
			name string
			op   func() error
		}{
			{"confirm", func() error { return s.Confirm(now) }},
			{"start", func() error { return s.MarkAsInProgress(now) }},
			{"complete", func() error { return s.Complete(now) }},
			{"cancel", func() error { return s.Cancel(now) }},
			{"no-show", func() error { return s.MarkAsNoShow(now) }},
			{"reschedule", func() error { return s.Reschedule(otherSlot, now) }},
			{"update slot", func() error { return s.UpdateTimeSlot(otherSlot, now) }},
			{"update services", func() error { return s.UpdateServices(testServices(), now) }},
		}

		for _, op := range ops {
			if err := op.op(); !errors.Is(err, ErrTerminalState) {
				t.Fatalf("%s from %s: expected ErrTerminalState, got %v", op.name, terminal, err)
			}
		}

		// Estado observable intacto tras cada rechazo.
		if s.Status != before.Status || !s.Slot.Equal(before.Slot) || !s.TotalPrice.Equal(before.TotalPrice) {
			t.Fatalf("rejected mutations must not change the aggregate")
		}
	}
}

func TestScheduling_NoShowOnlyAllowsReschedule(t *testing.T) {
	now := time.Now()
	s := newTestScheduling(t)
	if err := s.MarkAsNoShow(now); err != nil {
		t.Fatalf("no-show from SCHEDULED: %v", err)
	}

	otherSlot := mustSlot(t, at(15, 0), at(16, 0))

	if err := s.Confirm(now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("confirm from NO_SHOW: expected ErrIllegalTransition, got %v", err)
	}
	if err := s.MarkAsInProgress(now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("start from NO_SHOW: expected ErrIllegalTransition, got %v", err)
	}
	if err := s.Cancel(now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("cancel from NO_SHOW: expected ErrIllegalTransition, got %v", err)
	}
	if err := s.UpdateTimeSlot(otherSlot, now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("update slot from NO_SHOW: expected ErrIllegalTransition, got %v", err)
	}

	if err := s.Reschedule(otherSlot, now); err != nil {
		t.Fatalf("reschedule from NO_SHOW: %v", err)
	}
	if s.Status != StatusScheduled {
		t.Fatalf("reschedule must land on SCHEDULED, got %s", s.Status)
	}
	if !s.Slot.Equal(otherSlot) {
		t.Fatalf("reschedule must adopt the new slot")
	}
}

func TestScheduling_NoShowOnlyFromScheduledOrConfirmed(t *testing.T) {
	now := time.Now()

	s := newTestScheduling(t)
	_ = s.MarkAsInProgress(now)
	if err := s.MarkAsNoShow(now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("no-show from IN_PROGRESS: expected ErrIllegalTransition, got %v", err)
	}

	s2 := newTestScheduling(t)
	_ = s2.Confirm(now)
	if err := s2.MarkAsNoShow(now); err != nil {
		t.Fatalf("no-show from CONFIRMED: %v", err)
	}
}

func TestScheduling_UpdateServicesRecomputesTotal(t *testing.T) {
	now := time.Now()
	s := newTestScheduling(t)

	replacement := []ScheduledService{
		{ID: "ss-9", ServiceID: "svc-nails", Name: "Corte de uñas", UnitPrice: decimal.RequireFromString("120.00"), DurationMinutes: 15},
	}
	if err := s.UpdateServices(replacement, now); err != nil {
		t.Fatalf("UpdateServices returned error: %v", err)
	}
	if !s.TotalPrice.Equal(decimal.RequireFromString("120.00")) {
		t.Fatalf("total must equal sum of unit prices, got %s", s.TotalPrice)
	}

	if err := s.UpdateServices(nil, now); !errors.Is(err, ErrNoServices) {
		t.Fatalf("empty service list: expected ErrNoServices, got %v", err)
	}
	// El rechazo no toca la lista vigente.
	if len(s.Services) != 1 || !s.TotalPrice.Equal(decimal.RequireFromString("120.00")) {
		t.Fatalf("rejected update must keep previous services")
	}
}

func TestScheduling_HasConflictWith(t *testing.T) {
	a := newTestScheduling(t)
	b := newTestScheduling(t)
	b.Slot = mustSlot(t, at(10, 30), at(11, 30))

	if !a.HasConflictWith(b) || !b.HasConflictWith(a) {
		t.Fatalf("overlapping schedulings must conflict both ways")
	}

	b.Slot = mustSlot(t, at(11, 0), at(12, 0))
	if a.HasConflictWith(b) {
		t.Fatalf("back-to-back schedulings must not conflict")
	}
}
