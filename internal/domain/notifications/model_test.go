package notifications

import (
	"errors"
	"testing"
	"time"
)

func newTestNotification(t *testing.T) Notification {
	t.Helper()

	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	n, err := NewNotification("not-1", "sch-1", "scheduling.confirmed", "cust-1", ChannelEmail, "Tu cita quedó confirmada", now)
	if err != nil {
		t.Fatalf("NewNotification returned error: %v", err)
	}
	return n
}

func TestNewNotification_StartsPending(t *testing.T) {
	n := newTestNotification(t)

	if n.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", n.Status)
	}
	if n.SentAt != nil || n.DeliveredAt != nil || n.FailedAt != nil {
		t.Fatalf("fresh notification must have no lifecycle timestamps")
	}
	if n.RetryCount != 0 {
		t.Fatalf("expected RetryCount 0, got %d", n.RetryCount)
	}
}

func TestNewNotification_ValidatesInput(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		fn   func() (Notification, error)
	}{
		{"blank recipient", func() (Notification, error) {
			return NewNotification("not-1", "sch-1", "scheduling.created", "  ", ChannelEmail, "hola", now)
		}},
		{"blank content", func() (Notification, error) {
			return NewNotification("not-1", "sch-1", "scheduling.created", "cust-1", ChannelEmail, "", now)
		}},
		{"unknown channel", func() (Notification, error) {
			return NewNotification("not-1", "sch-1", "scheduling.created", "cust-1", Channel("PIGEON"), "hola", now)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.fn(); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestNotification_SentThenDelivered(t *testing.T) {
	n := newTestNotification(t)
	now := time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC)

	if err := n.MarkAsSent(now); err != nil {
		t.Fatalf("MarkAsSent returned error: %v", err)
	}
	if n.Status != StatusSent || n.SentAt == nil || !n.SentAt.Equal(now) {
		t.Fatalf("expected SENT with SentAt set")
	}

	later := now.Add(2 * time.Minute)
	if err := n.MarkAsDelivered(later); err != nil {
		t.Fatalf("MarkAsDelivered returned error: %v", err)
	}
	if n.Status != StatusDelivered || n.DeliveredAt == nil || !n.DeliveredAt.Equal(later) {
		t.Fatalf("expected DELIVERED with DeliveredAt set")
	}
}

func TestNotification_DeliveredRequiresSent(t *testing.T) {
	n := newTestNotification(t)
	if err := n.MarkAsDelivered(time.Now()); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("delivered from PENDING: expected ErrIllegalTransition, got %v", err)
	}
}

func TestNotification_FailedFromPendingOrSent(t *testing.T) {
	now := time.Now()

	n := newTestNotification(t)
	if err := n.MarkAsFailed("provider timeout", now); err != nil {
		t.Fatalf("failed from PENDING: %v", err)
	}
	if n.FailureReason != "provider timeout" || n.FailedAt == nil {
		t.Fatalf("failure fields not recorded")
	}

	n2 := newTestNotification(t)
	_ = n2.MarkAsSent(now)
	if err := n2.MarkAsFailed("bounced", now); err != nil {
		t.Fatalf("failed from SENT: %v", err)
	}
}

func TestNotification_TerminalDeliveredRejectsMutations(t *testing.T) {
	n := newTestNotification(t)
	now := time.Now()
	_ = n.MarkAsSent(now)
	_ = n.MarkAsDelivered(now)

	if err := n.MarkAsFailed("late bounce", now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("failed from DELIVERED: expected ErrIllegalTransition, got %v", err)
	}
	if err := n.Retry(now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("retry from DELIVERED: expected ErrIllegalTransition, got %v", err)
	}
}

func TestNotification_RetryClearsFailureAndCounts(t *testing.T) {
	n := newTestNotification(t)
	now := time.Date(2024, 1, 1, 9, 10, 0, 0, time.UTC)

	if err := n.Retry(now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("retry from PENDING: expected ErrIllegalTransition, got %v", err)
	}

	_ = n.MarkAsFailed("provider timeout", now)
	if err := n.Retry(now.Add(time.Minute)); err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}

	if n.Status != StatusPending {
		t.Fatalf("expected PENDING after retry, got %s", n.Status)
	}
	if n.FailedAt != nil || n.FailureReason != "" {
		t.Fatalf("retry must clear failure fields")
	}
	if n.RetryCount != 1 {
		t.Fatalf("expected RetryCount 1, got %d", n.RetryCount)
	}

	// Segunda vuelta completa del ciclo falla-reintento.
	_ = n.MarkAsFailed("still down", now)
	_ = n.Retry(now)
	if n.RetryCount != 2 {
		t.Fatalf("expected RetryCount 2, got %d", n.RetryCount)
	}
}

func TestNotification_UpdateContentOnlyWhilePending(t *testing.T) {
	n := newTestNotification(t)
	now := time.Now()

	if err := n.UpdateContent("Recordatorio: tu cita es mañana", now); err != nil {
		t.Fatalf("UpdateContent while PENDING: %v", err)
	}
	if n.Content != "Recordatorio: tu cita es mañana" {
		t.Fatalf("content not updated")
	}

	if err := n.UpdateContent("", now); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank content: expected ErrInvalidInput, got %v", err)
	}

	_ = n.MarkAsSent(now)
	if err := n.UpdateContent("tarde", now); !errors.Is(err, ErrNotPending) {
		t.Fatalf("UpdateContent after SENT: expected ErrNotPending, got %v", err)
	}
}
