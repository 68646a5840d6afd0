package notifications

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrIllegalTransition = errors.New("illegal notification transition")
	ErrNotPending        = errors.New("notification is not pending")
)

// Notification es un intento de envío por un canal concreto.
// El contenido llega ya renderizado (el templating es del colaborador externo).
type Notification struct {
	ID           string
	SchedulingID string

	// Event es la clave "category.type" que resolvió la regla de despacho.
	Event string
	// Recipient es el destino concreto del canal (email, teléfono...).
	// El rate-limit de la regla se aplica por (Event, Recipient).
	Recipient string

	Channel Channel
	Content string

	Status     Status
	RetryCount int

	SentAt        *time.Time
	DeliveredAt   *time.Time
	FailedAt      *time.Time
	FailureReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewNotification crea una notificación en PENDING.
func NewNotification(id, schedulingID, event, recipient string, channel Channel, content string, now time.Time) (Notification, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(event) == "" || strings.TrimSpace(recipient) == "" {
		return Notification{}, ErrInvalidInput
	}
	if !channel.Valid() {
		return Notification{}, ErrInvalidInput
	}
	if strings.TrimSpace(content) == "" {
		return Notification{}, ErrInvalidInput
	}

	return Notification{
		ID:           id,
		SchedulingID: schedulingID,
		Event:        event,
		Recipient:    recipient,
		Channel:      channel,
		Content:      content,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (n *Notification) MarkAsSent(now time.Time) error {
	if err := n.transition(StatusSent); err != nil {
		return err
	}
	t := now
	n.SentAt = &t
	n.UpdatedAt = now
	return nil
}

// MarkAsDelivered exige pasar por SENT: el transporte primero acepta,
// recién después puede confirmar entrega.
func (n *Notification) MarkAsDelivered(now time.Time) error {
	if err := n.transition(StatusDelivered); err != nil {
		return err
	}
	t := now
	n.DeliveredAt = &t
	n.UpdatedAt = now
	return nil
}

func (n *Notification) MarkAsFailed(reason string, now time.Time) error {
	if err := n.transition(StatusFailed); err != nil {
		return err
	}
	t := now
	n.FailedAt = &t
	n.FailureReason = strings.TrimSpace(reason)
	n.UpdatedAt = now
	return nil
}

// Retry devuelve una notificación FAILED a PENDING para el próximo
// barrido, limpiando los campos de falla.
func (n *Notification) Retry(now time.Time) error {
	if err := n.transition(StatusPending); err != nil {
		return err
	}
	n.FailedAt = nil
	n.FailureReason = ""
	n.RetryCount++
	n.UpdatedAt = now
	return nil
}

// UpdateContent solo es legal mientras la notificación sigue PENDING.
func (n *Notification) UpdateContent(content string, now time.Time) error {
	if n.Status != StatusPending {
		return ErrNotPending
	}
	if strings.TrimSpace(content) == "" {
		return ErrInvalidInput
	}
	n.Content = content
	n.UpdatedAt = now
	return nil
}

func (n *Notification) transition(to Status) error {
	if !CanTransition(n.Status, to) {
		return ErrIllegalTransition
	}
	n.Status = to
	return nil
}
