package notifications

import (
	"context"
	"time"
)

// Repository es el contrato de persistencia de notificaciones.
// Los cambios de estado van por los métodos del entity + Save: un solo
// camino de mutación, sin updates parciales.
type Repository interface {
	Create(ctx context.Context, n Notification) error
	Save(ctx context.Context, n Notification) error
	GetByID(ctx context.Context, id string) (Notification, error)

	// FindPending devuelve hasta limit notificaciones PENDING, las más
	// antiguas primero (el barrido procesa en orden de llegada).
	FindPending(ctx context.Context, limit int) ([]Notification, error)

	FindByScheduling(ctx context.Context, schedulingID string) ([]Notification, error)

	// HasRecentAttempt responde si existe un intento no-FAILED del mismo
	// evento hacia el mismo destinatario creado desde `since`. Es la
	// consulta del rate-limit por destinatario.
	HasRecentAttempt(ctx context.Context, event, recipient string, since time.Time) (bool, error)
}
