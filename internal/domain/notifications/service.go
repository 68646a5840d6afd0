package notifications

import (
	"context"
	"strings"
	"time"
)

// Service expone las operaciones de consulta y las correcciones
// manuales (reintento, acuse de entrega del proveedor).
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (Notification, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Notification{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByScheduling(ctx context.Context, schedulingID string) ([]Notification, error) {
	schedulingID = strings.TrimSpace(schedulingID)
	if schedulingID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.FindByScheduling(ctx, schedulingID)
}

// Retry re-encola manualmente una notificación FAILED, sin mirar el
// presupuesto de reintentos de la regla (decisión humana explícita).
func (s *Service) Retry(ctx context.Context, id string) (Notification, error) {
	n, err := s.GetByID(ctx, id)
	if err != nil {
		return Notification{}, err
	}

	if err := n.Retry(s.now()); err != nil {
		return Notification{}, err
	}
	if err := s.repo.Save(ctx, n); err != nil {
		return Notification{}, err
	}
	return n, nil
}

// MarkAsDelivered registra el acuse de entrega que reporta el canal
// (webhook del proveedor). Solo legal desde SENT.
func (s *Service) MarkAsDelivered(ctx context.Context, id string) (Notification, error) {
	n, err := s.GetByID(ctx, id)
	if err != nil {
		return Notification{}, err
	}

	if err := n.MarkAsDelivered(s.now()); err != nil {
		return Notification{}, err
	}
	if err := s.repo.Save(ctx, n); err != nil {
		return Notification{}, err
	}
	return n, nil
}
