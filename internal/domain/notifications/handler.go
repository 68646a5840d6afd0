package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-grooming-scheduler/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/notifications", func(nr chi.Router) {
		nr.Get("/{notificationID}", getNotificationHandler(svc))
		nr.Post("/{notificationID}/retry", retryNotificationHandler(svc))
		// Acuse de entrega del proveedor (webhook).
		nr.Post("/{notificationID}/delivered", deliveredNotificationHandler(svc))
	})

	r.Get("/schedulings/{schedulingID}/notifications", listBySchedulingHandler(svc))
}

type notificationResponse struct {
	ID            string     `json:"id"`
	SchedulingID  string     `json:"scheduling_id"`
	Event         string     `json:"event"`
	Recipient     string     `json:"recipient"`
	Channel       string     `json:"channel"`
	Content       string     `json:"content"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	FailedAt      *time.Time `json:"failed_at,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func getNotificationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireUser(w, r) {
			return
		}

		n, err := svc.GetByID(r.Context(), chi.URLParam(r, "notificationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toNotificationResponse(n))
	}
}

func listBySchedulingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireUser(w, r) {
			return
		}

		items, err := svc.ListByScheduling(r.Context(), chi.URLParam(r, "schedulingID"))
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]notificationResponse, 0, len(items))
		for _, n := range items {
			out = append(out, toNotificationResponse(n))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func retryNotificationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireUser(w, r) {
			return
		}

		n, err := svc.Retry(r.Context(), chi.URLParam(r, "notificationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toNotificationResponse(n))
	}
}

func deliveredNotificationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.MarkAsDelivered(r.Context(), chi.URLParam(r, "notificationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toNotificationResponse(n))
	}
}

func toNotificationResponse(n Notification) notificationResponse {
	return notificationResponse{
		ID:            n.ID,
		SchedulingID:  n.SchedulingID,
		Event:         n.Event,
		Recipient:     n.Recipient,
		Channel:       string(n.Channel),
		Content:       n.Content,
		Status:        string(n.Status),
		RetryCount:    n.RetryCount,
		SentAt:        n.SentAt,
		DeliveredAt:   n.DeliveredAt,
		FailedAt:      n.FailedAt,
		FailureReason: n.FailureReason,
		CreatedAt:     n.CreatedAt,
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) bool {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrNotPending):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "notification not found", http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
