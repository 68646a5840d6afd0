package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"pet-grooming-scheduler/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/schedulings", func(sr chi.Router) {
		sr.Post("/", createSchedulingHandler(svc))
		sr.Get("/", listByPeriodHandler(svc))
		sr.Get("/{schedulingID}", getSchedulingHandler(svc))

		// Transiciones de estado
		sr.Post("/{schedulingID}/confirm", transitionHandler(svc.Confirm))
		sr.Post("/{schedulingID}/start", transitionHandler(svc.MarkAsInProgress))
		sr.Post("/{schedulingID}/complete", transitionHandler(svc.Complete))
		sr.Post("/{schedulingID}/cancel", transitionHandler(svc.Cancel))
		sr.Post("/{schedulingID}/no-show", transitionHandler(svc.MarkAsNoShow))
		sr.Post("/{schedulingID}/reschedule", rescheduleHandler(svc))

		sr.Patch("/{schedulingID}/time-slot", updateTimeSlotHandler(svc))
		sr.Put("/{schedulingID}/services", updateServicesHandler(svc))
	})

	r.Get("/customers/{customerID}/schedulings", listByCustomerHandler(svc))
	r.Get("/pets/{petID}/schedulings", listByPetHandler(svc))
}

type serviceItemRequest struct {
	ServiceID       string `json:"service_id"`
	Name            string `json:"name"`
	UnitPrice       string `json:"unit_price"` // decimal como string ("350.00")
	DurationMinutes int    `json:"duration_minutes"`
}

type createSchedulingRequest struct {
	CustomerID string               `json:"customer_id"`
	PetID      string               `json:"pet_id"`
	StartAt    time.Time            `json:"start_at"`
	EndAt      time.Time            `json:"end_at"`
	Services   []serviceItemRequest `json:"services"`
	Notes      string               `json:"notes"`
}

type slotRequest struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

type serviceItemResponse struct {
	ID              string `json:"id"`
	ServiceID       string `json:"service_id"`
	Name            string `json:"name"`
	UnitPrice       string `json:"unit_price"`
	DurationMinutes int    `json:"duration_minutes"`
}

type schedulingResponse struct {
	ID         string                `json:"id"`
	CustomerID string                `json:"customer_id"`
	PetID      string                `json:"pet_id"`
	StartAt    time.Time             `json:"start_at"`
	EndAt      time.Time             `json:"end_at"`
	Status     string                `json:"status"`
	Services   []serviceItemResponse `json:"services"`
	TotalPrice string                `json:"total_price"`
	Notes      string                `json:"notes,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

func createSchedulingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireUser(w, r) {
			return
		}

		var req createSchedulingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		items, err := toServiceInputs(req.Services)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sch, err := svc.Create(r.Context(), CreateInput{
			CustomerID: req.CustomerID,
			PetID:      req.PetID,
			StartAt:    req.StartAt,
			EndAt:      req.EndAt,
			Services:   items,
			Notes:      req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSchedulingResponse(sch))
	}
}

func getSchedulingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireUser(w, r) {
			return
		}

		sch, err := svc.GetByID(r.Context(), chi.URLParam(r, "schedulingID"))
		if err != nil {
			http.Error(w, "scheduling not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toSchedulingResponse(sch))
	}
}

// transitionHandler cubre confirm/start/complete/cancel/no-show:
// misma forma, distinta operación del service.
func transitionHandler(op func(ctx context.Context, id string) (Scheduling, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireUser(w, r) {
			return
		}

		sch, err := op(r.Context(), chi.URLParam(r, "schedulingID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSchedulingResponse(sch))
	}
}

func rescheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireUser(w, r) {
			return
		}

		var req slotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sch, err := svc.Reschedule(r.Context(), chi.URLParam(r, "schedulingID"), req.StartAt, req.EndAt)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSchedulingResponse(sch))
	}
}

func updateTimeSlotHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireUser(w, r) {
			return
		}

		var req slotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sch, err := svc.UpdateTimeSlot(r.Context(), chi.URLParam(r, "schedulingID"), req.StartAt, req.EndAt)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSchedulingResponse(sch))
	}
}

func updateServicesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireUser(w, r) {
			return
		}

		var req struct {
			Services []serviceItemRequest `json:"services"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		items, err := toServiceInputs(req.Services)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sch, err := svc.UpdateServices(r.Context(), chi.URLParam(r, "schedulingID"), items)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSchedulingResponse(sch))
	}
}

func listByPeriodHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireUser(w, r) {
			return
		}

		from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
		if err != nil {
			http.Error(w, "from must be RFC3339", http.StatusBadRequest)
			return
		}
		to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
		if err != nil {
			http.Error(w, "to must be RFC3339", http.StatusBadRequest)
			return
		}

		items, err := svc.ListByPeriod(r.Context(), from, to)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSchedulingResponses(items))
	}
}

func listByCustomerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireUser(w, r) {
			return
		}

		items, err := svc.ListByCustomer(r.Context(), chi.URLParam(r, "customerID"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toSchedulingResponses(items))
	}
}

func listByPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireUser(w, r) {
			return
		}

		items, err := svc.ListByPet(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toSchedulingResponses(items))
	}
}

func toServiceInputs(in []serviceItemRequest) ([]ServiceItemInput, error) {
	out := make([]ServiceItemInput, 0, len(in))
	for _, item := range in {
		price, err := decimal.NewFromString(strings.TrimSpace(item.UnitPrice))
		if err != nil {
			return nil, errors.New("unit_price must be a decimal string")
		}
		out = append(out, ServiceItemInput{
			ServiceID:       item.ServiceID,
			Name:            item.Name,
			UnitPrice:       price,
			DurationMinutes: item.DurationMinutes,
		})
	}
	return out, nil
}

func toSchedulingResponse(s Scheduling) schedulingResponse {
	services := make([]serviceItemResponse, 0, len(s.Services))
	for _, sv := range s.Services {
		services = append(services, serviceItemResponse{
			ID:              sv.ID,
			ServiceID:       sv.ServiceID,
			Name:            sv.Name,
			UnitPrice:       sv.UnitPrice.StringFixed(2),
			DurationMinutes: sv.DurationMinutes,
		})
	}
	return schedulingResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		PetID:      s.PetID,
		StartAt:    s.Slot.Start(),
		EndAt:      s.Slot.End(),
		Status:     string(s.Status),
		Services:   services,
		TotalPrice: s.TotalPrice.StringFixed(2),
		Notes:      s.Notes,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func toSchedulingResponses(in []Scheduling) []schedulingResponse {
	out := make([]schedulingResponse, 0, len(in))
	for _, s := range in {
		out = append(out, toSchedulingResponse(s))
	}
	return out
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
	case errors.Is(err, ErrSchedulingConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrTerminalState):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrInvalidInterval), errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrNoServices), errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "scheduling not found", http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
