package notifications

import (
	"context"
	"fmt"
	"time"

	"pet-grooming-scheduler/internal/domain/scheduling"
	"pet-grooming-scheduler/internal/platform/logger"
)

// RenderFunc produce el contenido del mensaje para un evento de cita.
// El renderizado real (templates por canal, idioma, etc.) es de un
// colaborador externo; el core solo transporta el string resultante.
type RenderFunc func(event string, s scheduling.Scheduling) string

// SchedulingEvents puentea los eventos del ciclo de vida de la cita
// hacia el Dispatcher. Implementa scheduling.EventSink.
type SchedulingEvents struct {
	dispatcher *Dispatcher
	render     RenderFunc
	log        logger.Logger
}

func NewSchedulingEvents(dispatcher *Dispatcher, render RenderFunc, log logger.Logger) *SchedulingEvents {
	if render == nil {
		render = defaultRender
	}
	return &SchedulingEvents{
		dispatcher: dispatcher,
		render:     render,
		log:        log,
	}
}

// Publish despacha el evento. El destinatario es el cliente de la cita:
// cada adapter de canal resuelve el contacto concreto desde ese id.
func (e *SchedulingEvents) Publish(ctx context.Context, event string, s scheduling.Scheduling) {
	_, err := e.dispatcher.Dispatch(ctx, Event{
		Key:          event,
		SchedulingID: s.ID,
		Recipient:    s.CustomerID,
		Content:      e.render(event, s),
	})
	if err != nil {
		// Fallar la notificación nunca falla la operación de cita.
		e.log.Error("scheduling event dispatch", map[string]any{
			"event":      event,
			"scheduling": s.ID,
			"err":        err.Error(),
		})
	}
}

func defaultRender(event string, s scheduling.Scheduling) string {
	when := s.Slot.Start().Format(time.RFC1123)
	switch event {
	case scheduling.EventCreated:
		return fmt.Sprintf("Tu cita de peluquería quedó agendada para %s. Total: $%s.", when, s.TotalPrice.StringFixed(2))
	case scheduling.EventConfirmed:
		return fmt.Sprintf("Tu cita del %s está confirmada. ¡Te esperamos!", when)
	case scheduling.EventCancelled:
		return fmt.Sprintf("Tu cita del %s fue cancelada.", when)
	case scheduling.EventRescheduled:
		return fmt.Sprintf("Tu cita fue reprogramada para %s.", when)
	case scheduling.EventCompleted:
		return "¡Gracias por tu visita! Tu mascota ya está lista."
	case scheduling.EventNoShow:
		return fmt.Sprintf("Te esperamos el %s pero no pudiste venir. Escribinos para reagendar.", when)
	default:
		return fmt.Sprintf("Novedades de tu cita del %s.", when)
	}
}
