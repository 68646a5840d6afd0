package notifications

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pet-grooming-scheduler/internal/platform/logger"
	channelports "pet-grooming-scheduler/internal/ports/channels"
)

const DefaultSendTimeout = 10 * time.Second

// Event es un pedido de notificación disparado por un cambio de estado
// de cita (u otro origen con clave en la tabla de reglas).
type Event struct {
	Key          string
	SchedulingID string
	Recipient    string
	Content      string
}

// Dispatcher resuelve la regla del evento y decide el despacho:
// suprimir (rate-limit), enviar ya (fan-out por canal) o encolar PENDING.
// Las fallas de transporte nunca salen del dispatcher: terminan como
// notificación FAILED, con reintento si la regla lo permite.
type Dispatcher struct {
	repo      Repository
	rules     *RuleTable
	providers map[Channel]channelports.Provider
	log       logger.Logger

	sendTimeout time.Duration
	now         func() time.Time
}

func NewDispatcher(repo Repository, rules *RuleTable, providers map[Channel]channelports.Provider, log logger.Logger) *Dispatcher {
	if rules == nil {
		rules = DefaultRuleTable()
	}
	owned := make(map[Channel]channelports.Provider, len(providers))
	for ch, p := range providers {
		owned[ch] = p
	}
	return &Dispatcher{
		repo:        repo,
		rules:       rules,
		providers:   owned,
		log:         log,
		sendTimeout: DefaultSendTimeout,
		now:         time.Now,
	}
}

// Dispatch ejecuta el algoritmo de despacho para un evento.
// Devuelve las notificaciones creadas (vacío si el rate-limit suprimió).
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) ([]Notification, error) {
	key := strings.TrimSpace(ev.Key)
	recipient := strings.TrimSpace(ev.Recipient)
	if key == "" || recipient == "" {
		return nil, ErrInvalidInput
	}

	rule := d.rules.Rule(key)
	now := d.now()

	// Rate-limit por (evento, destinatario): un intento no fallido
	// dentro de la ventana suprime el despacho completo.
	if rule.RateLimitHours > 0 {
		since := now.Add(-time.Duration(rule.RateLimitHours) * time.Hour)
		recent, err := d.repo.HasRecentAttempt(ctx, key, recipient, since)
		if err != nil {
			return nil, err
		}
		if recent {
			d.log.Debug("notification suppressed by rate limit", map[string]any{
				"event":     key,
				"recipient": recipient,
				"window_h":  rule.RateLimitHours,
			})
			return nil, nil
		}
	}

	created := make([]Notification, 0, len(rule.Channels))
	for _, ch := range rule.Channels {
		n, err := NewNotification(uuid.NewString(), ev.SchedulingID, key, recipient, ch, ev.Content, now)
		if err != nil {
			return nil, err
		}
		if err := d.repo.Create(ctx, n); err != nil {
			return nil, err
		}
		created = append(created, n)
	}

	if !rule.SendImmediately {
		// Quedan PENDING para el barrido asíncrono.
		return created, nil
	}

	// Fan-out: cada canal es una tarea independiente acotada por timeout.
	// Un canal colgado o fallido no bloquea a los demás.
	results := make([]Notification, len(created))
	var wg sync.WaitGroup
	for i := range created {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.attempt(ctx, created[i], rule)
		}(i)
	}
	wg.Wait()

	return results, nil
}

// SweepPending reprocesa un lote acotado de notificaciones PENDING.
// Es idempotente: lo ya SENT/DELIVERED se saltea por guardas de estado.
func (d *Dispatcher) SweepPending(ctx context.Context, limit int) (sent, failed int, err error) {
	if limit <= 0 {
		limit = 50
	}

	pending, err := d.repo.FindPending(ctx, limit)
	if err != nil {
		return 0, 0, err
	}

	for _, n := range pending {
		if ctx.Err() != nil {
			return sent, failed, ctx.Err()
		}
		rule := d.rules.Rule(n.Event)
		res := d.attempt(ctx, n, rule)
		switch res.Status {
		case StatusSent, StatusDelivered:
			sent++
		case StatusFailed, StatusPending:
			if res.FailedAt != nil || res.RetryCount > n.RetryCount {
				failed++
			}
		}
	}
	return sent, failed, nil
}

// attempt hace un intento de envío y persiste el resultado.
func (d *Dispatcher) attempt(ctx context.Context, n Notification, rule Rule) Notification {
	// Guarda de idempotencia: solo PENDING se envía.
	if n.Status != StatusPending {
		return n
	}

	provider, ok := d.providers[n.Channel]
	if !ok {
		d.fail(ctx, &n, rule, "no provider configured for channel "+string(n.Channel))
		return n
	}

	sctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	outcome, err := provider.Send(sctx, n.Recipient, n.Content)
	cancel()

	if err != nil {
		d.fail(ctx, &n, rule, err.Error())
		return n
	}

	now := d.now()
	if err := n.MarkAsSent(now); err != nil {
		d.log.Error("notification mark sent", map[string]any{"id": n.ID, "err": err.Error()})
		return n
	}
	if outcome.Delivered {
		_ = n.MarkAsDelivered(now)
	}
	d.save(ctx, n)

	d.log.Info("notification sent", map[string]any{
		"id":        n.ID,
		"event":     n.Event,
		"channel":   string(n.Channel),
		"delivered": outcome.Delivered,
	})
	return n
}

// fail marca FAILED y, si la regla tiene presupuesto, reprograma
// (vuelta a PENDING) para la próxima pasada del barrido.
func (d *Dispatcher) fail(ctx context.Context, n *Notification, rule Rule, reason string) {
	now := d.now()
	if err := n.MarkAsFailed(reason, now); err != nil {
		d.log.Error("notification mark failed", map[string]any{"id": n.ID, "err": err.Error()})
		return
	}

	retried := false
	if rule.ResendOnFailure && n.RetryCount < rule.MaxRetries {
		if err := n.Retry(now); err == nil {
			retried = true
		}
	}
	d.save(ctx, *n)

	d.log.Warn("notification delivery failed", map[string]any{
		"id":      n.ID,
		"event":   n.Event,
		"channel": string(n.Channel),
		"reason":  reason,
		"retry":   retried,
	})
}

func (d *Dispatcher) save(ctx context.Context, n Notification) {
	if err := d.repo.Save(ctx, n); err != nil {
		d.log.Error("notification save", map[string]any{"id": n.ID, "err": err.Error()})
	}
}
