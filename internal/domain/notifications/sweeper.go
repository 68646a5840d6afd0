package notifications

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"pet-grooming-scheduler/internal/platform/logger"
)

const (
	DefaultSweepSchedule  = "@every 1m"
	DefaultSweepBatchSize = 50
)

// Sweeper re-intenta en background las notificaciones que quedaron
// PENDING (encoladas o devueltas por Retry). Corre sobre un cron
// @every; si un tick encuentra al anterior todavía corriendo, se
// saltea ese tick y deja terminar el lote en curso.
type Sweeper struct {
	dispatcher *Dispatcher
	log        logger.Logger

	schedule string
	batch    int

	c       *cron.Cron
	running atomic.Bool
}

func NewSweeper(dispatcher *Dispatcher, log logger.Logger, schedule string, batch int) *Sweeper {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if batch <= 0 {
		batch = DefaultSweepBatchSize
	}
	return &Sweeper{
		dispatcher: dispatcher,
		log:        log,
		schedule:   schedule,
		batch:      batch,
	}
}

func (s *Sweeper) Start() error {
	if s.c != nil {
		return errors.New("sweeper already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.tick); err != nil {
		return err
	}
	s.c = c
	c.Start()

	s.log.Info("notification sweeper started", map[string]any{
		"schedule": s.schedule,
		"batch":    s.batch,
	})
	return nil
}

// Stop frena el cron y espera a que termine el lote en curso.
func (s *Sweeper) Stop() {
	if s.c == nil {
		return
	}
	ctx := s.c.Stop()
	<-ctx.Done()
	s.c = nil
}

func (s *Sweeper) tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debug("sweep tick skipped, previous batch still running", nil)
		return
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sent, failed, err := s.dispatcher.SweepPending(ctx, s.batch)
	if err != nil {
		s.log.Error("sweep batch", map[string]any{"err": err.Error()})
		return
	}
	if sent > 0 || failed > 0 {
		s.log.Info("sweep batch done", map[string]any{"sent": sent, "failed": failed})
	}
}
