package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"fleet-rental-backend/internal/booking"
)

// Sweeper periodically cancels PENDING bookings whose hold has expired, so
// abandoned checkouts give their reservation slots back to the pool.
type Sweeper struct {
	engine *booking.Engine
	hold   time.Duration
	spec   string
	cron   *cron.Cron
}

// New creates a sweeper cancelling PENDING bookings older than hold,
// running on the given cron spec (e.g. "@every 5m").
func New(engine *booking.Engine, hold time.Duration, spec string) *Sweeper {
	return &Sweeper{
		engine: engine,
		hold:   hold,
		spec:   spec,
		cron:   cron.New(),
	}
}

// Start schedules the sweep and begins running it in the background.
func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.SweepOnce(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("Booking expiry sweeper started (spec %q, hold %s)", s.spec, s.hold)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// SweepOnce runs a single expiry pass. Exposed for tests.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	cancelled, err := s.engine.ExpirePending(ctx, s.hold)
	if err != nil {
		log.Printf("Sweep failed: %v", err)
		return
	}
	if cancelled > 0 {
		log.Printf("Sweep cancelled %d expired pending bookings", cancelled)
	}
}
