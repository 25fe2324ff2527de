package monitoring

import (
	"time"

	"github.com/mcarreter/catalogo-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// eventRetention is how long activity log rows are kept.
const eventRetention = 90 * 24 * time.Hour

// Sweeper periodically removes expired login tokens and stale activity rows.
type Sweeper struct {
	authSvc  services.AuthServiceProvider
	eventSvc services.EventServiceProvider
	schedule cron.Schedule
	done     chan bool
}

// NewSweeper creates a sweeper from a standard cron expression.
func NewSweeper(authSvc services.AuthServiceProvider, eventSvc services.EventServiceProvider, cronExpr string) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		authSvc:  authSvc,
		eventSvc: eventSvc,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the sweeper loop. It sweeps once on start, then follows the
// configured schedule.
func (s *Sweeper) Run() {
	log.Info().Msg("Starting background sweeper")
	s.sweep()

	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.done:
			timer.Stop()
			log.Info().Msg("Stopping background sweeper")
			return
		case <-timer.C:
			s.sweep()
		}
	}
}

// Stop halts the sweeper.
func (s *Sweeper) Stop() {
	s.done <- true
}

func (s *Sweeper) sweep() {
	tokens, err := s.authSvc.PurgeExpiredTokens()
	if err != nil {
		log.Error().Err(err).Msg("Sweeper: failed to purge expired login tokens")
	} else if tokens > 0 {
		log.Info().Int64("removed", tokens).Msg("Sweeper: purged expired login tokens")
	}

	events, err := s.eventSvc.PurgeOlderThan(time.Now().Add(-eventRetention))
	if err != nil {
		log.Error().Err(err).Msg("Sweeper: failed to purge old events")
	} else if events > 0 {
		log.Info().Int64("removed", events).Msg("Sweeper: purged old events")
	}
}
