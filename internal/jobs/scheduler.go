// Package jobs runs background tasks on a cron schedule.
// scheduler.go sweeps abandoned conversation sessions: a user who walked
// away mid-flow should not keep scratch state pinned forever.
package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"mockbank.dev/telegram-bot/internal/config"
	"mockbank.dev/telegram-bot/internal/features/dialog"
)

// Scheduler owns the cron instance and the jobs registered on it.
type Scheduler struct {
	cron     *cron.Cron
	sessions *dialog.Sessions
	cfg      *config.Config
}

// NewScheduler creates the scheduler in the configured timezone.
func NewScheduler(sessions *dialog.Sessions, cfg *config.Config) *Scheduler {
	loc, err := time.LoadLocation(cfg.AppTimezone)
	if err != nil {
		log.WithError(err).Warnf("Failed to load timezone %q, using UTC", cfg.AppTimezone)
		loc = time.UTC
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		sessions: sessions,
		cfg:      cfg,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc(s.cfg.SessionSweepSpec, func() {
		if dropped := s.sessions.Sweep(s.cfg.SessionTTL); dropped > 0 {
			log.WithField("sessions", dropped).Info("[CRON] Swept stale sessions")
		}
	})
	if err != nil {
		log.WithError(err).Error("[CRON] Bad session sweep spec, job not scheduled")
	}

	s.cron.Start()
	log.WithField("spec", s.cfg.SessionSweepSpec).Info("Scheduler started")
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scheduler stopped")
}
