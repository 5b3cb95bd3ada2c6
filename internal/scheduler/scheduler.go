// Package scheduler fires scouting sessions when their cron schedules
// come due.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/landingscout/landingscout/internal/schedule"
	"github.com/landingscout/landingscout/internal/scout"
)

// SessionStarter launches a session for a scout. The engine satisfies it.
type SessionStarter interface {
	StartSession(ctx context.Context, scoutID string) (scout.Session, error)
}

// Config controls the polling loop.
type Config struct {
	// Interval between due-scout sweeps.
	Interval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	return c
}

// Scheduler polls active scouts and starts sessions for the due ones.
type Scheduler struct {
	scouts  scout.ScoutStore
	starter SessionStarter
	clock   scout.Clock
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Scheduler.
func New(scouts scout.ScoutStore, starter SessionStarter, clock scout.Clock, cfg Config, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		scouts:  scouts,
		starter: starter,
		clock:   clock,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

// Run sweeps until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", zap.Duration("interval", s.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep starts a session for every active scout whose next run time has
// elapsed. Run times are advanced immediately so a slow or failing
// session cannot cause the same scout to refire on the next tick.
func (s *Scheduler) sweep(ctx context.Context) {
	scouts, err := s.scouts.ListActiveScouts(ctx)
	if err != nil {
		s.logger.Error("list active scouts failed", zap.Error(err))
		return
	}

	now := s.clock.Now()
	for _, sc := range scouts {
		if sc.NextRunAt == nil {
			s.bootstrap(ctx, sc, now)
			continue
		}
		if sc.NextRunAt.After(now) {
			continue
		}

		next, err := schedule.Next(sc.Schedule, now)
		if err != nil {
			s.logger.Error("invalid schedule on active scout",
				zap.String("scout_id", sc.ID),
				zap.String("schedule", sc.Schedule),
				zap.Error(err),
			)
			continue
		}
		if err := s.scouts.UpdateRunTimes(ctx, sc.ID, now, next); err != nil {
			s.logger.Error("advance run times failed", zap.String("scout_id", sc.ID), zap.Error(err))
			continue
		}

		session, err := s.starter.StartSession(ctx, sc.ID)
		if err != nil {
			s.logger.Error("start scheduled session failed",
				zap.String("scout_id", sc.ID),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("scheduled session started",
			zap.String("scout_id", sc.ID),
			zap.String("session_id", session.ID),
			zap.Time("next_run_at", next),
		)
	}
}

// bootstrap seeds the next run time for scouts that have never been
// scheduled, without starting a session.
func (s *Scheduler) bootstrap(ctx context.Context, sc scout.Scout, now time.Time) {
	next, err := schedule.Next(sc.Schedule, now)
	if err != nil {
		s.logger.Error("invalid schedule on active scout",
			zap.String("scout_id", sc.ID),
			zap.String("schedule", sc.Schedule),
			zap.Error(err),
		)
		return
	}
	last := now
	if sc.LastRunAt != nil {
		last = *sc.LastRunAt
	}
	if err := s.scouts.UpdateRunTimes(ctx, sc.ID, last, next); err != nil {
		s.logger.Error("seed run times failed", zap.String("scout_id", sc.ID), zap.Error(err))
	}
}
