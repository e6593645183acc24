// Package scheduler runs the periodic availability expiry sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aimd54/staff-directory/internal/config"
	prommetrics "github.com/aimd54/staff-directory/internal/metrics"
	"github.com/aimd54/staff-directory/pkg/logger"
)

const jobExpirySweep = "expiry_sweep"

const sweepTimeout = 2 * time.Minute

// Sweeper loads the directory, demoting expired availability windows as a side effect,
// and returns once its own demotion writes are done.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Service handles the cron schedule.
type Service struct {
	config  *config.SchedulerConfig
	sweeper Sweeper
	log     *logger.Logger
	cron    *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(cfg *config.SchedulerConfig, sweeper Sweeper, log *logger.Logger) *Service {
	return &Service{
		config:  cfg,
		sweeper: sweeper,
		log:     log,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	if _, err := s.cron.AddFunc(s.config.ExpirySweep, func() {
		s.runExpirySweep(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to register expiry sweep job: %w", err)
	}

	s.cron.Start()

	entries := s.cron.Entries()
	nextRun := ""
	if len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("schedule", s.config.ExpirySweep).
		Str("timezone", s.config.Timezone).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running sweep.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// runExpirySweep loads the directory once and waits for the demotion writes it triggers.
func (s *Service) runExpirySweep(ctx context.Context) {
	start := time.Now()

	defer func() {
		prommetrics.ObserveSchedulerJobDuration(jobExpirySweep, time.Since(start).Seconds())
		prommetrics.SetSchedulerLastRun(jobExpirySweep)
	}()

	s.log.Info().Msg("Running expiry sweep")

	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	employees, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.log.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Expiry sweep failed")
		prommetrics.RecordSchedulerJobRun(jobExpirySweep, "error")
		return
	}

	prommetrics.RecordSchedulerJobRun(jobExpirySweep, "success")
	s.log.Info().
		Int("employees", employees).
		Dur("duration", time.Since(start)).
		Msg("Expiry sweep completed")
}
