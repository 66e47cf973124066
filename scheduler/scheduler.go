// Package scheduler runs the nightly fetch on a cron schedule and
// keeps a small run history for the health endpoint.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Job is a schedulable unit of work.
type Job interface {
	Run() error
	Name() string
}

// History is a snapshot of the scheduler's run counters.
type History struct {
	TotalRuns   int        `json:"total_runs"`
	SuccessRuns int        `json:"success_runs"`
	FailureRuns int        `json:"failure_runs"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// Scheduler manages the background jobs.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu      sync.Mutex
	history History
}

// New creates a scheduler anchored to the given timezone so cron
// expressions mean local exchange time, not server time.
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler: bad timezone %q: %w", timezone, err)
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
		log:  log.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers a job with a standard 5-field cron schedule.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.runTracked(job)
	})
	if err != nil {
		return fmt.Errorf("scheduler: register %s: %w", job.Name(), err)
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("job registered")
	return nil
}

// RunNow executes a job immediately, outside its schedule. The run is
// counted in the history like a scheduled one.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("running job immediately")
	return s.runTracked(job)
}

// History returns a copy of the run counters.
func (s *Scheduler) History() History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history
}

func (s *Scheduler) runTracked(job Job) error {
	s.log.Debug().Str("job", job.Name()).Msg("running job")
	err := job.Run()
	now := time.Now()

	s.mu.Lock()
	s.history.TotalRuns++
	s.history.LastRun = &now
	if err != nil {
		s.history.FailureRuns++
		s.history.LastError = err.Error()
	} else {
		s.history.SuccessRuns++
		s.history.LastSuccess = &now
		s.history.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
		return err
	}
	s.log.Debug().Str("job", job.Name()).Msg("job completed")
	return nil
}
