// Package app wires the SmartFlow components together and owns the
// process lifecycle.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"smartflow/api"
	"smartflow/cache"
	"smartflow/config"
	"smartflow/database"
	"smartflow/ingest"
	"smartflow/scheduler"
)

// App represents the main application
type App struct {
	config *config.Config

	db        *database.Database
	redis     *cache.RedisClient
	repo      *database.DealRepository
	batchLock *database.BatchLock
	ingestSvc *ingest.Service
	sched     *scheduler.Scheduler
	apiServer *api.Server
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{config: cfg}
}

// Start brings up every component and blocks until a shutdown signal.
// Postgres is mandatory; Redis is optional and its absence only
// disables the dashboard cache.
func (a *App) Start() error {
	// 1. Database connection
	log.Info().Str("host", a.config.DatabaseHost).Msg("connecting to database")
	db, err := database.Connect(a.config.PostgresDSN())
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db
	defer a.db.Close()

	// 2. Redis connection (optional)
	a.redis = cache.NewRedisClient(a.config.RedisHost, a.config.RedisPort, a.config.RedisPassword)
	if a.redis != nil {
		defer a.redis.Close()
	}

	// 3. Schema + repositories
	a.repo = database.NewDealRepository(a.db, a.config.ResetConsecutiveOnSell)
	if err := a.repo.InitSchema(); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	// 4. Ingestion pipeline behind its advisory lock
	a.batchLock, err = database.NewBatchLock(a.config.PostgresDSN())
	if err != nil {
		return fmt.Errorf("batch lock setup failed: %w", err)
	}
	defer a.batchLock.Close()
	a.ingestSvc = ingest.NewService(a.repo, a.batchLock, a.config.Ingest)

	// 5. Scheduler with the nightly fetch job
	a.sched, err = scheduler.New(a.config.Timezone)
	if err != nil {
		return err
	}
	if err := a.sched.AddJob(a.config.FetchSchedule, &fetchJob{svc: a.ingestSvc}); err != nil {
		return err
	}
	a.sched.Start()
	defer a.sched.Stop()

	// 6. API server
	a.apiServer = api.NewServer(a.repo, a.redis, a.sched, a.config.CORSOrigin)
	apiErr := make(chan error, 1)
	go func() {
		apiErr <- a.apiServer.Start(a.config.APIPort)
	}()

	log.Info().Int("port", a.config.APIPort).Str("schedule", a.config.FetchSchedule).Msg("SmartFlow started")

	// Block until a signal or a server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-apiErr:
		if err != nil {
			return fmt.Errorf("API server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API shutdown failed")
	}
	return nil
}

// fetchJob adapts the ingestion service to the scheduler.
type fetchJob struct {
	svc *ingest.Service
}

func (j *fetchJob) Name() string { return "nightly-fetch" }

func (j *fetchJob) Run() error {
	// A run skipped because another one holds the lock is not a
	// failure; it just means the previous batch is still going.
	_, err := j.svc.Run(context.Background())
	if err == ingest.ErrRunInProgress {
		return nil
	}
	return err
}
