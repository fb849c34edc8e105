package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/job"
	"github.com/akolanti/extractview/pkg/logger_i"
	"github.com/robfig/cron/v3"
)

// Scheduler periodically starts the next pending extraction. At most one
// extraction runs at a time; a tick that finds one running does nothing.
type Scheduler struct {
	jobService   *job.Service
	history      extractionModel.HistoryStore
	staleTimeout time.Duration

	cron    *cron.Cron
	ticking sync.Mutex
	wg      sync.WaitGroup
	stop    chan bool
	logger  *logger_i.Logger
}

type SchedulerConfig struct {
	JobService *job.Service
	History    extractionModel.HistoryStore
	// Spec is a robfig/cron schedule, e.g. "@every 10s".
	Spec             string
	StaleLockTimeout time.Duration
}

func InitScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	s := &Scheduler{
		jobService:   cfg.JobService,
		history:      cfg.History,
		staleTimeout: cfg.StaleLockTimeout,
		cron:         cron.New(),
		stop:         make(chan bool),
		logger:       logger_i.NewLogger("Scheduler"),
	}
	if _, err := s.cron.AddFunc(cfg.Spec, s.runScheduledTick); err != nil {
		return nil, fmt.Errorf("invalid scheduler spec %q: %w", cfg.Spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("Scheduler started")
	s.cron.Start()
}

// Stop halts the schedule and waits for an in-progress tick. Runs already
// handed to the job service keep going; wait on the service for those.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runScheduledTick() {
	select {
	case <-s.stop:
		return
	default:
	}
	s.wg.Add(1)
	defer s.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Tick(ctx)
}
