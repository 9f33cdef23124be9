package tasks

import (
	"fmt"

	"ruralsite/internal/config"
	"ruralsite/internal/utils/logger"

	"github.com/hibiken/asynq"
)

// Scheduler handles periodic task scheduling
type Scheduler struct {
	scheduler *asynq.Scheduler
	schedule  string
	logger    *logger.Logger
}

// NewScheduler fails on an invalid sweep schedule.
func NewScheduler(cfg config.RedisConfig, worker config.WorkerConfig) (*Scheduler, error) {
	if err := ValidateSchedule(worker.SweepSchedule); err != nil {
		return nil, err
	}
	scheduler := asynq.NewScheduler(RedisOpt(cfg), &asynq.SchedulerOpts{
		Logger: asynqLogger{logger.New("ASYNQ")},
	})

	return &Scheduler{
		scheduler: scheduler,
		schedule:  worker.SweepSchedule,
		logger:    logger.New("SCHEDULER"),
	}, nil
}

// Start registers the periodic tasks and starts the scheduler in the background.
func (s *Scheduler) Start() error {
	entryID, err := s.scheduler.Register(s.schedule, NewStrandedSweepTask())
	if err != nil {
		return fmt.Errorf("failed to register stranded sweep: %w", err)
	}
	s.logger.Info("registered %s %s %s", TaskTypeStrandedSweep, s.schedule, entryID)

	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
	s.logger.Info("task scheduler stopped")
}
