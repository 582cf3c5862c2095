package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs registered periodic jobs
type Scheduler struct {
	logger *zap.Logger
	jobs   []Job
}

// Job is the interface for periodic jobs
type Job interface {
	Run(ctx context.Context) error
}

// NewScheduler creates a new job scheduler
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		jobs:   make([]Job, 0),
	}
}

// AddJob registers a job with the scheduler
func (s *Scheduler) AddJob(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start runs the scheduler at the given interval until the context is done
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	s.logger.Info("starting job scheduler",
		zap.Duration("interval", interval),
		zap.Int("jobs_count", len(s.jobs)))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run all jobs once at startup
	s.runJobs(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping job scheduler")
			return
		case <-ticker.C:
			s.runJobs(ctx)
		}
	}
}

// runJobs runs all registered jobs
func (s *Scheduler) runJobs(ctx context.Context) {
	for i, job := range s.jobs {
		s.logger.Debug("running job", zap.Int("job_index", i))

		if err := job.Run(ctx); err != nil {
			s.logger.Error("job failed",
				zap.Error(err),
				zap.Int("job_index", i))
		}
	}
}
