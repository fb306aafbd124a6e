package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fedlearn.dev/dashboard/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Job is a periodic task. An empty Schedule registers the job for
// on-demand runs only.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
}

// NewScheduler skips a tick when the previous run of the same job is still going.
func NewScheduler(timeout time.Duration) *Scheduler {
	cronLog := cron.PrintfLogger(slog.NewLogLogger(logger.For(logger.SYSTEM).Handler(), slog.LevelDebug))
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		jobs:    make([]Job, 0),
		timeout: timeout,
	}
}

func (s *Scheduler) Register(job Job) error {
	s.jobs = append(s.jobs, job)
	log := logger.For(logger.SYSTEM).With("job", job.Name())

	schedule := job.Schedule()
	if schedule == "" {
		log.Info("job registered for on-demand runs")
		return nil
	}

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			log.Error("scheduled job failed", "error", err, "took", time.Since(start))
			return
		}
		log.Debug("scheduled job completed", "took", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("scheduling %s with %q: %w", job.Name(), schedule, err)
	}
	log.Info("job scheduled", "schedule", schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.For(logger.SYSTEM).Info("scheduler started", "jobs", len(s.jobs))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.For(logger.SYSTEM).Info("scheduler stopped")
}

// RunByName runs one registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return job.Run(ctx)
		}
	}
	return fmt.Errorf("job %q not registered", name)
}

func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}
