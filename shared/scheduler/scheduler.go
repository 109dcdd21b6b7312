package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"video-qa/shared/logging"
	"video-qa/shared/monitoring"
)

// Metrics defines the common interface for job metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// JobEvents provides callbacks for monitoring job execution
type JobEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Job is a unit of background work run on a cron schedule.
type Job interface {
	Name() string
	RunOnce(ctx context.Context, events *JobEvents) error
}

// Scheduler runs jobs on their schedules and reports outcomes to a monitor.
type Scheduler struct {
	monitor *monitoring.Monitor
	cron    *cron.Cron
}

func New(monitor *monitoring.Monitor) *Scheduler {
	logger := cron.PrintfLogger(logging.Base().WithField("component", "scheduler"))
	return &Scheduler{
		monitor: monitor,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger))),
	}
}

// Add registers job under a six-field (seconds-first) cron spec.
func (s *Scheduler) Add(ctx context.Context, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.RunOnce(ctx, job); err != nil {
			logging.FromContext(ctx).WithError(err).Errorf("Error running scheduled job %s", job.Name())
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", job.Name(), err)
	}
	logging.FromContext(ctx).WithField("schedule", spec).Infof("Scheduled %s", job.Name())
	return nil
}

// Start runs the cron loop until ctx is cancelled and waits for running
// jobs to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	logging.FromContext(ctx).Info("Scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) RunOnce(ctx context.Context, job Job) error {
	startTime := time.Now()
	name := job.Name()

	logging.FromContext(ctx).Debugf("Starting %s run...", name)

	events := &JobEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", name, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", name, err), duration)
		},
	}

	if err := job.RunOnce(ctx, events); err != nil {
		duration := time.Since(startTime)
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", name, err), duration)
		return fmt.Errorf("%s run failed: %w", name, err)
	}

	return nil
}
