package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobRecorder counts job outcomes.
type JobRecorder interface {
	RecordJobRun(job string, success bool)
}

// Scheduler runs named background jobs on cron specs.
type Scheduler struct {
	cron     *cron.Cron
	logger   *zap.Logger
	recorder JobRecorder
	timeout  time.Duration
}

// NewScheduler creates a scheduler. Overlapping runs of a job are skipped.
func NewScheduler(logger *zap.Logger, recorder JobRecorder, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger,
		recorder: recorder,
		timeout:  timeout,
	}
}

// Add registers job under name.
func (s *Scheduler) Add(name, spec string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() { s.runJob(name, job) })
	if err != nil {
		return err
	}
	s.logger.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) runJob(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := job(ctx)
	if s.recorder != nil {
		s.recorder.RecordJobRun(name, err == nil)
	}
	if err != nil {
		s.logger.Error("job failed", zap.String("job", name), zap.Duration("duration", time.Since(start)), zap.Error(err))
		return
	}
	s.logger.Debug("job finished", zap.String("job", name), zap.Duration("duration", time.Since(start)))
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs or ctx expiry.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}
