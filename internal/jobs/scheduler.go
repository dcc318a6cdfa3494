package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/redact"
	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Run performs one execution. The context is cancelled when the
	// scheduler stops.
	Run(ctx context.Context) error
}

// Scheduler runs jobs on standard five-field cron expressions.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewScheduler creates a stopped Scheduler. If log is nil, the default logger
// is used.
func NewScheduler(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "scheduler"))

	cl := cronLogger{logger: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx:    logger.WithLogger(ctx, log),
		cancel: cancel,
		logger: log,
	}
}

// Add registers job to run on schedule.
func (s *Scheduler) Add(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, job.Name(), err)
	}
	s.logger.Info("job scheduled",
		slog.String("job", job.Name()),
		slog.String("schedule", schedule))
	return nil
}

// RunNow executes job once on the caller's goroutine with the scheduler's
// logging and error policy.
func (s *Scheduler) RunNow(job Job) {
	s.run(job)
}

func (s *Scheduler) run(job Job) {
	log := s.logger.With(slog.String("job", job.Name()))
	start := time.Now()

	if err := job.Run(s.ctx); err != nil {
		log.Error("job failed",
			slog.String("error", redact.Error(err)),
			slog.Duration("duration", time.Since(start)))
		return
	}
	log.Debug("job finished", slog.Duration("duration", time.Since(start)))
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop prevents further runs, cancels the context of running jobs and waits
// for them to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler did not stop in time: %w", ctx.Err())
	}
}

// cronLogger adapts cron.Logger to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{slog.String("error", redact.Error(err))}, keysAndValues...)
	l.logger.Error(msg, args...)
}
