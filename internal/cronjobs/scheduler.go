// Package cronjobs runs the periodic maintenance jobs of the service.
package cronjobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"conference-plugins/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Config struct {
	Enabled bool
	// JobTimeout bounds a single run of a job.
	JobTimeout time.Duration
}

// Job is one named periodic task.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	log      *logger.Logger
	mu       sync.Mutex
	entryIDs map[string]cron.EntryID
	ctx      context.Context
	stopOnce sync.Once
}

func New(cfg Config, log *logger.Logger) *Scheduler {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	log = logger.OrNop(log)
	clog := cronLogger{log: log}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(clog),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
		),
		cfg:      cfg,
		log:      log,
		entryIDs: make(map[string]cron.EntryID),
		ctx:      context.Background(),
	}
}

// Register adds job. Registering a name twice is an error.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("cron job needs a name and a run function")
	}
	if job.Schedule == "" {
		return fmt.Errorf("cron job %q has no schedule", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entryIDs[job.Name]; exists {
		return fmt.Errorf("cron job %q already registered", job.Name)
	}
	j := job
	id, err := s.cron.AddFunc(j.Schedule, func() { s.execute(j) })
	if err != nil {
		return fmt.Errorf("invalid cron expression for %q: %w", job.Name, err)
	}
	s.entryIDs[job.Name] = id
	s.log.Info(context.Background(), "registered cron job",
		zap.String("job", job.Name), zap.String("schedule", job.Schedule))
	return nil
}

// Jobs returns the registered job names and their next run.
func (s *Scheduler) Jobs() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.entryIDs))
	for name, id := range s.entryIDs {
		out[name] = s.cron.Entry(id).Next
	}
	return out
}

// RunNow executes the named job synchronously, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	id, ok := s.entryIDs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown cron job %q", name)
	}
	s.cron.Entry(id).WrappedJob.Run()
	return nil
}

// Run starts the scheduler and blocks until ctx is cancelled. Running jobs
// are waited for before it returns.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.log.Info(ctx, "cron jobs disabled by config")
		<-ctx.Done()
		return nil
	}
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.log.Info(ctx, "cron scheduler started", zap.Int("jobs", len(s.Jobs())))
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop stops scheduling and waits for running jobs. Safe to call more
// than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
		s.log.Info(context.Background(), "cron scheduler stopped")
	})
}

func (s *Scheduler) execute(job Job) {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()
	// jobs started right before shutdown still get to finish
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error(ctx, "cron job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	s.log.Info(ctx, "cron job finished", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
}

// cronLogger routes robfig/cron's own logging to zap.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
