// Package scheduler runs named jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/harvest/internal/logger"
)

// Job is one scheduled unit of work. The context is cancelled when the
// scheduler shuts down.
type Job func(ctx context.Context)

// Scheduler wraps a cron runner with overlap protection: a tick that fires
// while the previous run of the same job is still active is skipped.
type Scheduler struct {
	cron   *cron.Cron
	parser cron.Parser
	log    logger.Interface

	mu      sync.Mutex
	ctx     context.Context
	running map[string]bool
}

// New creates a scheduler. Schedules use the standard five-field cron
// format (minute hour day month weekday) plus descriptors like @hourly and
// @every 30m.
func New(log logger.Interface) *Scheduler {
	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)
	adapter := cronLogger{log: log}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter)),
	)

	return &Scheduler{
		cron:    c,
		parser:  parser,
		log:     log,
		ctx:     context.Background(),
		running: make(map[string]bool),
	}
}

// AddJob registers a job under the given cron spec. The spec is validated
// before registration.
func (s *Scheduler) AddJob(name, spec string, job Job) error {
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	_, err = s.cron.AddFunc(spec, func() {
		if !s.tryStart(name) {
			s.log.Warn("previous run still active, skipping tick", "job", name)
			return
		}
		defer s.finish(name)

		s.log.Info("scheduled run starting", "job", name)
		job(s.jobContext())
	})
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	s.log.Info("job scheduled",
		"job", name,
		"schedule", spec,
		"next_run", schedule.Next(time.Now()).Format(time.RFC3339),
	)

	return nil
}

// Run starts the cron runner and blocks until the context is cancelled,
// then stops it, waiting for any in-flight job to return.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	<-ctx.Done()

	s.log.Info("scheduler stopping")
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) tryStart(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running[name] {
		return false
	}
	s.running[name] = true

	return true
}

func (s *Scheduler) finish(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.running, name)
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ctx
}

// cronLogger adapts logger.Interface to the cron library's logger.
type cronLogger struct {
	log logger.Interface
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err.Error())...)
}
