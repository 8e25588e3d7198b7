package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidInterval = errors.New("scheduler interval must be positive")
	ErrStopped         = errors.New("scheduler is stopped")
)

// Task is one run of a recurring job. ctx is cancelled when the job stops.
type Task func(ctx context.Context)

// Job is a scheduled recurring task.
type Job interface {
	// Stop prevents further runs. It is safe to call more than once.
	Stop()
}

// Scheduler runs named tasks on a fixed interval until they are stopped.
type Scheduler interface {
	Schedule(name string, interval time.Duration, task Task) (Job, error)
	// Stop stops every job and waits for running tasks to return.
	Stop()
}

type Option func(*options)

type options struct {
	logger zerolog.Logger
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Ticker runs each job on its own goroutine driven by a time.Ticker.
// Runs of the same job never overlap; ticks missed while a run is in
// progress are dropped.
type Ticker struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger zerolog.Logger
}

var _ Scheduler = (*Ticker)(nil)

func NewTicker(opts ...Option) *Ticker {
	o := buildOptions(opts)
	ctx, cancel := context.WithCancel(context.Background())
	return &Ticker{
		ctx:    ctx,
		cancel: cancel,
		logger: o.logger,
	}
}

func (s *Ticker) Schedule(name string, interval time.Duration, task Task) (Job, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if s.ctx.Err() != nil {
		return nil, ErrStopped
	}

	jobCtx, cancel := context.WithCancel(s.ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-ticker.C:
				runTask(jobCtx, s.logger, name, task)
			}
		}
	}()

	s.logger.Debug().Str("job", name).Dur("interval", interval).Msg("job scheduled")
	return tickerJob{cancel: cancel}, nil
}

func (s *Ticker) Stop() {
	s.cancel()
	s.wg.Wait()
}

type tickerJob struct {
	cancel context.CancelFunc
}

func (j tickerJob) Stop() {
	j.cancel()
}

func runTask(ctx context.Context, logger zerolog.Logger, name string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("job", name).Interface("panic", r).Msg("scheduled job panicked")
		}
	}()

	start := time.Now()
	task(ctx)
	logger.Trace().Str("job", name).Dur("took", time.Since(start)).Msg("job run")
}
