package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Cron schedules jobs on a robfig/cron runner. Intervals below one second
// are rounded up to one second by cron.Every.
type Cron struct {
	runner *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger
	once   sync.Once
}

var _ Scheduler = (*Cron)(nil)

func NewCron(opts ...Option) *Cron {
	o := buildOptions(opts)
	cl := cronLogger{logger: o.logger}
	runner := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	runner.Start()

	ctx, cancel := context.WithCancel(context.Background())
	return &Cron{
		runner: runner,
		ctx:    ctx,
		cancel: cancel,
		logger: o.logger,
	}
}

func (s *Cron) Schedule(name string, interval time.Duration, task Task) (Job, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if s.ctx.Err() != nil {
		return nil, ErrStopped
	}

	jobCtx, cancel := context.WithCancel(s.ctx)
	id := s.runner.Schedule(cron.Every(interval), cron.FuncJob(func() {
		if jobCtx.Err() != nil {
			return
		}
		runTask(jobCtx, s.logger, name, task)
	}))

	s.logger.Debug().Str("job", name).Dur("interval", interval).Int("entry", int(id)).Msg("cron job scheduled")
	return &cronJob{runner: s.runner, id: id, cancel: cancel}, nil
}

func (s *Cron) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.runner.Stop().Done()
	})
}

type cronJob struct {
	runner *cron.Cron
	id     cron.EntryID
	cancel context.CancelFunc
	once   sync.Once
}

func (j *cronJob) Stop() {
	j.once.Do(func() {
		j.cancel()
		j.runner.Remove(j.id)
	})
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Trace().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
