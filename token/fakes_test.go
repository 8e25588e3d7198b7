package token_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-identity-client/scheduler"
	"github.com/jrsteele09/go-identity-client/token"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: epoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// At moves the clock to epoch plus the given number of seconds.
func (c *fakeClock) At(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = epoch.Add(time.Duration(seconds) * time.Second)
}

// fakeFetcher issues "token-N" tokens stamped with the fake clock.
type fakeFetcher struct {
	clock     *fakeClock
	expiresIn int
	calls     int32

	mu      sync.Mutex
	err     error
	gate    chan struct{}
	entered chan struct{}
	lastReq token.Request
	empty   bool
}

func newFakeFetcher(clock *fakeClock, expiresIn int) *fakeFetcher {
	return &fakeFetcher{
		clock:     clock,
		expiresIn: expiresIn,
		entered:   make(chan struct{}, 100),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, req token.Request) (token.Token, error) {
	n := atomic.AddInt32(&f.calls, 1)
	issuedAt := f.clock.Now()

	f.mu.Lock()
	f.lastReq = req
	gate, err, empty := f.gate, f.err, f.empty
	f.mu.Unlock()

	f.entered <- struct{}{}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return token.Token{}, err
	}

	accessToken := fmt.Sprintf("token-%d", n)
	if empty {
		accessToken = ""
	}
	return token.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		IssuedAt:    issuedAt,
		ExpiresIn:   f.expiresIn,
		Scopes:      req.Scopes,
	}, nil
}

func (f *fakeFetcher) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

func (f *fakeFetcher) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeFetcher) SetGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
}

func (f *fakeFetcher) SetEmpty(empty bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.empty = empty
}

func (f *fakeFetcher) LastRequest() token.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

// manualScheduler runs its tasks only when Tick is called.
type manualScheduler struct {
	mu       sync.Mutex
	jobs     []*manualJob
	names    []string
	interval time.Duration
}

var _ scheduler.Scheduler = (*manualScheduler)(nil)

type manualJob struct {
	task    scheduler.Task
	stopped atomic.Bool
}

func (j *manualJob) Stop() {
	j.stopped.Store(true)
}

func (s *manualScheduler) Schedule(name string, interval time.Duration, task scheduler.Task) (scheduler.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := &manualJob{task: task}
	s.jobs = append(s.jobs, job)
	s.names = append(s.names, name)
	s.interval = interval
	return job, nil
}

func (s *manualScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		j.Stop()
	}
}

func (s *manualScheduler) Tick() {
	s.mu.Lock()
	jobs := append([]*manualJob(nil), s.jobs...)
	s.mu.Unlock()

	for _, j := range jobs {
		if !j.stopped.Load() {
			j.task(context.Background())
		}
	}
}
