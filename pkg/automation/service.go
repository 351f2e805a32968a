// Package automation runs kai's recurring background jobs, such as daily
// note rollover and periodic vault export.
package automation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrUnknownJob = errors.New("unknown job")

// ActionFunc executes one job run and returns a short human-readable result.
type ActionFunc func(ctx context.Context) (string, error)

// RunStatus values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// JobStatus describes a registered job and its last run.
type JobStatus struct {
	Name       string     `json:"name"`
	Schedule   string     `json:"schedule"`
	Enabled    bool       `json:"enabled"`
	NextRunAt  *time.Time `json:"nextRunAt,omitempty"`
	LastRunAt  *time.Time `json:"lastRunAt,omitempty"`
	LastStatus string     `json:"lastStatus,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
	LastOutput string     `json:"lastOutput,omitempty"`
	Runs       int        `json:"runs"`
}

type job struct {
	schedule Schedule
	action   ActionFunc
	status   JobStatus
	running  bool
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRunHook is called after every job run.
func WithRunHook(f func(job string, err error)) Option {
	return func(s *Service) { s.onRun = f }
}

// Service checks registered jobs every poll interval and runs the due ones.
type Service struct {
	pollInterval time.Duration
	now          func() time.Time
	logger       *zap.Logger
	onRun        func(job string, err error)

	mu   sync.Mutex
	jobs map[string]*job

	ctx    context.Context
	cancel context.CancelFunc
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewService creates a scheduler polling every pollInterval.
func NewService(pollInterval time.Duration, opts ...Option) *Service {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	s := &Service{
		pollInterval: pollInterval,
		now:          time.Now,
		logger:       zap.NewNop(),
		jobs:         make(map[string]*job),
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Register adds a job. Registering an existing name replaces it.
func (s *Service) Register(name string, schedule Schedule, action ActionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := JobStatus{Name: name, Schedule: schedule.String(), Enabled: true}
	if next, ok := schedule.Next(s.now()); ok {
		st.NextRunAt = &next
	} else {
		st.Enabled = false
	}
	s.jobs[name] = &job{schedule: schedule, action: action, status: st}
	s.logger.Info("registered job", zap.String("job", name), zap.String("schedule", st.Schedule))
}

// Jobs returns the status of every job ordered by name.
func (s *Service) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.status)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// RunNow runs a job immediately, outside its schedule.
func (s *Service) RunNow(ctx context.Context, name string) (JobStatus, error) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return JobStatus{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if j.running {
		s.mu.Unlock()
		return JobStatus{}, fmt.Errorf("job %s is already running", name)
	}
	j.running = true
	s.mu.Unlock()

	return s.execute(ctx, name, j, false), nil
}

// Start begins the polling loop.
func (s *Service) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop stops the polling loop and waits for running jobs.
func (s *Service) Stop() {
	s.cancel()
	close(s.stop)
	s.wg.Wait()
}

func (s *Service) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.RunDue(s.ctx)

	for {
		select {
		case <-ticker.C:
			s.RunDue(s.ctx)
		case <-s.stop:
			return
		}
	}
}

// RunDue runs every enabled job whose next run time has passed.
func (s *Service) RunDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var names []string
	for name, j := range s.jobs {
		if j.running || !j.status.Enabled || j.status.NextRunAt == nil || j.status.NextRunAt.After(now) {
			continue
		}
		j.running = true
		names = append(names, name)
	}
	sort.Strings(names)
	due := make([]*job, len(names))
	for i, name := range names {
		due[i] = s.jobs[name]
	}
	s.mu.Unlock()

	for i, j := range due {
		s.execute(ctx, names[i], j, true)
	}
}

func (s *Service) execute(ctx context.Context, name string, j *job, scheduled bool) JobStatus {
	started := s.now()
	output, err := j.action(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	j.running = false

	st := &j.status
	st.Runs++
	st.LastRunAt = &started
	st.LastOutput = output
	st.LastStatus = StatusSuccess
	st.LastError = ""
	if err != nil {
		st.LastStatus = StatusFailed
		st.LastError = err.Error()
		s.logger.Warn("job failed", zap.String("job", name), zap.Error(err))
	} else {
		s.logger.Debug("job finished", zap.String("job", name), zap.String("output", output))
	}

	if scheduled {
		if next, ok := j.schedule.Next(started); ok {
			st.NextRunAt = &next
		} else {
			st.NextRunAt = nil
			st.Enabled = false
		}
	}
	if s.onRun != nil {
		s.onRun(name, err)
	}
	return *st
}
