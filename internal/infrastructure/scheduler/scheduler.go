// Package scheduler runs periodic maintenance jobs for the Gurukul hub on
// top of robfig/cron. Jobs only touch derived state: the Redis projections
// can always be rebuilt from PostgreSQL.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
	"github.com/fccthegurukul/gurukul-hub/pkg/timeutil"
)

var (
	ErrNilJob                  = errors.New("job cannot be nil")
	ErrInvalidSpec             = errors.New("invalid cron spec")
	ErrJobAlreadyExists        = errors.New("job already exists")
	ErrJobNotFound             = errors.New("job not found")
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)

// Job is one unit of periodic work. Run gets a context bounded by the job
// timeout that is also cancelled when the scheduler stops.
type Job interface {
	Name() string
	Description() string
	Run(ctx context.Context) error
}

// JobResult describes one finished run.
type JobResult struct {
	JobName   string
	StartedAt time.Time
	Duration  time.Duration
	Success   bool
	Error     error
	// Manual is set for runs started through RunNow.
	Manual bool
}

type Config struct {
	Logger *logger.Logger
	// Location cron expressions are evaluated in. Defaults to IST.
	Location *time.Location
	// JobTimeout bounds a single run. Defaults to 5m.
	JobTimeout time.Duration
}

type entry struct {
	job  Job
	spec string
	id   cron.EntryID

	runs     int64
	failures int64
	total    time.Duration
	last     *JobResult
}

// Scheduler fires registered jobs on their cron schedules. A job that is
// still running when its next tick arrives skips that tick.
type Scheduler struct {
	cron    *cron.Cron
	log     *logger.Logger
	timeout time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	stop    context.CancelFunc
	base    context.Context
}

func New(cfg Config) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Location == nil {
		cfg.Location = timeutil.IST
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	log := cfg.Logger.With(logger.Component("scheduler"))
	cl := cronLogger{log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:     log,
		timeout: cfg.JobTimeout,
		entries: make(map[string]*entry),
	}
}

// Register adds job under a standard five-field cron spec or a descriptor
// such as @daily.
func (s *Scheduler) Register(job Job, spec string) error {
	if job == nil {
		return ErrNilJob
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}
	e := &entry{job: job, spec: spec}
	id, err := s.cron.AddFunc(spec, func() { s.fire(e) })
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSpec, spec, err)
	}
	e.id = id
	s.entries[name] = e

	s.log.Debug("job registered", logger.String("job", name), logger.String("spec", spec))
	return nil
}

func (s *Scheduler) Unregister(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	s.cron.Remove(e.id)
	delete(s.entries, name)
	return nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return ErrSchedulerAlreadyRunning
	}
	s.base, s.stop = context.WithCancel(ctx)
	s.cron.Start()
	s.log.Info("scheduler started", logger.Int("jobs_count", len(s.entries)))
	return nil
}

// Stop cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop == nil {
		return ErrSchedulerNotRunning
	}
	stop()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// RunNow executes the named job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) (*JobResult, error) {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	r := s.run(ctx, e, true)
	return &r, r.Error
}

func (s *Scheduler) fire(e *entry) {
	s.mu.Lock()
	ctx := s.base
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	s.run(ctx, e, false)
}

func (s *Scheduler) run(parent context.Context, e *entry, manual bool) JobResult {
	name := e.job.Name()
	log := s.log.With(logger.String("job", name), logger.Bool("manual", manual))

	ctx, cancel := context.WithTimeout(logger.WithContext(parent, log), s.timeout)
	defer cancel()

	start := time.Now()
	err := e.job.Run(ctx)
	r := JobResult{
		JobName:   name,
		StartedAt: start,
		Duration:  time.Since(start),
		Success:   err == nil,
		Error:     err,
		Manual:    manual,
	}

	s.mu.Lock()
	e.runs++
	e.total += r.Duration
	if err != nil {
		e.failures++
	}
	e.last = &r
	s.mu.Unlock()

	if err != nil {
		log.Error("job failed", logger.Latency(r.Duration), logger.Err(err))
	} else {
		log.Info("job completed", logger.Latency(r.Duration))
	}
	return r
}

// JobInfo describes a registered job for status output.
type JobInfo struct {
	Name        string
	Description string
	Spec        string
	NextRun     time.Time
	LastRun     *JobResult
}

func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobInfo, 0, len(s.entries))
	for name, e := range s.entries {
		info := JobInfo{
			Name:        name,
			Description: e.job.Description(),
			Spec:        e.spec,
			NextRun:     s.cron.Entry(e.id).Next,
		}
		if e.last != nil {
			last := *e.last
			info.LastRun = &last
		}
		out = append(out, info)
	}
	return out
}

// Stats are execution counters summed over all registered jobs.
type Stats struct {
	TotalExecutions int64
	TotalFailures   int64
	AverageDuration time.Duration
	FailuresByJob   map[string]int64
}

// Snapshot totals the counters of every job.
func (s *Scheduler) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{FailuresByJob: make(map[string]int64)}
	var total time.Duration
	for name, e := range s.entries {
		st.TotalExecutions += e.runs
		st.TotalFailures += e.failures
		total += e.total
		if e.failures > 0 {
			st.FailuresByJob[name] = e.failures
		}
	}
	if st.TotalExecutions > 0 {
		st.AverageDuration = total / time.Duration(st.TotalExecutions)
	}
	return st
}

// cronLogger sends robfig/cron's own messages through pkg/logger.
type cronLogger struct{ log *logger.Logger }

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Debug("cron: "+msg, pairs(kv)...)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error("cron: "+msg, append(pairs(kv), logger.Err(err))...)
}

func pairs(kv []interface{}) []logger.Field {
	out := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			out = append(out, logger.Any(k, kv[i+1]))
		}
	}
	return out
}
