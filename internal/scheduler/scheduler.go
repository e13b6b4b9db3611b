// Package scheduler runs the periodic background jobs: the once-a-minute
// reminder scan and the daily/weekly maintenance jobs. Each job owns its
// own goroutine and timer; a failure in one never disturbs another.
package scheduler

import (
	"log"
	"sync"
	"time"

	"studyhub/internal/metrics"
)

// Clock supplies the current time. Jobs receive their fire time from it,
// so tests can drive ticks with a fixed clock.
type Clock func() time.Time

// JobFunc is one job body. The passed time is the tick's fire time.
type JobFunc func(now time.Time) error

type job struct {
	name string
	next func(after time.Time) time.Time
	run  JobFunc
}

// Scheduler owns a set of periodic jobs with explicit Start/Stop
type Scheduler struct {
	clock Clock
	jobs  []*job
	stop  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// New creates a scheduler. A nil clock means time.Now.
func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		clock: clock,
		stop:  make(chan struct{}),
	}
}

// AddEvery registers a job that fires every interval, first fire one
// interval after Start
func (s *Scheduler) AddEvery(name string, interval time.Duration, run JobFunc) {
	s.add(&job{
		name: name,
		next: func(after time.Time) time.Time { return after.Add(interval) },
		run:  run,
	})
}

// AddDaily registers a job that fires once a day at hour:minute UTC
func (s *Scheduler) AddDaily(name string, hour, minute int, run JobFunc) {
	s.add(&job{
		name: name,
		next: func(after time.Time) time.Time { return NextDaily(after, hour, minute) },
		run:  run,
	})
}

// AddWeekly registers a job that fires once a week on weekday at
// hour:minute UTC
func (s *Scheduler) AddWeekly(name string, weekday time.Weekday, hour, minute int, run JobFunc) {
	s.add(&job{
		name: name,
		next: func(after time.Time) time.Time { return NextWeekly(after, weekday, hour, minute) },
		run:  run,
	})
}

func (s *Scheduler) add(j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		log.Printf("Warning: job %s added after scheduler start, ignored", j.name)
		return
	}
	s.jobs = append(s.jobs, j)
}

// Start launches one goroutine per registered job
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(j)
	}
	log.Printf("Scheduler started with %d jobs", len(s.jobs))
}

// Stop halts all job timers and waits for in-flight job bodies to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
	log.Println("Scheduler stopped")
}

// loop arms the timer for the next fire only after the previous body
// returned, so ticks of one job cannot overlap
func (s *Scheduler) loop(j *job) {
	defer s.wg.Done()

	timer := time.NewTimer(time.Until(j.next(s.clock())))
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-timer.C:
			now := s.clock()
			s.runJob(j, now)
			timer.Reset(time.Until(j.next(now)))
		}
	}
}

// runJob executes one job body, isolating panics and recording the outcome
func (s *Scheduler) runJob(j *job, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error: job %s panicked: %v", j.name, r)
			metrics.JobRuns.WithLabelValues(j.name, "panic").Inc()
		}
	}()

	if err := j.run(now); err != nil {
		log.Printf("Error: job %s failed: %v", j.name, err)
		metrics.JobRuns.WithLabelValues(j.name, "error").Inc()
		return
	}
	metrics.JobRuns.WithLabelValues(j.name, "ok").Inc()
}

// NextDaily returns the first hour:minute UTC strictly after t
func NextDaily(t time.Time, hour, minute int) time.Time {
	t = t.UTC()
	next := time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(t) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// NextWeekly returns the first weekday hour:minute UTC strictly after t
func NextWeekly(t time.Time, weekday time.Weekday, hour, minute int) time.Time {
	next := NextDaily(t, hour, minute)
	for next.Weekday() != weekday {
		next = next.Add(24 * time.Hour)
	}
	return next
}
