// Package schedule runs housekeeping tasks at fixed intervals.
//
// Usage:
//
//	s := schedule.New()
//	s.Every(time.Minute).Name("ledger.sweep").WithoutOverlapping().Run(ledger.Sweep)
//	s.Start(ctx) // returns immediately; stops when ctx is done
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Task is the function signature for a scheduled task.
type Task func()

type entry struct {
	id        string
	interval  time.Duration
	task      Task
	lastRun   time.Time
	running   bool
	noOverlap bool
	mu        sync.Mutex
}

// Scheduler dispatches registered tasks from one ticking goroutine. Each
// run happens on its own goroutine; a panicking task is logged and
// rescheduled.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	tick    time.Duration
	wg      sync.WaitGroup
	stopped chan struct{}
}

func New() *Scheduler {
	return &Scheduler{tick: time.Second}
}

// Builder configures one entry before Run registers it.
type Builder struct {
	s *Scheduler
	e *entry
}

// Every starts an entry that runs every d, first on the tick after Start.
func (s *Scheduler) Every(d time.Duration) *Builder {
	return &Builder{s: s, e: &entry{interval: d}}
}

// WithoutOverlapping skips a run while the previous one is still executing.
func (b *Builder) WithoutOverlapping() *Builder {
	b.e.noOverlap = true
	return b
}

// Name gives the entry an identifier for logging.
func (b *Builder) Name(id string) *Builder {
	b.e.id = id
	return b
}

// Run registers fn.
func (b *Builder) Run(fn Task) {
	b.e.task = fn
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
}

// Start begins dispatching in the background until ctx is done. Call it
// once.
func (s *Scheduler) Start(ctx context.Context) {
	s.stopped = make(chan struct{})
	go s.loop(ctx)
}

// Wait blocks until the scheduler has stopped and every dispatched run
// has returned.
func (s *Scheduler) Wait() {
	if s.stopped != nil {
		<-s.stopped
	}
	s.wg.Wait()
}

// List describes the registered entries.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, e.interval))
	}
	return out
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.stopped)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.mu.Lock()
			current := make([]*entry, len(s.entries))
			copy(current, s.entries)
			s.mu.Unlock()

			for _, e := range current {
				if due(e, now) {
					s.dispatch(e, now)
				}
			}
		}
	}
}

func due(e *entry, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
}

func (s *Scheduler) dispatch(e *entry, now time.Time) {
	e.mu.Lock()
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
		}()
		e.task()
	}()
}
