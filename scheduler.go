package scenecast

import (
	"sync"
	"time"
)

// postQueueCap bounds the number of pending cross-thread closures.
const postQueueCap = 64

// task is one named periodic job.
type task struct {
	name     string
	interval time.Duration
	fn       func(dt float64)
	next     time.Time
	last     time.Time // zero until first run
}

// Scheduler runs named periodic tasks and posted closures on one goroutine,
// so tasks may mutate shared scene state without locking. Four independent
// cadences (live sampling, motion, capture, video playback) coexist without
// blocking each other as long as each callback finishes within its own
// interval.
//
// Background work (video decode, import) runs elsewhere and marshals its
// result back via Post.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]*task
	wake    chan struct{}
	post    chan func()
	stop    chan struct{}
	done    chan struct{}
	stopped bool
}

// NewScheduler creates a scheduler and starts its loop.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		tasks: make(map[string]*task),
		wake:  make(chan struct{}, 1),
		post:  make(chan func(), postQueueCap),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Every registers (or replaces) a named periodic task. The task first fires
// one interval from now. fn receives the seconds elapsed since its previous
// run, or 0 on the first run.
// Panics if interval is not positive.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(dt float64)) {
	if interval <= 0 {
		panic("scenecast: task interval must be positive")
	}
	s.mu.Lock()
	s.tasks[name] = &task{
		name:     name,
		interval: interval,
		fn:       fn,
		next:     time.Now().Add(interval),
	}
	s.mu.Unlock()
	s.kick()
}

// Cancel removes a named task. Idempotent.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	delete(s.tasks, name)
	s.mu.Unlock()
	s.kick()
}

// SetInterval changes a task's cadence, rescheduling its next run from now.
// Returns false if no such task exists.
func (s *Scheduler) SetInterval(name string, interval time.Duration) bool {
	if interval <= 0 {
		panic("scenecast: task interval must be positive")
	}
	s.mu.Lock()
	t, ok := s.tasks[name]
	if ok {
		t.interval = interval
		t.next = time.Now().Add(interval)
	}
	s.mu.Unlock()
	s.kick()
	return ok
}

// Has reports whether a task with the given name is registered.
func (s *Scheduler) Has(name string) bool {
	s.mu.Lock()
	_, ok := s.tasks[name]
	s.mu.Unlock()
	return ok
}

// Post queues fn to run on the scheduler goroutine. Closures posted after
// Stop, or past the queue bound, are dropped; callers treat delivery as
// best-effort.
func (s *Scheduler) Post(fn func()) {
	select {
	case s.post <- fn:
	case <-s.stop:
	default:
	}
}

// Invoke runs fn on the scheduler goroutine and blocks until it has
// finished. Returns false, without running fn, once the scheduler has
// stopped. Unlike Post, delivery is guaranteed while the loop is alive.
// Must not be called from a task or posted closure: the loop cannot serve
// an Invoke while it is executing the caller.
func (s *Scheduler) Invoke(fn func()) bool {
	done := make(chan struct{})
	select {
	case s.post <- func() { fn(); close(done) }:
	case <-s.stop:
		return false
	}
	select {
	case <-done:
		return true
	case <-s.done:
		// The loop exited after the enqueue. fn may still have been the
		// last closure served; report honestly.
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
}

// Stop halts the loop. Blocks until the loop goroutine has exited; no task
// or posted closure runs afterward. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.stopped = true
	s.mu.Unlock()
	close(s.stop)
	<-s.done
}

// kick nudges the loop so it re-reads deadlines after a task change.
func (s *Scheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run is the scheduler loop: sleep until the nearest deadline, run due
// tasks, drain posted closures.
func (s *Scheduler) run() {
	defer close(s.done)
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		wait := s.untilNextDeadline()
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-s.stop:
			return
		case fn := <-s.post:
			fn()
		case <-s.wake:
		case now := <-timer.C:
			s.runDue(now)
		}
	}
}

// untilNextDeadline returns the time to sleep before some task is due.
func (s *Scheduler) untilNextDeadline() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	wait := time.Hour
	now := time.Now()
	for _, t := range s.tasks {
		d := t.next.Sub(now)
		if d < wait {
			wait = d
		}
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

// runDue executes every task whose deadline has passed. Task functions run
// without the lock held so they may add or cancel tasks.
func (s *Scheduler) runDue(now time.Time) {
	s.mu.Lock()
	due := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.next.After(now) {
			due = append(due, t)
		}
	}
	for _, t := range due {
		t.next = now.Add(t.interval)
	}
	s.mu.Unlock()

	for _, t := range due {
		var dt float64
		if !t.last.IsZero() {
			dt = now.Sub(t.last).Seconds()
		}
		t.last = now
		t.fn(dt)
	}
}
