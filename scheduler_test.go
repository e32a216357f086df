package scenecast

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSchedulerFiresPeriodically(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var n int64
	s.Every("tick", 10*time.Millisecond, func(dt float64) {
		atomic.AddInt64(&n, 1)
	})
	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt64(&n) >= 3 })
}

func TestSchedulerReportsElapsedSeconds(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var firstDT atomic.Value
	var calls int64
	s.Every("dt", 20*time.Millisecond, func(dt float64) {
		if atomic.AddInt64(&calls, 1) == 2 {
			firstDT.Store(dt)
		}
	})
	waitFor(t, 2*time.Second, func() bool { return firstDT.Load() != nil })

	dt := firstDT.Load().(float64)
	if dt <= 0 {
		t.Errorf("second run dt = %v, want positive", dt)
	}
}

func TestSchedulerFirstRunHasZeroDT(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var got atomic.Value
	s.Every("first", 5*time.Millisecond, func(dt float64) {
		if got.Load() == nil {
			got.Store(dt)
		}
	})
	waitFor(t, 2*time.Second, func() bool { return got.Load() != nil })
	if dt := got.Load().(float64); dt != 0 {
		t.Errorf("first run dt = %v, want 0", dt)
	}
}

func TestSchedulerCancel(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var n int64
	s.Every("gone", 5*time.Millisecond, func(dt float64) {
		atomic.AddInt64(&n, 1)
	})
	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt64(&n) >= 1 })

	s.Cancel("gone")
	if s.Has("gone") {
		t.Error("task still registered after Cancel")
	}
	settled := atomic.LoadInt64(&n)
	time.Sleep(50 * time.Millisecond)
	// One in-flight run may still land; the count must not keep growing.
	if after := atomic.LoadInt64(&n); after > settled+1 {
		t.Errorf("task kept firing after Cancel: %d -> %d", settled, after)
	}
}

func TestSchedulerReplaceKeepsOneTask(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var a, b int64
	s.Every("dup", time.Hour, func(dt float64) { atomic.AddInt64(&a, 1) })
	s.Every("dup", 5*time.Millisecond, func(dt float64) { atomic.AddInt64(&b, 1) })

	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt64(&b) >= 2 })
	if atomic.LoadInt64(&a) != 0 {
		t.Error("replaced task body still ran")
	}
}

func TestSchedulerSetInterval(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var n int64
	s.Every("slow", time.Hour, func(dt float64) { atomic.AddInt64(&n, 1) })
	if !s.SetInterval("slow", 5*time.Millisecond) {
		t.Fatal("SetInterval reported missing task")
	}
	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt64(&n) >= 1 })

	if s.SetInterval("absent", time.Second) {
		t.Error("SetInterval succeeded for an unknown task")
	}
}

func TestSchedulerPost(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	done := make(chan struct{})
	s.Post(func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("posted closure never ran")
	}
}

func TestSchedulerInvoke(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	ran := false
	if !s.Invoke(func() { ran = true }) {
		t.Fatal("Invoke returned false on a live scheduler")
	}
	if !ran {
		t.Error("Invoke returned before the closure ran")
	}
}

func TestSchedulerInvokeAfterStop(t *testing.T) {
	s := NewScheduler()
	s.Stop()

	if s.Invoke(func() { t.Error("closure ran after Stop") }) {
		t.Error("Invoke reported success on a stopped scheduler")
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	s := NewScheduler()
	s.Every("t", 5*time.Millisecond, func(dt float64) {})
	s.Stop()
	s.Stop()

	// Posting after Stop is a silent no-op.
	s.Post(func() { t.Error("closure ran after Stop") })
	time.Sleep(20 * time.Millisecond)
}

func TestSchedulerRejectsBadInterval(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	defer func() {
		if recover() == nil {
			t.Error("zero interval did not panic")
		}
	}()
	s.Every("bad", 0, func(dt float64) {})
}
