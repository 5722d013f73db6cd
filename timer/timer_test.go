package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManager_ScheduleFires(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	fired := make(chan struct{})
	m.Schedule(60*time.Millisecond, 0, func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Scheduled callback did not fire")
	}
}

func TestManager_Cancel(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fires int32
	id := m.Schedule(150*time.Millisecond, 0, func() {
		atomic.AddInt32(&fires, 1)
	})
	m.Cancel(id)

	time.Sleep(400 * time.Millisecond)
	if atomic.LoadInt32(&fires) != 0 {
		t.Error("Canceled task should not fire")
	}
}

func TestManager_CancelUnknownIsNoOp(t *testing.T) {
	m := NewManager()
	defer m.Stop()
	m.Cancel(12345)
}

func TestManager_Interval(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var fires int32
	id := m.Schedule(60*time.Millisecond, 60*time.Millisecond, func() {
		atomic.AddInt32(&fires, 1)
	})

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&fires) < 2 {
		select {
		case <-deadline:
			t.Fatalf("Interval task fired %d times, want at least 2", atomic.LoadInt32(&fires))
		case <-time.After(20 * time.Millisecond):
		}
	}
	m.Cancel(id)
}

func TestManager_LargeBatchInOneTick(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	// All of these come due in the same tick; the dispatch loop must drain
	// the whole batch without stalling Schedule or Cancel callers.
	const n = 5000
	var fires int32
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		m.Schedule(0, 0, func() {
			if atomic.AddInt32(&fires, 1) == n {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Only %d of %d due tasks fired", atomic.LoadInt32(&fires), n)
	}

	// The scheduler must still be responsive afterwards.
	fired := make(chan struct{})
	m.Schedule(60*time.Millisecond, 0, func() {
		close(fired)
	})
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Scheduler stalled after draining the batch")
	}
}

func TestManager_Stop(t *testing.T) {
	m := NewManager()

	var fires int32
	m.Schedule(100*time.Millisecond, 0, func() {
		atomic.AddInt32(&fires, 1)
	})
	m.Stop()

	time.Sleep(300 * time.Millisecond)
	if atomic.LoadInt32(&fires) != 0 {
		t.Error("Task should not fire after Stop")
	}
}
