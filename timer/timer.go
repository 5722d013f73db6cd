// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

type task struct {
	id       int64
	execute  time.Time
	interval time.Duration
	callback func()
	index    int
}

type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].execute.Before(q[j].execute)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	n := len(*q)
	t := x.(*task)
	t.index = n
	*q = append(*q, t)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	t.index = -1
	*q = old[0 : n-1]
	return t
}

// Manager is a heap-based callback scheduler shared by all rooms. Cancellation
// here is best-effort removal from the heap; callers that need a hard
// cancel-before-fire guarantee check their own handle state inside the
// callback (see room package).
type Manager struct {
	queue     taskQueue
	mutex     sync.Mutex
	nextID    int64
	closeChan chan struct{}
	closeOnce sync.Once
}

func NewManager() *Manager {
	m := &Manager{
		queue:     make(taskQueue, 0),
		nextID:    1,
		closeChan: make(chan struct{}),
	}
	heap.Init(&m.queue)
	go m.process()
	return m
}

// Schedule runs callback after delay. A positive interval re-arms the task
// after each fire until it is canceled. Returns the task id.
func (m *Manager) Schedule(delay, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	t := &task{
		id:       m.nextID,
		execute:  time.Now().Add(delay),
		interval: interval,
		callback: callback,
	}
	m.nextID++

	heap.Push(&m.queue, t)
	return t.id
}

// Cancel removes a pending task. Canceling an unknown or already-fired id is
// a no-op.
func (m *Manager) Cancel(taskID int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, t := range m.queue {
		if t.id == taskID {
			heap.Remove(&m.queue, i)
			break
		}
	}
}

// Stop shuts down the scheduling loop. Pending tasks are dropped.
func (m *Manager) Stop() {
	m.closeOnce.Do(func() { close(m.closeChan) })
}

func (m *Manager) process() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.closeChan:
			return

		case <-ticker.C:
			// Drain due tasks under the mutex, dispatch after releasing it,
			// so a large batch coming due in one tick cannot stall Schedule
			// and Cancel callers.
			m.mutex.Lock()
			now := time.Now()

			var due []*task
			for m.queue.Len() > 0 {
				t := m.queue[0]
				if t.execute.After(now) {
					break
				}

				heap.Pop(&m.queue)
				due = append(due, t)

				if t.interval > 0 {
					t.execute = now.Add(t.interval)
					heap.Push(&m.queue, t)
				}
			}
			m.mutex.Unlock()

			for _, t := range due {
				go t.callback()
			}
		}
	}
}
