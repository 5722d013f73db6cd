package reconnect

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DDMaster24/doodle-duals/config"
	"github.com/DDMaster24/doodle-duals/logger"
	"github.com/DDMaster24/doodle-duals/ratelimit"
	"github.com/DDMaster24/doodle-duals/room"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	m.Run()
}

// fakeScheduler is a test double for the room.Scheduler interface.
type fakeScheduler struct {
	mutex  sync.Mutex
	nextID int64
	tasks  map[int64]*fakeTask
}

type fakeTask struct {
	delay    time.Duration
	interval time.Duration
	callback func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{tasks: make(map[int64]*fakeTask)}
}

func (f *fakeScheduler) Schedule(delay, interval time.Duration, callback func()) int64 {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.nextID++
	f.tasks[f.nextID] = &fakeTask{delay: delay, interval: interval, callback: callback}
	return f.nextID
}

func (f *fakeScheduler) Cancel(taskID int64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	delete(f.tasks, taskID)
}

// fireOneShot runs the single pending one-shot task with the given delay.
func (f *fakeScheduler) fireOneShot(t *testing.T, delay time.Duration) {
	t.Helper()
	f.mutex.Lock()
	var found *fakeTask
	var foundID int64
	for id, task := range f.tasks {
		if task.interval == 0 && task.delay == delay {
			if found != nil {
				f.mutex.Unlock()
				t.Fatalf("Multiple pending one-shot tasks with delay %v", delay)
			}
			found = task
			foundID = id
		}
	}
	if found == nil {
		f.mutex.Unlock()
		t.Fatalf("No pending one-shot task with delay %v", delay)
	}
	delete(f.tasks, foundID)
	f.mutex.Unlock()
	found.callback()
}

// callbackOf snapshots a pending callback without removing it.
func (f *fakeScheduler) callbackOf(t *testing.T, delay time.Duration) func() {
	t.Helper()
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, task := range f.tasks {
		if task.interval == 0 && task.delay == delay {
			return task.callback
		}
	}
	t.Fatalf("No pending one-shot task with delay %v", delay)
	return nil
}

// nopBroadcaster discards every event.
type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastToRoom(roomCode string, msgID uint16, data []byte) error { return nil }
func (nopBroadcaster) SendToConnection(connID string, msgID uint16, data []byte) error  { return nil }

type fixture struct {
	cfg       *config.Config
	scheduler *fakeScheduler
	rooms     *room.Manager
	limiter   *ratelimit.Limiter
	ledger    *Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cfg:       config.Default(),
		scheduler: newFakeScheduler(),
	}
	f.rooms = room.NewManager(f.cfg, f.scheduler)
	f.rooms.SetBroadcaster(nopBroadcaster{})
	f.limiter = ratelimit.NewLimiter(
		ratelimit.Limit{MaxCount: 1, Window: time.Hour},
		ratelimit.Limit{MaxCount: 1, Window: time.Hour},
		ratelimit.Limit{MaxCount: 1, Window: time.Hour},
	)
	f.ledger = NewLedger(f.rooms, f.scheduler, f.limiter, f.cfg.Game.ReconnectGrace)
	return f
}

// newPair seats two players in a new room, leaving it in COIN_FLIP.
func (f *fixture) newPair(t *testing.T) *room.Room {
	t.Helper()
	r, err := f.rooms.CreateRoom("conn1")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if _, _, err := f.rooms.JoinRoom(r.Code, "conn2"); err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}
	return r
}

func TestLedger_ResumeRebindsSeat(t *testing.T) {
	f := newFixture(t)
	r := f.newPair(t)

	f.ledger.OnDisconnect("conn2", r.Code)
	if f.ledger.PendingCount() != 1 {
		t.Fatalf("Expected 1 pending record, got %d", f.ledger.PendingCount())
	}

	playerNumber, err := f.ledger.Resume("conn2", r.Code, "conn9")
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if playerNumber != 2 {
		t.Errorf("Resume should preserve player number 2, got %d", playerNumber)
	}
	if f.ledger.PendingCount() != 0 {
		t.Errorf("Resumed record should be gone, got %d pending", f.ledger.PendingCount())
	}
	if r.ParticipantCount() != 2 {
		t.Errorf("Seat must survive the reconnect, got %d participants", r.ParticipantCount())
	}
}

func TestLedger_ResumeWrongRoomCode(t *testing.T) {
	f := newFixture(t)
	r := f.newPair(t)

	f.ledger.OnDisconnect("conn2", r.Code)

	if _, err := f.ledger.Resume("conn2", "ZZZZZZ", "conn9"); !errors.Is(err, room.ErrReconnectUnknown) {
		t.Errorf("Expected ErrReconnectUnknown for a mismatched code, got %v", err)
	}
	if f.ledger.PendingCount() != 1 {
		t.Error("A failed resume must leave the record pending")
	}
}

func TestLedger_ResumeUnknownIdentity(t *testing.T) {
	f := newFixture(t)
	r := f.newPair(t)

	if _, err := f.ledger.Resume("ghost", r.Code, "conn9"); !errors.Is(err, room.ErrReconnectUnknown) {
		t.Errorf("Expected ErrReconnectUnknown, got %v", err)
	}
}

func TestLedger_ExpiryReleasesSeat(t *testing.T) {
	f := newFixture(t)
	r := f.newPair(t)

	// Burn the prior identity's rate budget so Forget is observable.
	f.limiter.Allow("conn2", ratelimit.CategoryOther)

	f.ledger.OnDisconnect("conn2", r.Code)
	f.scheduler.fireOneShot(t, f.cfg.Game.ReconnectGrace)

	if f.ledger.PendingCount() != 0 {
		t.Errorf("Expired record should be gone, got %d pending", f.ledger.PendingCount())
	}
	if r.ParticipantCount() != 1 {
		t.Errorf("Expiry should release the seat, got %d participants", r.ParticipantCount())
	}
	if _, err := f.ledger.Resume("conn2", r.Code, "conn9"); !errors.Is(err, room.ErrReconnectUnknown) {
		t.Errorf("Resume after expiry should fail, got %v", err)
	}
	if !f.limiter.Allow("conn2", ratelimit.CategoryOther) {
		t.Error("Expiry should purge the identity's rate-limit state")
	}
}

func TestLedger_RepeatDisconnectReplacesRecord(t *testing.T) {
	f := newFixture(t)
	r := f.newPair(t)

	f.ledger.OnDisconnect("conn2", r.Code)
	staleExpire := f.scheduler.callbackOf(t, f.cfg.Game.ReconnectGrace)

	// The participant comes back and drops again before the window closed.
	if _, err := f.ledger.Resume("conn2", r.Code, "conn9"); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	f.ledger.OnDisconnect("conn9", r.Code)
	if f.ledger.PendingCount() != 1 {
		t.Fatalf("Expected exactly 1 pending record, got %d", f.ledger.PendingCount())
	}

	// The first window's expiry was superseded and must not touch the seat.
	staleExpire()
	if r.ParticipantCount() != 2 {
		t.Errorf("Stale expiry must be a no-op, got %d participants", r.ParticipantCount())
	}
	if f.ledger.PendingCount() != 1 {
		t.Errorf("Stale expiry must not purge the live record, got %d", f.ledger.PendingCount())
	}
}

func TestLedger_DisconnectOfStranger(t *testing.T) {
	f := newFixture(t)
	r := f.newPair(t)

	f.ledger.OnDisconnect("ghost", r.Code)
	if f.ledger.PendingCount() != 0 {
		t.Error("A connection without a seat must not get a grace window")
	}
}
