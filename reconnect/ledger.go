// Package reconnect keeps the grace-window ledger for dropped participants.
//
// A record holds only (roomCode, playerNumber) plus the prior connection
// identity, never a room pointer. The room may die while the record is
// pending, so every action re-resolves the room through the registry.
package reconnect

import (
	"sync"
	"time"

	"github.com/DDMaster24/doodle-duals/logger"
	"github.com/DDMaster24/doodle-duals/ratelimit"
	"github.com/DDMaster24/doodle-duals/room"
)

// Record is one pending reconnection opportunity. Exactly one exists per
// disconnected participant; a second disconnect of the same logical
// participant replaces it.
type Record struct {
	PriorConnID    string
	RoomCode       string
	PlayerNumber   int
	DisconnectedAt time.Time

	generation uint64
	timerID    int64
}

// Ledger tracks recently-disconnected participants until they return or the
// grace window closes.
type Ledger struct {
	records   map[string]*Record // prior connection id -> record
	mutex     sync.Mutex
	rooms     *room.Manager
	scheduler room.Scheduler
	limiter   *ratelimit.Limiter
	grace     time.Duration
}

func NewLedger(rooms *room.Manager, scheduler room.Scheduler, limiter *ratelimit.Limiter, grace time.Duration) *Ledger {
	return &Ledger{
		records:   make(map[string]*Record),
		rooms:     rooms,
		scheduler: scheduler,
		limiter:   limiter,
		grace:     grace,
	}
}

// OnDisconnect opens a grace window for a participant whose transport died
// while still seated in a live room. The peer is told the departure may be
// temporary.
func (l *Ledger) OnDisconnect(connID, roomCode string) {
	r, exists := l.rooms.Get(roomCode)
	if !exists {
		return
	}
	playerNumber, seated := r.MarkDisconnected(connID)
	if !seated {
		return
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	rec, pending := l.records[connID]
	if pending {
		// Replace, not duplicate: invalidate the old expiry.
		rec.generation++
		l.scheduler.Cancel(rec.timerID)
	} else {
		rec = &Record{PriorConnID: connID}
		l.records[connID] = rec
	}
	rec.RoomCode = r.Code
	rec.PlayerNumber = playerNumber
	rec.DisconnectedAt = time.Now()
	rec.generation++

	gen := rec.generation
	rec.timerID = l.scheduler.Schedule(l.grace, 0, func() {
		l.expire(connID, gen)
	})

	logger.Log.Infow("grace window opened", "room", r.Code, "conn", connID, "player", playerNumber)
}

// Resume re-binds a returning participant to their seat. The record's room
// code must match the one named in the request; an unknown identity or a
// closed window yields room.ErrReconnectUnknown.
func (l *Ledger) Resume(priorConnID, roomCode, newConnID string) (int, error) {
	l.mutex.Lock()
	rec, pending := l.records[priorConnID]
	if !pending || rec.RoomCode != roomCode {
		l.mutex.Unlock()
		return 0, room.ErrReconnectUnknown
	}
	delete(l.records, priorConnID)
	rec.generation++
	l.scheduler.Cancel(rec.timerID)
	l.mutex.Unlock()

	r, exists := l.rooms.Get(rec.RoomCode)
	if !exists {
		return 0, room.ErrRoomNotFound
	}
	playerNumber, err := r.Rebind(priorConnID, newConnID)
	if err != nil {
		return 0, err
	}

	// The prior identity is gone for good now.
	l.limiter.Forget(priorConnID)

	logger.Log.Infow("participant resumed", "room", rec.RoomCode, "prior", priorConnID, "conn", newConnID)
	return playerNumber, nil
}

// expire fires when a grace window closes unused: the seat is released
// permanently and the peer gets the final departure notice.
func (l *Ledger) expire(priorConnID string, generation uint64) {
	l.mutex.Lock()
	rec, pending := l.records[priorConnID]
	if !pending || rec.generation != generation {
		l.mutex.Unlock()
		return
	}
	delete(l.records, priorConnID)
	l.mutex.Unlock()

	l.rooms.RemoveParticipant(rec.RoomCode, priorConnID)
	l.limiter.Forget(priorConnID)

	logger.Log.Infow("grace window expired", "room", rec.RoomCode, "conn", priorConnID, "player", rec.PlayerNumber)
}

// PendingCount is used by the admin surface.
func (l *Ledger) PendingCount() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.records)
}
