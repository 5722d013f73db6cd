package room

import (
	"time"

	"github.com/DDMaster24/doodle-duals/models"
)

// Broadcaster delivers outbound events. Defined here to break the import
// cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomCode string, msgID uint16, data []byte) error
	SendToConnection(connID string, msgID uint16, data []byte) error
}

// Scheduler is the callback scheduler rooms hang their timers on. The timer
// package satisfies it. Cancel is best-effort; rooms verify handle
// generations under their own lock before acting on a fire.
type Scheduler interface {
	Schedule(delay, interval time.Duration, callback func()) int64
	Cancel(taskID int64)
}

// Recorder archives finished matches and suspicious win claims. Implementations
// must not block the caller.
type Recorder interface {
	RecordMatch(record models.MatchRecord)
	RecordSuspiciousClaim(event models.SuspiciousEvent)
}

// NopRecorder is used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) RecordMatch(models.MatchRecord)               {}
func (NopRecorder) RecordSuspiciousClaim(models.SuspiciousEvent) {}
