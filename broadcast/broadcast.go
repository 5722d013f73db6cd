// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/DDMaster24/doodle-duals/session"
)

var (
	ErrConnectionNotFound = errors.New("connection not found")
)

// Broadcaster is the full outbound surface.
type Broadcaster interface {
	BroadcastToRoom(roomCode string, msgID uint16, data []byte) error
	SendToConnection(connID string, msgID uint16, data []byte) error
}

// RoomBroadcaster fans messages out to every live session bound to a room
// code. Membership is resolved through the session manager, never through
// the room itself, so rooms can broadcast while holding their own lock.
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomCode string, msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.GetByRoomCode(roomCode) {
		if err := s.Send(msgID, data); err != nil {
			// A dead connection is the transport's problem; keep going.
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) SendToConnection(connID string, msgID uint16, data []byte) error {
	s, exists := b.sessionManager.Get(connID)
	if !exists {
		return ErrConnectionNotFound
	}
	return s.Send(msgID, data)
}
