// room/manager.go
package room

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/DDMaster24/doodle-duals/config"
	"github.com/DDMaster24/doodle-duals/logger"
	"github.com/DDMaster24/doodle-duals/network"
	"github.com/DDMaster24/doodle-duals/rules"
)

const (
	codeCharset     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts = 1000
)

// Manager is the room registry. It exclusively owns room lifetime: rooms are
// created here and destroyed here, and the code-to-room map is the only state
// shared across rooms.
type Manager struct {
	rooms       map[string]*Room
	mutex       sync.RWMutex
	cfg         *config.Config
	scheduler   Scheduler
	broadcaster Broadcaster
	recorder    Recorder
}

func NewManager(cfg *config.Config, scheduler Scheduler) *Manager {
	return &Manager{
		rooms:     make(map[string]*Room),
		cfg:       cfg,
		scheduler: scheduler,
		recorder:  NopRecorder{},
	}
}

// SetBroadcaster wires the outbound channel. Must be called before the first
// room is created; the broadcaster needs the manager to exist first.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.broadcaster = b
}

func (m *Manager) SetRecorder(rec Recorder) {
	if rec != nil {
		m.recorder = rec
	}
}

// generateCode picks an unused room code. Caller holds m.mutex. Exhausting
// the attempts means the identifier space is effectively full, which is a
// service-level failure, not a per-room one.
func (m *Manager) generateCode() (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		b := make([]byte, rules.RoomCodeLength)
		for i := range b {
			b[i] = codeCharset[rand.Intn(len(codeCharset))]
		}
		code := string(b)
		if _, exists := m.rooms[code]; !exists {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// CreateRoom makes a new WAITING room with the creator seated as player 1.
func (m *Manager) CreateRoom(connID string) (*Room, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	code, err := m.generateCode()
	if err != nil {
		return nil, err
	}

	r := newRoom(code, m)
	r.participants = append(r.participants, newParticipant(connID, 1, m.cfg.Game.BlocksPerType))
	m.rooms[code] = r

	logger.Log.Infow("room created", "room", code, "conn", connID)
	return r, nil
}

// JoinRoom seats a connection in an existing room. The second join triggers
// the coin flip.
func (m *Manager) JoinRoom(code, connID string) (*Room, int, error) {
	if !rules.ValidRoomCode(code) {
		return nil, 0, ErrMalformedCode
	}
	code = strings.ToUpper(code)

	r, exists := m.Get(code)
	if !exists {
		return nil, 0, ErrRoomNotFound
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.destroyed {
		return nil, 0, ErrRoomNotFound
	}
	if len(r.participants) >= 2 {
		return nil, 0, ErrRoomFull
	}

	playerNumber := len(r.participants) + 1
	r.participants = append(r.participants, newParticipant(connID, playerNumber, m.cfg.Game.BlocksPerType))

	r.broadcastEvent(network.MsgTypePlayerJoined, network.PlayerJoinedEvent{
		PlayersCount: len(r.participants),
	})
	logger.Log.Infow("player joined", "room", code, "conn", connID, "player", playerNumber)

	if len(r.participants) == 2 {
		r.startCoinFlipLocked()
	}
	return r, playerNumber, nil
}

// Get looks up a live room. Codes are stored upper-case.
func (m *Manager) Get(code string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	r, exists := m.rooms[strings.ToUpper(code)]
	return r, exists
}

// RemoveParticipant takes a participant out of a room for good. A room left
// with zero participants is destroyed on the spot, timers included. The
// remaining participant, if any, gets the final departure notice.
func (m *Manager) RemoveParticipant(code, connID string) {
	r, exists := m.Get(code)
	if !exists {
		return
	}

	r.mutex.Lock()
	var removed *Participant
	for i, p := range r.participants {
		if p.ConnID == connID {
			removed = p
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			break
		}
	}
	empty := len(r.participants) == 0
	if removed != nil && !empty {
		r.broadcastEvent(network.MsgTypePlayerLeft, network.PlayerLeftEvent{
			PlayerNumber: removed.PlayerNumber,
		})
	}
	if empty {
		r.teardownLocked()
	}
	r.mutex.Unlock()

	if empty {
		m.mutex.Lock()
		delete(m.rooms, r.Code)
		m.mutex.Unlock()
		logger.Log.Infow("room destroyed", "room", r.Code)
	}
}

// fireTimer is the landing point for every scheduled callback. The room is
// re-resolved by code, so a timer outliving its room is harmless, and the
// generation check under the room lock makes canceled timers inert even if
// the scheduler already dispatched them.
func (m *Manager) fireTimer(code string, kind timerKind, generation uint64) {
	r, exists := m.Get(code)
	if !exists {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	h := &r.timers[kind]
	if r.destroyed || !h.active || h.generation != generation {
		return
	}
	if kind != timerSync {
		h.active = false
	}
	r.onTimerFired(kind)
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// Shutdown tears down every room.
func (m *Manager) Shutdown() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for code, r := range m.rooms {
		r.mutex.Lock()
		r.teardownLocked()
		r.mutex.Unlock()
		delete(m.rooms, code)
	}
}
