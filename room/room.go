// room/room.go
package room

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/DDMaster24/doodle-duals/config"
	"github.com/DDMaster24/doodle-duals/logger"
	"github.com/DDMaster24/doodle-duals/network"
	"github.com/DDMaster24/doodle-duals/rules"
)

// Phase is a room's stage in the match lifecycle.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseCoinFlip
	PhaseBuilding
	PhasePlaying
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseWaiting:  "waiting",
	PhaseCoinFlip: "coin_flip",
	PhaseBuilding: "building",
	PhasePlaying:  "playing",
	PhaseGameOver: "game_over",
}

func (p Phase) String() string {
	return phaseNames[p]
}

// validTransitions lists the only edges the phase machine may take.
// PhaseGameOver is terminal.
var validTransitions = map[Phase][]Phase{
	PhaseWaiting:  {PhaseCoinFlip},
	PhaseCoinFlip: {PhaseBuilding},
	PhaseBuilding: {PhasePlaying},
	PhasePlaying:  {PhaseGameOver},
}

// Participant is one seat in a room. PlayerNumber is assigned at join time
// and survives reconnection; ConnID is the transient connection identity.
type Participant struct {
	ConnID       string
	PlayerNumber int
	Ready        bool
	Connected    bool
	Quota        [rules.NumBlockTypes]int
	Placements   []Placement
	Score        int
}

// Placement is one accepted build-phase submission.
type Placement struct {
	Type rules.BlockType
	X    float64
	Y    float64
}

// Shot is the time-stamped proof that a player fired during their turn.
type Shot struct {
	ID           string
	PlayerNumber int
	Timestamp    time.Time
}

// maxShotRecords bounds activeShots independently of the validity window.
const maxShotRecords = 16

// Room is one isolated two-player match. All fields below the mutex are
// guarded by it; every event handler and timer callback for the room runs
// under it, which is what serializes the room's mutations.
type Room struct {
	Code      string
	CreatedAt time.Time

	manager     *Manager
	cfg         *config.Config
	scheduler   Scheduler
	broadcaster Broadcaster
	recorder    Recorder
	now         func() time.Time

	mutex          sync.Mutex
	phase          Phase
	participants   []*Participant
	startingPlayer int
	activePlayer   int
	activeShots    []Shot
	winner         int
	startedAt      time.Time
	destroyed      bool

	timers [numTimerKinds]timerHandle
}

func newRoom(code string, m *Manager) *Room {
	return &Room{
		Code:        code,
		CreatedAt:   time.Now(),
		manager:     m,
		cfg:         m.cfg,
		scheduler:   m.scheduler,
		broadcaster: m.broadcaster,
		recorder:    m.recorder,
		now:         time.Now,
	}
}

// transition moves the phase along a table edge. Off-table moves are refused,
// which makes PhaseGameOver provably terminal.
func (r *Room) transition(to Phase) bool {
	for _, allowed := range validTransitions[r.phase] {
		if allowed == to {
			logger.Log.Infow("room phase change", "room", r.Code, "from", r.phase.String(), "to", to.String())
			r.phase = to
			return true
		}
	}
	logger.Log.Warnw("refused phase change", "room", r.Code, "from", r.phase.String(), "to", to.String())
	return false
}

func (r *Room) participantByConn(connID string) *Participant {
	for _, p := range r.participants {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

func (r *Room) participantByNumber(n int) *Participant {
	for _, p := range r.participants {
		if p.PlayerNumber == n {
			return p
		}
	}
	return nil
}

func (r *Room) areaFor(playerNumber int) rules.Area {
	a := r.cfg.World.Player1Area
	if playerNumber == 2 {
		a = r.cfg.World.Player2Area
	}
	return rules.Area{X: a.X, Width: a.Width}
}

func newParticipant(connID string, playerNumber int, blocksPerType int) *Participant {
	p := &Participant{
		ConnID:       connID,
		PlayerNumber: playerNumber,
		Connected:    true,
	}
	for t := rules.BlockType(0); t < rules.NumBlockTypes; t++ {
		p.Quota[t] = blocksPerType
	}
	p.Quota[rules.BlockTreasure] = 1
	return p
}

func (p *Participant) hasObjective() bool {
	return p.Quota[rules.BlockTreasure] == 0
}

// broadcastEvent marshals payload and sends it to every participant.
func (r *Room) broadcastEvent(msgID uint16, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorw("failed to marshal event", "room", r.Code, "msg_id", msgID, "error", err)
		return
	}
	if err := r.broadcaster.BroadcastToRoom(r.Code, msgID, data); err != nil {
		logger.Log.Warnw("broadcast failed", "room", r.Code, "msg_id", msgID, "error", err)
	}
}

// startCoinFlipLocked runs when the second participant joins: pick the
// starting player, announce it, and schedule the advance to building after
// the display delay.
func (r *Room) startCoinFlipLocked() {
	if !r.transition(PhaseCoinFlip) {
		return
	}
	r.startingPlayer = 1 + rand.Intn(2)
	r.broadcastEvent(network.MsgTypeCoinFlipResult, network.CoinFlipResultEvent{
		FirstPlayer: r.startingPlayer,
	})
	r.startTimer(timerPhase, r.cfg.Game.CoinFlipDelay, 0)
}

func (r *Room) startBuildingLocked() {
	if !r.transition(PhaseBuilding) {
		return
	}
	r.broadcastEvent(network.MsgTypeBuildPhaseStart, network.BuildPhaseStartEvent{
		DurationMs:       r.cfg.Game.BuildPhaseDuration.Milliseconds(),
		AllowancePerType: r.cfg.Game.BlocksPerType,
	})
	r.startTimer(timerPhase, r.cfg.Game.BuildPhaseDuration, 0)
}

// startPlayingLocked enters the projectile phase. Reached either by build
// timer expiry or by both participants signalling ready; a room with zero
// placements is degenerate but valid.
func (r *Room) startPlayingLocked() {
	r.cancelTimer(timerPhase)
	if !r.transition(PhasePlaying) {
		return
	}
	r.activePlayer = r.startingPlayer
	r.startedAt = r.now()
	r.broadcastEvent(network.MsgTypeGamePhaseStart, network.GamePhaseStartEvent{
		ActivePlayer: r.activePlayer,
	})
	r.startTimer(timerTurn, r.cfg.Game.TurnDuration, 0)
	r.startTimer(timerSync, r.cfg.Game.SyncInterval, r.cfg.Game.SyncInterval)
}

func (r *Room) rotateTurnLocked(reason string) {
	if r.phase != PhasePlaying {
		return
	}
	r.activePlayer = 3 - r.activePlayer
	r.broadcastEvent(network.MsgTypeTurnChanged, network.TurnChangedEvent{
		ActivePlayer: r.activePlayer,
		Reason:       reason,
	})
	r.startTimer(timerTurn, r.cfg.Game.TurnDuration, 0)
}

func (r *Room) syncStateLocked() {
	if r.phase != PhasePlaying {
		r.cancelTimer(timerSync)
		return
	}
	var objectives [2]bool
	for _, p := range r.participants {
		if p.PlayerNumber >= 1 && p.PlayerNumber <= 2 {
			objectives[p.PlayerNumber-1] = p.hasObjective()
		}
	}
	r.broadcastEvent(network.MsgTypeStateSync, network.StateSyncEvent{
		Phase:             r.phase.String(),
		ActivePlayer:      r.activePlayer,
		ObjectivesPresent: objectives,
	})
}

// pruneShotsLocked drops shot records older than the validity window and
// keeps the set bounded.
func (r *Room) pruneShotsLocked(now time.Time) {
	window := r.cfg.Game.ShotValidityWindow
	kept := r.activeShots[:0]
	for _, s := range r.activeShots {
		if now.Sub(s.Timestamp) <= window {
			kept = append(kept, s)
		}
	}
	if len(kept) > maxShotRecords {
		kept = kept[len(kept)-maxShotRecords:]
	}
	r.activeShots = kept
}

// teardownLocked marks the room dead and cancels every timer. Pending fires
// become no-ops through the handle generations.
func (r *Room) teardownLocked() {
	r.destroyed = true
	for kind := timerKind(0); kind < numTimerKinds; kind++ {
		r.cancelTimer(kind)
	}
}

// MarkDisconnected flags the participant as gone and tells the peer the
// departure may be temporary. The participant keeps their seat until the
// reconnection ledger decides otherwise.
func (r *Room) MarkDisconnected(connID string) (int, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p := r.participantByConn(connID)
	if p == nil || r.destroyed {
		return 0, false
	}
	p.Connected = false
	r.broadcastEvent(network.MsgTypePlayerDisconnected, network.PlayerDisconnectedEvent{
		PlayerNumber:      p.PlayerNumber,
		ReconnectWindowMs: r.cfg.Game.ReconnectGrace.Milliseconds(),
	})
	return p.PlayerNumber, true
}

// Rebind re-attaches a returning participant under a fresh connection
// identity. Phase, placements, quotas and score are untouched.
func (r *Room) Rebind(priorConnID, newConnID string) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.destroyed {
		return 0, ErrRoomNotFound
	}
	p := r.participantByConn(priorConnID)
	if p == nil {
		return 0, ErrReconnectUnknown
	}
	p.ConnID = newConnID
	p.Connected = true
	r.broadcastEvent(network.MsgTypePlayerReconnected, network.PlayerReconnectedEvent{
		PlayerNumber: p.PlayerNumber,
	})
	return p.PlayerNumber, nil
}

// Snapshot-style accessors used by tests and the rpc surface.

func (r *Room) Phase() Phase {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.phase
}

func (r *Room) ActivePlayer() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.activePlayer
}

func (r *Room) StartingPlayer() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.startingPlayer
}

func (r *Room) Winner() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.winner
}

func (r *Room) ParticipantCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.participants)
}

func (r *Room) ShotCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.activeShots)
}

// ParticipantState returns the quota table, placement count and score for a
// player number.
func (r *Room) ParticipantState(playerNumber int) (quota [rules.NumBlockTypes]int, placements int, score int, ok bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	p := r.participantByNumber(playerNumber)
	if p == nil {
		return quota, 0, 0, false
	}
	return p.Quota, len(p.Placements), p.Score, true
}
