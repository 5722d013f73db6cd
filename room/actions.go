// room/actions.go
package room

import (
	"errors"

	"github.com/google/uuid"

	"github.com/DDMaster24/doodle-duals/logger"
	"github.com/DDMaster24/doodle-duals/models"
	"github.com/DDMaster24/doodle-duals/network"
	"github.com/DDMaster24/doodle-duals/rules"
)

var (
	ErrMalformedCode      = errors.New("malformed room code")
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrNotInRoom          = errors.New("connection is not a participant of this room")
	ErrWrongPhase         = errors.New("action not allowed in current phase")
	ErrUnknownBlockType   = errors.New("unknown block type")
	ErrOutOfBounds        = errors.New("placement outside your area")
	ErrQuotaExhausted     = errors.New("no blocks of that type left")
	ErrDuplicateObjective = errors.New("objective already placed")
	ErrWrongTurn          = errors.New("not your turn")
	ErrSelfClaim          = errors.New("cannot claim your own objective")
	ErrNoObjective        = errors.New("named player has no objective")
	ErrNoRecentShot       = errors.New("no recent shot backs this claim")
	ErrReconnectUnknown   = errors.New("no such pending reconnection")
	ErrCodeSpaceExhausted = errors.New("room code space exhausted")
)

// RejectionClass maps a handler error to the outbound rejection code.
func RejectionClass(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrReconnectUnknown):
		return network.RejectNotFound
	case errors.Is(err, ErrSelfClaim), errors.Is(err, ErrNoObjective), errors.Is(err, ErrNoRecentShot):
		return network.RejectIntegrity
	default:
		return network.RejectValidation
	}
}

// HandleReady records a ready signal. Ready cannot be unset; a repeat is a
// no-op. Once both participants are ready during BUILDING the projectile
// phase starts early.
func (r *Room) HandleReady(connID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.destroyed {
		return ErrRoomNotFound
	}
	p := r.participantByConn(connID)
	if p == nil {
		return ErrNotInRoom
	}
	p.Ready = true

	if r.phase == PhaseBuilding && len(r.participants) == 2 {
		allReady := true
		for _, q := range r.participants {
			if !q.Ready {
				allReady = false
			}
		}
		if allReady {
			r.startPlayingLocked()
		}
	}
	return nil
}

// HandlePlaceBlock accepts a build-phase structure submission.
func (r *Room) HandlePlaceBlock(connID, typeName string, x, y float64) error {
	t, ok := rules.ParseBlockType(typeName)
	if !ok {
		return ErrUnknownBlockType
	}
	return r.place(connID, t, x, y)
}

// HandlePlaceTreasure accepts the single objective placement.
func (r *Room) HandlePlaceTreasure(connID string, x, y float64) error {
	return r.place(connID, rules.BlockTreasure, x, y)
}

func (r *Room) place(connID string, t rules.BlockType, x, y float64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.destroyed {
		return ErrRoomNotFound
	}
	p := r.participantByConn(connID)
	if p == nil {
		return ErrNotInRoom
	}
	if r.phase != PhaseBuilding {
		return ErrWrongPhase
	}
	if !rules.InsideArea(r.areaFor(p.PlayerNumber), t, x) {
		return ErrOutOfBounds
	}
	if p.Quota[t] <= 0 {
		if t == rules.BlockTreasure {
			return ErrDuplicateObjective
		}
		return ErrQuotaExhausted
	}

	p.Quota[t]--
	p.Placements = append(p.Placements, Placement{Type: t, X: x, Y: y})

	r.broadcastEvent(network.MsgTypeObjectPlaced, network.ObjectPlacedEvent{
		PlayerNumber: p.PlayerNumber,
		Type:         t.String(),
		X:            x,
		Y:            y,
	})
	return nil
}

// HandleShoot validates a shot by the active player. The turn timer is
// canceled before anything else so a timeout for the pre-shot turn can never
// fire afterwards; rotation happens after the flight delay, leaving the
// opponent's destruction claim room to arrive first.
func (r *Room) HandleShoot(connID string, originX, originY, velocityX, velocityY float64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.destroyed {
		return ErrRoomNotFound
	}
	p := r.participantByConn(connID)
	if p == nil {
		return ErrNotInRoom
	}
	if r.phase != PhasePlaying {
		return ErrWrongPhase
	}
	if p.PlayerNumber != r.activePlayer {
		return ErrWrongTurn
	}

	r.cancelTimer(timerTurn)

	now := r.now()
	r.pruneShotsLocked(now)
	shot := Shot{ID: uuid.NewString(), PlayerNumber: p.PlayerNumber, Timestamp: now}
	r.activeShots = append(r.activeShots, shot)

	r.broadcastEvent(network.MsgTypeShotFired, network.ShotFiredEvent{
		ShotID:       shot.ID,
		PlayerNumber: p.PlayerNumber,
		OriginX:      originX,
		OriginY:      originY,
		VelocityX:    velocityX,
		VelocityY:    velocityY,
	})

	r.startTimer(timerRotate, r.cfg.Game.ShotDelay, 0)
	return nil
}

// HandleClaimWin validates a win claim. The only server-side proof demanded
// is a live, recent, attributable shot by the claimant; trajectory and
// contact stay client-side. Claims arriving after GAME_OVER are ignored.
func (r *Room) HandleClaimWin(connID string, loser int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.destroyed {
		return ErrRoomNotFound
	}
	p := r.participantByConn(connID)
	if p == nil {
		return ErrNotInRoom
	}
	if r.phase == PhaseGameOver {
		return nil
	}
	if r.phase != PhasePlaying {
		return ErrWrongPhase
	}

	winner := p.PlayerNumber
	if err := r.validateClaimLocked(winner, loser); err != nil {
		r.flagSuspiciousLocked(connID, winner, loser, err)
		return err
	}

	r.cancelTimer(timerTurn)
	r.cancelTimer(timerRotate)
	r.cancelTimer(timerSync)

	if !r.transition(PhaseGameOver) {
		return nil
	}
	r.winner = winner
	p.Score++

	r.broadcastEvent(network.MsgTypeGameOver, network.GameOverEvent{Winner: winner})
	r.recordMatchLocked(winner, loser)
	return nil
}

func (r *Room) validateClaimLocked(winner, loser int) error {
	if loser == winner {
		return ErrSelfClaim
	}
	lp := r.participantByNumber(loser)
	if lp == nil || !lp.hasObjective() {
		return ErrNoObjective
	}

	now := r.now()
	r.pruneShotsLocked(now)
	// Boundary is accept-inclusive: a shot exactly one window old still
	// authorizes the claim.
	for _, s := range r.activeShots {
		if s.PlayerNumber == winner && now.Sub(s.Timestamp) <= r.cfg.Game.ShotValidityWindow {
			return nil
		}
	}
	return ErrNoRecentShot
}

func (r *Room) flagSuspiciousLocked(connID string, winner, loser int, cause error) {
	logger.Log.Warnw("suspicious win claim",
		"room", r.Code, "conn", connID, "claimant", winner, "loser", loser, "cause", cause)
	r.recorder.RecordSuspiciousClaim(models.SuspiciousEvent{
		RoomCode:   r.Code,
		Connection: connID,
		Claimant:   winner,
		Loser:      loser,
		Reason:     cause.Error(),
		OccurredAt: r.now(),
	})
}

func (r *Room) recordMatchLocked(winner, loser int) {
	rec := models.MatchRecord{
		RoomCode: r.Code,
		Winner:   winner,
		Loser:    loser,
		Shots:    len(r.activeShots),
		EndedAt:  r.now(),
	}
	if !r.startedAt.IsZero() {
		rec.Duration = rec.EndedAt.Sub(r.startedAt)
	}
	for _, p := range r.participants {
		if p.PlayerNumber >= 1 && p.PlayerNumber <= 2 {
			rec.Placements[p.PlayerNumber-1] = len(p.Placements)
		}
	}
	r.recorder.RecordMatch(rec)
}
