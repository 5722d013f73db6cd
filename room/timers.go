// room/timers.go
//
// Each room holds at most one live timer per kind. A handle pairs the
// scheduler task id with a generation counter; starting or canceling a kind
// bumps the generation under the room lock, so a callback that was already in
// flight when its timer was canceled finds a stale generation and does
// nothing. Callbacks capture the room code, never the room pointer, and
// re-resolve through the registry, which makes a fire after teardown a safe
// no-op as well.
package room

import (
	"time"

	"github.com/DDMaster24/doodle-duals/network"
)

type timerKind int

const (
	// timerPhase drives the coin-flip display delay and the build countdown;
	// those phases never overlap, so they share a handle.
	timerPhase timerKind = iota
	// timerTurn fires when the active player ran out of time.
	timerTurn
	// timerRotate fires after the post-shot flight delay.
	timerRotate
	// timerSync drives the periodic state broadcast while playing.
	timerSync
	numTimerKinds
)

type timerHandle struct {
	taskID     int64
	generation uint64
	active     bool
}

// startTimer arms kind, canceling any live timer of the same kind first.
// Caller holds the room lock.
func (r *Room) startTimer(kind timerKind, delay, interval time.Duration) {
	r.cancelTimer(kind)

	h := &r.timers[kind]
	h.generation++
	h.active = true

	gen := h.generation
	code := r.Code
	mgr := r.manager
	h.taskID = r.scheduler.Schedule(delay, interval, func() {
		mgr.fireTimer(code, kind, gen)
	})
}

// cancelTimer is idempotent: canceling an inactive or already-fired timer is
// a no-op. Caller holds the room lock.
func (r *Room) cancelTimer(kind timerKind) {
	h := &r.timers[kind]
	if !h.active {
		return
	}
	h.active = false
	h.generation++
	r.scheduler.Cancel(h.taskID)
}

// onTimerFired dispatches a verified fire. Caller (Manager.fireTimer) holds
// the room lock and has already matched the generation.
func (r *Room) onTimerFired(kind timerKind) {
	switch kind {
	case timerPhase:
		switch r.phase {
		case PhaseCoinFlip:
			r.startBuildingLocked()
		case PhaseBuilding:
			r.startPlayingLocked()
		}
	case timerTurn:
		r.rotateTurnLocked(network.TurnReasonTimeout)
	case timerRotate:
		r.rotateTurnLocked(network.TurnReasonShot)
	case timerSync:
		r.syncStateLocked()
	}
}
