// models/models.go
package models

import (
	"time"
)

// MatchRecord is the archived outcome of one finished room.
type MatchRecord struct {
	RoomCode   string        `json:"room_code"`
	Winner     int           `json:"winner"`
	Loser      int           `json:"loser"`
	Placements [2]int        `json:"placements"` // objects placed per player
	Shots      int           `json:"shots"`
	Duration   time.Duration `json:"duration"`
	EndedAt    time.Time     `json:"ended_at"`
}

// SuspiciousEvent records a win claim the coordinator rejected as forged or
// malformed, for offline review.
type SuspiciousEvent struct {
	RoomCode   string    `json:"room_code"`
	Connection string    `json:"connection"`
	Claimant   int       `json:"claimant"`
	Loser      int       `json:"loser"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
