// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormMatchRecord mirrors MatchRecord for the gorm-backed archive.
type GormMatchRecord struct {
	gorm.Model
	RoomCode   string `gorm:"index;not null"`
	Winner     int    `gorm:"not null"`
	Loser      int    `gorm:"not null"`
	Shots      int    `gorm:"default:0"`
	DurationMs int64  `gorm:"default:0"`
}

// GormSuspiciousEvent mirrors SuspiciousEvent.
type GormSuspiciousEvent struct {
	gorm.Model
	RoomCode   string `gorm:"index;not null"`
	Connection string `gorm:"not null"`
	Claimant   int    `gorm:"not null"`
	Loser      int    `gorm:"not null"`
	Reason     string `gorm:"not null"`
}
