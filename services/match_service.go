// services/match_service.go
package services

import (
	"github.com/DDMaster24/doodle-duals/logger"
	"github.com/DDMaster24/doodle-duals/models"
	"github.com/DDMaster24/doodle-duals/persistence"
)

// MatchService archives finished matches and suspicious win claims. Writes
// happen off the caller's goroutine so room handlers never wait on the
// database.
type MatchService struct {
	db persistence.Database
}

func NewMatchService(db persistence.Database) *MatchService {
	return &MatchService{db: db}
}

func (s *MatchService) RecordMatch(record models.MatchRecord) {
	go func() {
		if err := s.db.SaveMatchRecord(record); err != nil {
			logger.Log.Errorw("failed to archive match", "room", record.RoomCode, "error", err)
		}
	}()
}

func (s *MatchService) RecordSuspiciousClaim(event models.SuspiciousEvent) {
	go func() {
		if err := s.db.SaveSuspiciousEvent(event); err != nil {
			logger.Log.Errorw("failed to archive suspicious claim", "room", event.RoomCode, "error", err)
		}
	}()
}

// RecentMatches is the read side used by the admin RPC.
func (s *MatchService) RecentMatches(limit int) ([]models.MatchRecord, error) {
	return s.db.RecentMatches(limit)
}

func (s *MatchService) CountMatches() (int64, error) {
	return s.db.CountMatches()
}
