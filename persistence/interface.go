// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/DDMaster24/doodle-duals/models"
)

// Database is the match archive. Live room state is never stored here; the
// archive only receives finished matches and rejected win claims.
type Database interface {
	SaveMatchRecord(record models.MatchRecord) error
	SaveSuspiciousEvent(event models.SuspiciousEvent) error
	RecentMatches(limit int) ([]models.MatchRecord, error)
	CountMatches() (int64, error)
	Close() error
}

var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
