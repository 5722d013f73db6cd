// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DDMaster24/doodle-duals/models"
)

// GormPostgreSQL is the GORM implementation of the match archive.
type GormPostgreSQL struct {
	db *gorm.DB
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormMatchRecord{}, &models.GormSuspiciousEvent{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (g *GormPostgreSQL) SaveMatchRecord(record models.MatchRecord) error {
	row := models.GormMatchRecord{
		RoomCode:   record.RoomCode,
		Winner:     record.Winner,
		Loser:      record.Loser,
		Shots:      record.Shots,
		DurationMs: record.Duration.Milliseconds(),
	}
	row.CreatedAt = record.EndedAt
	return g.db.Create(&row).Error
}

func (g *GormPostgreSQL) SaveSuspiciousEvent(event models.SuspiciousEvent) error {
	row := models.GormSuspiciousEvent{
		RoomCode:   event.RoomCode,
		Connection: event.Connection,
		Claimant:   event.Claimant,
		Loser:      event.Loser,
		Reason:     event.Reason,
	}
	row.CreatedAt = event.OccurredAt
	return g.db.Create(&row).Error
}

func (g *GormPostgreSQL) RecentMatches(limit int) ([]models.MatchRecord, error) {
	var rows []models.GormMatchRecord
	err := g.db.Order("created_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	records := make([]models.MatchRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.MatchRecord{
			RoomCode: row.RoomCode,
			Winner:   row.Winner,
			Loser:    row.Loser,
			Shots:    row.Shots,
			Duration: time.Duration(row.DurationMs) * time.Millisecond,
			EndedAt:  row.CreatedAt,
		})
	}
	return records, nil
}

func (g *GormPostgreSQL) CountMatches() (int64, error) {
	var count int64
	err := g.db.Model(&models.GormMatchRecord{}).Count(&count).Error
	return count, err
}

func (g *GormPostgreSQL) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
