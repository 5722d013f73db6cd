// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/DDMaster24/doodle-duals/models"
)

// PostgreSQL is the raw database/sql implementation of the match archive.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(100)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	p := &PostgreSQL{db: db}
	if err := p.createTables(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PostgreSQL) createTables() error {
	_, err := p.db.Exec(`
        CREATE TABLE IF NOT EXISTS match_records (
            id SERIAL PRIMARY KEY,
            room_code VARCHAR(6) NOT NULL,
            winner INT NOT NULL,
            loser INT NOT NULL,
            shots INT NOT NULL DEFAULT 0,
            duration_ms BIGINT NOT NULL DEFAULT 0,
            ended_at TIMESTAMP NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = p.db.Exec(`
        CREATE TABLE IF NOT EXISTS suspicious_events (
            id SERIAL PRIMARY KEY,
            room_code VARCHAR(6) NOT NULL,
            connection VARCHAR(64) NOT NULL,
            claimant INT NOT NULL,
            loser INT NOT NULL,
            reason TEXT NOT NULL,
            occurred_at TIMESTAMP NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = p.db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_match_records_room_code ON match_records(room_code);
        CREATE INDEX IF NOT EXISTS idx_match_records_ended_at ON match_records(ended_at);
        CREATE INDEX IF NOT EXISTS idx_suspicious_events_room_code ON suspicious_events(room_code);
    `)
	return err
}

func (p *PostgreSQL) SaveMatchRecord(record models.MatchRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO match_records (room_code, winner, loser, shots, duration_ms, ended_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := p.db.ExecContext(ctx, query,
		record.RoomCode, record.Winner, record.Loser,
		record.Shots, record.Duration.Milliseconds(), record.EndedAt)
	return err
}

func (p *PostgreSQL) SaveSuspiciousEvent(event models.SuspiciousEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO suspicious_events (room_code, connection, claimant, loser, reason, occurred_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := p.db.ExecContext(ctx, query,
		event.RoomCode, event.Connection, event.Claimant,
		event.Loser, event.Reason, event.OccurredAt)
	return err
}

func (p *PostgreSQL) RecentMatches(limit int) ([]models.MatchRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        SELECT room_code, winner, loser, shots, duration_ms, ended_at
        FROM match_records ORDER BY ended_at DESC LIMIT $1
    `
	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MatchRecord
	for rows.Next() {
		var rec models.MatchRecord
		var durationMs int64
		if err := rows.Scan(&rec.RoomCode, &rec.Winner, &rec.Loser, &rec.Shots, &durationMs, &rec.EndedAt); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (p *PostgreSQL) CountMatches() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int64
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM match_records`).Scan(&count)
	return count, err
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
