package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	"risewith9-sales-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteVisitRepository implements VisitRepository using SQLite.
type SQLiteVisitRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteVisitRepository creates a new SQLite visit repository.
func NewSQLiteVisitRepository(dbPath string) (*SQLiteVisitRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	query := `
	CREATE TABLE IF NOT EXISTS tour_visits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		buyer_id TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		room TEXT NOT NULL,
		minutes REAL NOT NULL,
		visited_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tour_visits_room ON tour_visits(room);
	CREATE INDEX IF NOT EXISTS idx_tour_visits_visited_at ON tour_visits(visited_at);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteVisitRepository] Initialized with database: %s", dbPath)
	return &SQLiteVisitRepository{db: db}, nil
}

// BatchInsertVisits inserts multiple visit events efficiently.
func (r *SQLiteVisitRepository) BatchInsertVisits(ctx context.Context, events []model.VisitEvent) error {
	if len(events) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tour_visits (session_id, buyer_id, unit_id, room, minutes, visited_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.SessionID, e.BuyerID, e.UnitID, e.Room, e.Minutes, e.VisitedAt); err != nil {
			return fmt.Errorf("failed to insert visit for %s: %w", e.Room, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRoomStats returns per-room visit counts and average times.
func (r *SQLiteVisitRepository) GetRoomStats(ctx context.Context) ([]model.VisitData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT room, COUNT(*), AVG(minutes) FROM tour_visits GROUP BY room ORDER BY COUNT(*) DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get room stats: %w", err)
	}
	defer rows.Close()

	var stats []model.VisitData
	for rows.Next() {
		var v model.VisitData
		if err := rows.Scan(&v.Name, &v.Visits, &v.AvgTime); err != nil {
			return nil, fmt.Errorf("failed to scan room stats: %w", err)
		}
		stats = append(stats, v)
	}
	return stats, rows.Err()
}

// Close closes the database connection.
func (r *SQLiteVisitRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteVisitRepository implements VisitRepository
var _ VisitRepository = (*SQLiteVisitRepository)(nil)
