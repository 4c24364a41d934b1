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

// SQLiteUnitRepository implements UnitRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteUnitRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteUnitRepository creates a new SQLite unit repository.
// dbPath is the path to the SQLite database file (e.g., "./data/sales.db")
func NewSQLiteUnitRepository(dbPath string) (*SQLiteUnitRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createUnitTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteUnitRepository] Initialized with database: %s", dbPath)
	return &SQLiteUnitRepository{db: db}, nil
}

func createUnitTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		tower TEXT NOT NULL,
		floor INTEGER NOT NULL,
		number TEXT NOT NULL,
		unit_type TEXT NOT NULL,
		sqft INTEGER NOT NULL,
		price TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Available'
	);
	CREATE INDEX IF NOT EXISTS idx_units_tower_floor ON units(tower, floor);
	CREATE INDEX IF NOT EXISTS idx_units_status ON units(status);
	`
	_, err := db.Exec(query)
	return err
}

// ListUnits returns every unit, ordered by tower, floor, home.
func (r *SQLiteUnitRepository) ListUnits(ctx context.Context) ([]model.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT id, tower, floor, number, unit_type, sqft, price, status
		FROM units ORDER BY tower, floor, number`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []model.Unit
	for rows.Next() {
		var u model.Unit
		if err := rows.Scan(&u.ID, &u.Tower, &u.Floor, &u.Number, &u.Type, &u.Sqft, &u.Price, &u.Status); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// GetUnit retrieves a single unit by ID.
func (r *SQLiteUnitRepository) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT id, tower, floor, number, unit_type, sqft, price, status FROM units WHERE id = ?`

	var u model.Unit
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Tower, &u.Floor, &u.Number, &u.Type, &u.Sqft, &u.Price, &u.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return &u, nil
}

// SetUnitStatus sets a unit's status unconditionally.
func (r *SQLiteUnitRepository) SetUnitStatus(ctx context.Context, id string, status model.UnitStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx, `UPDATE units SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set unit status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnits returns the number of units in the inventory.
func (r *SQLiteUnitRepository) CountUnits(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM units`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count units: %w", err)
	}
	return count, nil
}

// SeedUnits loads the initial inventory, skipping units that already exist.
func (r *SQLiteUnitRepository) SeedUnits(ctx context.Context, units []model.Unit) error {
	if len(units) == 0 {
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
		INSERT INTO units (id, tower, floor, number, unit_type, sqft, price, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, u := range units {
		if _, err := stmt.ExecContext(ctx, u.ID, u.Tower, u.Floor, u.Number, u.Type, u.Sqft, u.Price, u.Status); err != nil {
			return fmt.Errorf("failed to seed unit %s: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Stats returns statistics about the unit inventory store.
func (r *SQLiteUnitRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]interface{})

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM units`).Scan(&total); err != nil {
		return nil, err
	}
	stats["total_units"] = total

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM units GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byStatus := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		byStatus[status] = count
	}
	stats["by_status"] = byStatus

	var pageCount, pageSize int64
	r.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	r.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize

	return stats, nil
}

// Close closes the database connection.
func (r *SQLiteUnitRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteUnitRepository implements UnitRepository
var _ UnitRepository = (*SQLiteUnitRepository)(nil)
