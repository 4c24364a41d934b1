package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"risewith9-sales-api/internal/model"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresUnitRepository implements UnitRepository using PostgreSQL.
type PostgresUnitRepository struct {
	db *sql.DB
}

// NewPostgresUnitRepository creates a new PostgreSQL unit repository.
func NewPostgresUnitRepository(dsn string) (*PostgresUnitRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	if err := createUnitTablesPostgres(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[PostgresUnitRepository] Initialized")
	return &PostgresUnitRepository{db: db}, nil
}

func createUnitTablesPostgres(db *sql.DB) error {
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
func (r *PostgresUnitRepository) ListUnits(ctx context.Context) ([]model.Unit, error) {
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
func (r *PostgresUnitRepository) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	query := `SELECT id, tower, floor, number, unit_type, sqft, price, status FROM units WHERE id = $1`

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
func (r *PostgresUnitRepository) SetUnitStatus(ctx context.Context, id string, status model.UnitStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE units SET status = $1 WHERE id = $2`, status, id)
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
func (r *PostgresUnitRepository) CountUnits(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM units`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count units: %w", err)
	}
	return count, nil
}

// SeedUnits loads the initial inventory, skipping units that already exist.
func (r *PostgresUnitRepository) SeedUnits(ctx context.Context, units []model.Unit) error {
	if len(units) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO units (id, tower, floor, number, unit_type, sqft, price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`)
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
func (r *PostgresUnitRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
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

	return stats, nil
}

// Close closes the database connection.
func (r *PostgresUnitRepository) Close() error {
	return r.db.Close()
}

// Ensure PostgresUnitRepository implements UnitRepository
var _ UnitRepository = (*PostgresUnitRepository)(nil)
