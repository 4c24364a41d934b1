package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"risewith9-sales-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteBuyerRepository implements BuyerRepository and BuilderRepository
// using SQLite. Buyers and builder accounts share one database file.
type SQLiteBuyerRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteBuyerRepository creates a new SQLite buyer repository.
func NewSQLiteBuyerRepository(dbPath string) (*SQLiteBuyerRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createBuyerTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteBuyerRepository] Initialized with database: %s", dbPath)
	return &SQLiteBuyerRepository{db: db}, nil
}

func createBuyerTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS buyers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		assigned_unit_id TEXT,
		access_code TEXT DEFAULT '',
		code_generated_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_buyers_email ON buyers(email);
	CREATE TABLE IF NOT EXISTS builders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT (datetime('now'))
	);
	`
	_, err := db.Exec(query)
	return err
}

func scanBuyer(scan func(dest ...interface{}) error) (*model.Buyer, error) {
	var b model.Buyer
	var assignedUnit sql.NullString
	var generatedAt sql.NullTime

	if err := scan(&b.ID, &b.Name, &b.Email, &b.Phone, &assignedUnit, &b.AccessCode, &generatedAt); err != nil {
		return nil, err
	}
	if assignedUnit.Valid {
		b.AssignedUnitID = &assignedUnit.String
	}
	if generatedAt.Valid {
		b.CodeGeneratedAt = &generatedAt.Time
	}
	return &b, nil
}

const buyerColumns = `id, name, email, phone, assigned_unit_id, access_code, code_generated_at`

// ListBuyers returns every registered buyer.
func (r *SQLiteBuyerRepository) ListBuyers(ctx context.Context) ([]model.Buyer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx, `SELECT `+buyerColumns+` FROM buyers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list buyers: %w", err)
	}
	defer rows.Close()

	var buyers []model.Buyer
	for rows.Next() {
		b, err := scanBuyer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan buyer: %w", err)
		}
		buyers = append(buyers, *b)
	}
	return buyers, rows.Err()
}

// GetBuyer retrieves a buyer by ID.
func (r *SQLiteBuyerRepository) GetBuyer(ctx context.Context, id string) (*model.Buyer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row := r.db.QueryRowContext(ctx, `SELECT `+buyerColumns+` FROM buyers WHERE id = ?`, id)
	b, err := scanBuyer(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get buyer: %w", err)
	}
	return b, nil
}

// CreateBuyer inserts a new buyer.
func (r *SQLiteBuyerRepository) CreateBuyer(ctx context.Context, b *model.Buyer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO buyers (id, name, email, phone, assigned_unit_id) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Email, b.Phone, b.AssignedUnitID)
	if err != nil {
		return fmt.Errorf("failed to create buyer: %w", err)
	}
	return nil
}

// UpdateBuyer updates name, email, phone and assigned unit.
func (r *SQLiteBuyerRepository) UpdateBuyer(ctx context.Context, b *model.Buyer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx,
		`UPDATE buyers SET name = ?, email = ?, phone = ?, assigned_unit_id = ? WHERE id = ?`,
		b.Name, b.Email, b.Phone, b.AssignedUnitID, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update buyer: %w", err)
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

// DeleteBuyer removes a buyer by ID.
func (r *SQLiteBuyerRepository) DeleteBuyer(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx, `DELETE FROM buyers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete buyer: %w", err)
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

// SetAccessCode records the buyer's single current access code.
func (r *SQLiteBuyerRepository) SetAccessCode(ctx context.Context, buyerID, code string, generatedAt int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx,
		`UPDATE buyers SET access_code = ?, code_generated_at = ? WHERE id = ?`,
		code, time.UnixMilli(generatedAt).UTC(), buyerID)
	if err != nil {
		return fmt.Errorf("failed to set access code: %w", err)
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

// ClearAccessCode removes the buyer's current access code reference.
func (r *SQLiteBuyerRepository) ClearAccessCode(ctx context.Context, buyerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`UPDATE buyers SET access_code = '', code_generated_at = NULL WHERE id = ?`, buyerID)
	if err != nil {
		return fmt.Errorf("failed to clear access code: %w", err)
	}
	return nil
}

// ListBuyersWithCodes returns buyers that currently hold a code.
func (r *SQLiteBuyerRepository) ListBuyersWithCodes(ctx context.Context) ([]model.Buyer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx, `SELECT `+buyerColumns+` FROM buyers WHERE access_code != ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to list buyers with codes: %w", err)
	}
	defer rows.Close()

	var buyers []model.Buyer
	for rows.Next() {
		b, err := scanBuyer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan buyer: %w", err)
		}
		buyers = append(buyers, *b)
	}
	return buyers, rows.Err()
}

// GetBuilderByEmail retrieves a builder account by email.
func (r *SQLiteBuyerRepository) GetBuilderByEmail(ctx context.Context, email string) (*model.Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b model.Builder
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, is_disabled, created_at FROM builders WHERE email = ?`,
		email).Scan(&b.ID, &b.Email, &b.PasswordHash, &b.IsDisabled, &b.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get builder: %w", err)
	}
	return &b, nil
}

// CreateBuilder inserts a builder account. Used by seeding and tests.
func (r *SQLiteBuyerRepository) CreateBuilder(ctx context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO builders (email, password_hash) VALUES (?, ?) ON CONFLICT(email) DO NOTHING`,
		email, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *SQLiteBuyerRepository) Close() error {
	return r.db.Close()
}

// Ensure interfaces are implemented
var (
	_ BuyerRepository   = (*SQLiteBuyerRepository)(nil)
	_ BuilderRepository = (*SQLiteBuyerRepository)(nil)
)
