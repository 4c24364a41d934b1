package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"risewith9-sales-api/internal/model"
)

// MySQLBuyerRepository implements BuyerRepository and BuilderRepository
// using MySQL, for deployments where the buyer registry lives in the shared
// sales database.
type MySQLBuyerRepository struct {
	db *sql.DB
}

// NewMySQLBuyerRepository creates a new MySQL buyer repository around an
// existing connection pool.
func NewMySQLBuyerRepository(db *sql.DB) *MySQLBuyerRepository {
	return &MySQLBuyerRepository{db: db}
}

// EnsureTables creates the buyers and builders tables if they do not exist.
func (r *MySQLBuyerRepository) EnsureTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS buyers (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(64) NOT NULL,
			assigned_unit_id VARCHAR(64),
			access_code VARCHAR(32) NOT NULL DEFAULT '',
			code_generated_at DATETIME NULL,
			INDEX idx_buyers_email (email)
		)`,
		`CREATE TABLE IF NOT EXISTS builders (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			is_disabled TINYINT(1) NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, q := range queries {
		if _, err := r.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// ListBuyers returns every registered buyer.
func (r *MySQLBuyerRepository) ListBuyers(ctx context.Context) ([]model.Buyer, error) {
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
func (r *MySQLBuyerRepository) GetBuyer(ctx context.Context, id string) (*model.Buyer, error) {
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
func (r *MySQLBuyerRepository) CreateBuyer(ctx context.Context, b *model.Buyer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO buyers (id, name, email, phone, assigned_unit_id) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Email, b.Phone, b.AssignedUnitID)
	if err != nil {
		return fmt.Errorf("failed to create buyer: %w", err)
	}
	return nil
}

// UpdateBuyer updates name, email, phone and assigned unit.
func (r *MySQLBuyerRepository) UpdateBuyer(ctx context.Context, b *model.Buyer) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE buyers SET name = ?, email = ?, phone = ?, assigned_unit_id = ? WHERE id = ?`,
		b.Name, b.Email, b.Phone, b.AssignedUnitID, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update buyer: %w", err)
	}
	return requireAffected(result)
}

// DeleteBuyer removes a buyer by ID.
func (r *MySQLBuyerRepository) DeleteBuyer(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM buyers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete buyer: %w", err)
	}
	return requireAffected(result)
}

// SetAccessCode records the buyer's single current access code.
func (r *MySQLBuyerRepository) SetAccessCode(ctx context.Context, buyerID, code string, generatedAt int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE buyers SET access_code = ?, code_generated_at = ? WHERE id = ?`,
		code, time.UnixMilli(generatedAt).UTC(), buyerID)
	if err != nil {
		return fmt.Errorf("failed to set access code: %w", err)
	}
	return requireAffected(result)
}

// ClearAccessCode removes the buyer's current access code reference.
func (r *MySQLBuyerRepository) ClearAccessCode(ctx context.Context, buyerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE buyers SET access_code = '', code_generated_at = NULL WHERE id = ?`, buyerID)
	if err != nil {
		return fmt.Errorf("failed to clear access code: %w", err)
	}
	return nil
}

// ListBuyersWithCodes returns buyers that currently hold a code.
func (r *MySQLBuyerRepository) ListBuyersWithCodes(ctx context.Context) ([]model.Buyer, error) {
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
func (r *MySQLBuyerRepository) GetBuilderByEmail(ctx context.Context, email string) (*model.Builder, error) {
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

// CreateBuilder inserts a builder account if the email is not taken.
func (r *MySQLBuyerRepository) CreateBuilder(ctx context.Context, email, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO builders (email, password_hash) VALUES (?, ?)`,
		email, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}
	return nil
}

// Close is a no-op; the connection pool is owned by the caller.
func (r *MySQLBuyerRepository) Close() error {
	return nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ensure interfaces are implemented
var (
	_ BuyerRepository   = (*MySQLBuyerRepository)(nil)
	_ BuilderRepository = (*MySQLBuyerRepository)(nil)
)
