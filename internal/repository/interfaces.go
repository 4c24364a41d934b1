package repository

import (
	"context"
	"errors"

	"risewith9-sales-api/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// UnitRepository defines unit inventory data access methods.
type UnitRepository interface {
	// ListUnits returns every unit, ordered by tower, floor, home.
	ListUnits(ctx context.Context) ([]model.Unit, error)

	// GetUnit retrieves a single unit by its "tower-floor-home" ID.
	GetUnit(ctx context.Context, id string) (*model.Unit, error)

	// SetUnitStatus sets a unit's status unconditionally. Any status may
	// move to any other; applying the same status twice is a no-op.
	SetUnitStatus(ctx context.Context, id string, status model.UnitStatus) error

	// CountUnits returns the number of units in the inventory.
	CountUnits(ctx context.Context) (int64, error)

	// SeedUnits loads the initial inventory. Implementations ignore units
	// that already exist; units are never deleted after load.
	SeedUnits(ctx context.Context, units []model.Unit) error

	// Stats returns statistics about the unit inventory store.
	Stats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}

// BuyerRepository defines buyer registry data access methods.
type BuyerRepository interface {
	// ListBuyers returns every registered buyer.
	ListBuyers(ctx context.Context) ([]model.Buyer, error)

	// GetBuyer retrieves a buyer by ID. Returns ErrNotFound if missing.
	GetBuyer(ctx context.Context, id string) (*model.Buyer, error)

	// CreateBuyer inserts a new buyer.
	CreateBuyer(ctx context.Context, b *model.Buyer) error

	// UpdateBuyer updates name, email, phone and assigned unit.
	UpdateBuyer(ctx context.Context, b *model.Buyer) error

	// DeleteBuyer removes a buyer by ID.
	DeleteBuyer(ctx context.Context, id string) error

	// SetAccessCode records the buyer's single current access code,
	// replacing any prior one.
	SetAccessCode(ctx context.Context, buyerID, code string, generatedAt int64) error

	// ClearAccessCode removes the buyer's current access code reference.
	ClearAccessCode(ctx context.Context, buyerID string) error

	// ListBuyersWithCodes returns buyers that currently hold a code.
	ListBuyersWithCodes(ctx context.Context) ([]model.Buyer, error)

	// Close closes the repository connection.
	Close() error
}

// BuilderRepository defines builder account access for authentication.
type BuilderRepository interface {
	// GetBuilderByEmail retrieves a builder account by email.
	GetBuilderByEmail(ctx context.Context, email string) (*model.Builder, error)
}

// VisitRepository defines tour visit analytics data access methods.
type VisitRepository interface {
	// BatchInsertVisits inserts multiple visit events efficiently.
	BatchInsertVisits(ctx context.Context, events []model.VisitEvent) error

	// GetRoomStats returns per-room visit counts and average times.
	GetRoomStats(ctx context.Context) ([]model.VisitData, error)

	// Close closes the repository connection.
	Close() error
}
