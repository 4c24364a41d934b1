package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"risewith9-sales-api/internal/model"
)

// MemoryUnitRepository implements UnitRepository with an in-process map.
// This is the local-mock store variant; use it for development and tests.
type MemoryUnitRepository struct {
	mu    sync.RWMutex
	units map[string]model.Unit
}

// NewMemoryUnitRepository creates an empty in-memory unit repository.
func NewMemoryUnitRepository() *MemoryUnitRepository {
	return &MemoryUnitRepository{units: make(map[string]model.Unit)}
}

// ListUnits returns every unit, ordered by tower, floor, home.
func (r *MemoryUnitRepository) ListUnits(ctx context.Context) ([]model.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	units := make([]model.Unit, 0, len(r.units))
	for _, u := range r.units {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool {
		a, b := units[i], units[j]
		if a.Tower != b.Tower {
			return a.Tower < b.Tower
		}
		if a.Floor != b.Floor {
			return a.Floor < b.Floor
		}
		return a.Number < b.Number
	})
	return units, nil
}

// GetUnit retrieves a single unit by ID.
func (r *MemoryUnitRepository) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.units[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// SetUnitStatus sets a unit's status unconditionally.
func (r *MemoryUnitRepository) SetUnitStatus(ctx context.Context, id string, status model.UnitStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.units[id]
	if !ok {
		return ErrNotFound
	}
	u.Status = status
	r.units[id] = u
	return nil
}

// CountUnits returns the number of units in the inventory.
func (r *MemoryUnitRepository) CountUnits(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.units)), nil
}

// SeedUnits loads the initial inventory, skipping units that already exist.
func (r *MemoryUnitRepository) SeedUnits(ctx context.Context, units []model.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range units {
		if _, exists := r.units[u.ID]; !exists {
			r.units[u.ID] = u
		}
	}
	return nil
}

// Stats returns statistics about the unit inventory store.
func (r *MemoryUnitRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byStatus := make(map[string]int64)
	for _, u := range r.units {
		byStatus[string(u.Status)]++
	}
	return map[string]interface{}{
		"total_units": int64(len(r.units)),
		"by_status":   byStatus,
	}, nil
}

// Close is a no-op for the in-memory store.
func (r *MemoryUnitRepository) Close() error { return nil }

// MemoryBuyerRepository implements BuyerRepository and BuilderRepository
// with in-process maps.
type MemoryBuyerRepository struct {
	mu       sync.RWMutex
	buyers   map[string]model.Buyer
	builders map[string]model.Builder
}

// NewMemoryBuyerRepository creates an empty in-memory buyer repository.
func NewMemoryBuyerRepository() *MemoryBuyerRepository {
	return &MemoryBuyerRepository{
		buyers:   make(map[string]model.Buyer),
		builders: make(map[string]model.Builder),
	}
}

// ListBuyers returns every registered buyer.
func (r *MemoryBuyerRepository) ListBuyers(ctx context.Context) ([]model.Buyer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	buyers := make([]model.Buyer, 0, len(r.buyers))
	for _, b := range r.buyers {
		buyers = append(buyers, b)
	}
	sort.Slice(buyers, func(i, j int) bool { return buyers[i].Name < buyers[j].Name })
	return buyers, nil
}

// GetBuyer retrieves a buyer by ID.
func (r *MemoryBuyerRepository) GetBuyer(ctx context.Context, id string) (*model.Buyer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.buyers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

// CreateBuyer inserts a new buyer.
func (r *MemoryBuyerRepository) CreateBuyer(ctx context.Context, b *model.Buyer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buyers[b.ID] = *b
	return nil
}

// UpdateBuyer updates name, email, phone and assigned unit.
func (r *MemoryBuyerRepository) UpdateBuyer(ctx context.Context, b *model.Buyer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.buyers[b.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = b.Name
	existing.Email = b.Email
	existing.Phone = b.Phone
	existing.AssignedUnitID = b.AssignedUnitID
	r.buyers[b.ID] = existing
	return nil
}

// DeleteBuyer removes a buyer by ID.
func (r *MemoryBuyerRepository) DeleteBuyer(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.buyers[id]; !ok {
		return ErrNotFound
	}
	delete(r.buyers, id)
	return nil
}

// SetAccessCode records the buyer's single current access code.
func (r *MemoryBuyerRepository) SetAccessCode(ctx context.Context, buyerID, code string, generatedAt int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buyers[buyerID]
	if !ok {
		return ErrNotFound
	}
	t := time.UnixMilli(generatedAt).UTC()
	b.AccessCode = code
	b.CodeGeneratedAt = &t
	r.buyers[buyerID] = b
	return nil
}

// ClearAccessCode removes the buyer's current access code reference.
func (r *MemoryBuyerRepository) ClearAccessCode(ctx context.Context, buyerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buyers[buyerID]
	if !ok {
		return nil
	}
	b.AccessCode = ""
	b.CodeGeneratedAt = nil
	r.buyers[buyerID] = b
	return nil
}

// ListBuyersWithCodes returns buyers that currently hold a code.
func (r *MemoryBuyerRepository) ListBuyersWithCodes(ctx context.Context) ([]model.Buyer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var buyers []model.Buyer
	for _, b := range r.buyers {
		if b.AccessCode != "" {
			buyers = append(buyers, b)
		}
	}
	return buyers, nil
}

// GetBuilderByEmail retrieves a builder account by email.
func (r *MemoryBuyerRepository) GetBuilderByEmail(ctx context.Context, email string) (*model.Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.builders[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

// PutBuilder stores a builder account. Used by seeding and tests.
func (r *MemoryBuyerRepository) PutBuilder(b model.Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[b.Email] = b
}

// CreateBuilder inserts a builder account if the email is not taken.
func (r *MemoryBuyerRepository) CreateBuilder(ctx context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[email]; exists {
		return nil
	}
	r.builders[email] = model.Builder{
		ID:           int64(len(r.builders) + 1),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (r *MemoryBuyerRepository) Close() error { return nil }

// MemoryVisitRepository implements VisitRepository with an in-process slice.
type MemoryVisitRepository struct {
	mu     sync.RWMutex
	events []model.VisitEvent
}

// NewMemoryVisitRepository creates an empty in-memory visit repository.
func NewMemoryVisitRepository() *MemoryVisitRepository {
	return &MemoryVisitRepository{}
}

// BatchInsertVisits inserts multiple visit events.
func (r *MemoryVisitRepository) BatchInsertVisits(ctx context.Context, events []model.VisitEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// GetRoomStats returns per-room visit counts and average times.
func (r *MemoryVisitRepository) GetRoomStats(ctx context.Context) ([]model.VisitData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type agg struct {
		visits int64
		total  float64
	}
	rooms := make(map[string]*agg)
	for _, e := range r.events {
		a, ok := rooms[e.Room]
		if !ok {
			a = &agg{}
			rooms[e.Room] = a
		}
		a.visits++
		a.total += e.Minutes
	}

	stats := make([]model.VisitData, 0, len(rooms))
	for name, a := range rooms {
		stats = append(stats, model.VisitData{
			Name:    name,
			Visits:  a.visits,
			AvgTime: a.total / float64(a.visits),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Visits > stats[j].Visits })
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (r *MemoryVisitRepository) Close() error { return nil }

// Ensure interfaces are implemented
var (
	_ UnitRepository    = (*MemoryUnitRepository)(nil)
	_ BuyerRepository   = (*MemoryBuyerRepository)(nil)
	_ BuilderRepository = (*MemoryBuyerRepository)(nil)
	_ VisitRepository   = (*MemoryVisitRepository)(nil)
)
