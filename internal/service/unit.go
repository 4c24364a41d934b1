package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"risewith9-sales-api/internal/model"
	"risewith9-sales-api/internal/repository"
)

var (
	// ErrInvalidStatus is returned for status values outside the enum.
	ErrInvalidStatus = errors.New("invalid unit status")

	// ErrNotToggleable is returned when toggling a Sold or Reserved unit.
	ErrNotToggleable = errors.New("only Available and Locked units can be toggled")
)

// UnitService exposes unit inventory operations to the dashboard.
type UnitService struct {
	repo    repository.UnitRepository
	insight *InsightService
}

// NewUnitService creates a new unit service.
func NewUnitService(repo repository.UnitRepository, insight *InsightService) *UnitService {
	return &UnitService{repo: repo, insight: insight}
}

// List returns the full inventory ordered by tower, floor and home.
func (s *UnitService) List(ctx context.Context) ([]model.Unit, error) {
	return s.repo.ListUnits(ctx)
}

// Get returns a single unit by ID.
func (s *UnitService) Get(ctx context.Context, id string) (*model.Unit, error) {
	return s.repo.GetUnit(ctx, id)
}

// SetStatus sets a unit's status to any valid value. Setting the current
// status again is a no-op.
func (s *UnitService) SetStatus(ctx context.Context, id string, status model.UnitStatus) (*model.Unit, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if err := s.repo.SetUnitStatus(ctx, id, status); err != nil {
		return nil, err
	}
	log.Printf("[UnitService] Unit %s status set to %s", id, status)
	return s.repo.GetUnit(ctx, id)
}

// Toggle flips a unit between Available and Locked.
func (s *UnitService) Toggle(ctx context.Context, id string) (*model.Unit, error) {
	unit, err := s.repo.GetUnit(ctx, id)
	if err != nil {
		return nil, err
	}

	var next model.UnitStatus
	switch unit.Status {
	case model.StatusAvailable:
		next = model.StatusLocked
	case model.StatusLocked:
		next = model.StatusAvailable
	default:
		return nil, ErrNotToggleable
	}

	if err := s.repo.SetUnitStatus(ctx, id, next); err != nil {
		return nil, err
	}
	unit.Status = next
	log.Printf("[UnitService] Unit %s toggled to %s", id, next)
	return unit, nil
}

// Describe generates a marketing description for a unit. The text is not
// persisted; the dashboard regenerates it on demand.
func (s *UnitService) Describe(ctx context.Context, id string) (*model.Unit, error) {
	unit, err := s.repo.GetUnit(ctx, id)
	if err != nil {
		return nil, err
	}
	unit.Description = s.insight.GenerateUnitDescription(ctx, unit)
	return unit, nil
}

// EnsureSeeded loads the initial inventory when the store is empty.
func (s *UnitService) EnsureSeeded(ctx context.Context, units []model.Unit) error {
	count, err := s.repo.CountUnits(ctx)
	if err != nil {
		return fmt.Errorf("failed to count units: %w", err)
	}
	if count > 0 {
		return nil
	}
	if err := s.repo.SeedUnits(ctx, units); err != nil {
		return fmt.Errorf("failed to seed units: %w", err)
	}
	log.Printf("[UnitService] Seeded %d units", len(units))
	return nil
}

// Stats returns statistics about the unit store.
func (s *UnitService) Stats(ctx context.Context) (map[string]interface{}, error) {
	return s.repo.Stats(ctx)
}
