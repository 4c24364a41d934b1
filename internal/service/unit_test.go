package service

import (
	"context"
	"testing"

	"risewith9-sales-api/internal/model"
	"risewith9-sales-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnitFixture(t *testing.T) (*UnitService, *repository.MemoryUnitRepository) {
	t.Helper()

	repo := repository.NewMemoryUnitRepository()
	require.NoError(t, repo.SeedUnits(context.Background(), []model.Unit{
		{ID: "9 North-1-1", Tower: "9 North", Floor: 1, Number: "Home 1", Type: "3BHK", Sqft: 1850, Price: "$450,000", Status: model.StatusAvailable},
		{ID: "9 North-1-2", Tower: "9 North", Floor: 1, Number: "Home 2", Type: "4BHK", Sqft: 2400, Price: "$620,000", Status: model.StatusSold},
		{ID: "9 North-1-3", Tower: "9 North", Floor: 1, Number: "Home 3", Type: "3BHK", Sqft: 1850, Price: "$450,000", Status: model.StatusLocked},
	}))

	return NewUnitService(repo, NewInsightService("", "gpt-4o-mini")), repo
}

func TestUnitServiceSetStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUnitFixture(t)

	t.Run("any status can move to any other", func(t *testing.T) {
		for _, status := range []model.UnitStatus{
			model.StatusSold, model.StatusReserved, model.StatusLocked, model.StatusAvailable,
		} {
			unit, err := svc.SetStatus(ctx, "9 North-1-1", status)
			require.NoError(t, err)
			assert.Equal(t, status, unit.Status)
		}
	})

	t.Run("setting the same status twice is a no-op", func(t *testing.T) {
		first, err := svc.SetStatus(ctx, "9 North-1-1", model.StatusReserved)
		require.NoError(t, err)
		second, err := svc.SetStatus(ctx, "9 North-1-1", model.StatusReserved)
		require.NoError(t, err)
		assert.Equal(t, first.Status, second.Status)
	})

	t.Run("invalid status is rejected", func(t *testing.T) {
		_, err := svc.SetStatus(ctx, "9 North-1-1", model.UnitStatus("Haunted"))
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("unknown unit", func(t *testing.T) {
		_, err := svc.SetStatus(ctx, "nowhere", model.StatusSold)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestUnitServiceToggle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUnitFixture(t)

	t.Run("available flips to locked and back", func(t *testing.T) {
		unit, err := svc.Toggle(ctx, "9 North-1-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusLocked, unit.Status)

		unit, err = svc.Toggle(ctx, "9 North-1-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusAvailable, unit.Status)
	})

	t.Run("locked flips to available", func(t *testing.T) {
		unit, err := svc.Toggle(ctx, "9 North-1-3")
		require.NoError(t, err)
		assert.Equal(t, model.StatusAvailable, unit.Status)
	})

	t.Run("sold units cannot be toggled", func(t *testing.T) {
		_, err := svc.Toggle(ctx, "9 North-1-2")
		assert.ErrorIs(t, err, ErrNotToggleable)
	})
}

func TestUnitServiceDescribe(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUnitFixture(t)

	// Generation is disabled in the fixture, so the fallback text applies.
	unit, err := svc.Describe(ctx, "9 North-1-1")
	require.NoError(t, err)
	assert.Equal(t, "Experience luxury living at its finest in this premium unit.", unit.Description)
}

func TestUnitServiceEnsureSeeded(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUnitRepository()
	svc := NewUnitService(repo, NewInsightService("", "gpt-4o-mini"))

	units := repository.GenerateUnits([]string{"9 South", "9 North"}, 55, 4, nil)
	require.NoError(t, svc.EnsureSeeded(ctx, units))

	count, err := repo.CountUnits(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(440), count)

	// A second call must not duplicate the inventory.
	require.NoError(t, svc.EnsureSeeded(ctx, units))
	count, err = repo.CountUnits(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(440), count)
}
