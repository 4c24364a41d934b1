package repository

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"risewith9-sales-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUnitRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUnitRepository()

	seed := []model.Unit{
		{ID: "9 South-2-1", Tower: "9 South", Floor: 2, Number: "Home 1", Status: model.StatusAvailable},
		{ID: "9 North-1-1", Tower: "9 North", Floor: 1, Number: "Home 1", Status: model.StatusAvailable},
		{ID: "9 South-1-2", Tower: "9 South", Floor: 1, Number: "Home 2", Status: model.StatusSold},
	}
	require.NoError(t, repo.SeedUnits(ctx, seed))

	t.Run("list is ordered by tower then floor", func(t *testing.T) {
		units, err := repo.ListUnits(ctx)
		require.NoError(t, err)
		require.Len(t, units, 3)
		assert.Equal(t, "9 North-1-1", units[0].ID)
		assert.Equal(t, "9 South-1-2", units[1].ID)
		assert.Equal(t, "9 South-2-1", units[2].ID)
	})

	t.Run("get unknown unit", func(t *testing.T) {
		_, err := repo.GetUnit(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set status persists", func(t *testing.T) {
		require.NoError(t, repo.SetUnitStatus(ctx, "9 North-1-1", model.StatusReserved))
		u, err := repo.GetUnit(ctx, "9 North-1-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusReserved, u.Status)
	})

	t.Run("set status on unknown unit", func(t *testing.T) {
		err := repo.SetUnitStatus(ctx, "missing", model.StatusSold)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("reseed does not overwrite", func(t *testing.T) {
		require.NoError(t, repo.SeedUnits(ctx, []model.Unit{
			{ID: "9 North-1-1", Tower: "9 North", Floor: 1, Number: "Home 1", Status: model.StatusAvailable},
		}))
		u, err := repo.GetUnit(ctx, "9 North-1-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusReserved, u.Status)
	})

	t.Run("stats counts by status", func(t *testing.T) {
		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats["total_units"])
		byStatus := stats["by_status"].(map[string]int64)
		assert.Equal(t, int64(1), byStatus["Sold"])
	})
}

func TestMemoryBuyerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBuyerRepository()

	unitID := "9 South-5-3"
	buyer := &model.Buyer{ID: "b1", Name: "Mira Chen", Email: "mira@example.com", Phone: "555-0100", AssignedUnitID: &unitID}
	require.NoError(t, repo.CreateBuyer(ctx, buyer))

	t.Run("get and list", func(t *testing.T) {
		got, err := repo.GetBuyer(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "Mira Chen", got.Name)

		buyers, err := repo.ListBuyers(ctx)
		require.NoError(t, err)
		assert.Len(t, buyers, 1)
	})

	t.Run("update", func(t *testing.T) {
		buyer.Phone = "555-0199"
		require.NoError(t, repo.UpdateBuyer(ctx, buyer))
		got, err := repo.GetBuyer(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "555-0199", got.Phone)
	})

	t.Run("update unknown buyer", func(t *testing.T) {
		err := repo.UpdateBuyer(ctx, &model.Buyer{ID: "ghost"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("access code set, list and clear", func(t *testing.T) {
		now := time.Now().UnixMilli()
		require.NoError(t, repo.SetAccessCode(ctx, "b1", "RISE-1234", now))

		got, err := repo.GetBuyer(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "RISE-1234", got.AccessCode)
		require.NotNil(t, got.CodeGeneratedAt)
		assert.Equal(t, now, got.CodeGeneratedAt.UnixMilli())

		withCodes, err := repo.ListBuyersWithCodes(ctx)
		require.NoError(t, err)
		assert.Len(t, withCodes, 1)

		require.NoError(t, repo.ClearAccessCode(ctx, "b1"))
		got, err = repo.GetBuyer(ctx, "b1")
		require.NoError(t, err)
		assert.Empty(t, got.AccessCode)
		assert.Nil(t, got.CodeGeneratedAt)

		withCodes, err = repo.ListBuyersWithCodes(ctx)
		require.NoError(t, err)
		assert.Empty(t, withCodes)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteBuyer(ctx, "b1"))
		_, err := repo.GetBuyer(ctx, "b1")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.DeleteBuyer(ctx, "b1"), ErrNotFound)
	})

	t.Run("builder accounts", func(t *testing.T) {
		require.NoError(t, repo.CreateBuilder(ctx, "sales@risewith9.com", "hash"))
		b, err := repo.GetBuilderByEmail(ctx, "sales@risewith9.com")
		require.NoError(t, err)
		assert.Equal(t, "hash", b.PasswordHash)

		// Creating the same email again keeps the original.
		require.NoError(t, repo.CreateBuilder(ctx, "sales@risewith9.com", "other"))
		b, err = repo.GetBuilderByEmail(ctx, "sales@risewith9.com")
		require.NoError(t, err)
		assert.Equal(t, "hash", b.PasswordHash)
	})
}

func TestGenerateUnits(t *testing.T) {
	t.Run("full inventory shape", func(t *testing.T) {
		units := GenerateUnits([]string{"9 South", "9 North"}, 55, 4, nil)
		require.Len(t, units, 440)

		first := units[0]
		assert.Equal(t, "9 South-1-1", first.ID)
		assert.Equal(t, "Home 1", first.Number)
		assert.Equal(t, "3BHK", first.Type)
		assert.Equal(t, 1850, first.Sqft)
		assert.Equal(t, "$450,000", first.Price)

		second := units[1]
		assert.Equal(t, "4BHK", second.Type)
		assert.Equal(t, 2400, second.Sqft)
		assert.Equal(t, "$620,000", second.Price)
	})

	t.Run("nil source yields an all-available inventory", func(t *testing.T) {
		units := GenerateUnits([]string{"9 South"}, 2, 2, nil)
		for _, u := range units {
			assert.Equal(t, model.StatusAvailable, u.Status)
		}
	})

	t.Run("every status is a valid enum value", func(t *testing.T) {
		units := GenerateUnits([]string{"9 South", "9 North"}, 55, 4, rand.New(rand.NewSource(1)))
		for _, u := range units {
			assert.True(t, u.Status.IsValid(), "unit %s has status %q", u.ID, u.Status)
		}
	})
}
