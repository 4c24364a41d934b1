package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"risewith9-sales-api/internal/cache"
	"risewith9-sales-api/internal/model"
	"risewith9-sales-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccessFixture(t *testing.T, window time.Duration) (*AccessService, *repository.MemoryBuyerRepository, *repository.MemoryUnitRepository, cache.Cache) {
	t.Helper()

	units := repository.NewMemoryUnitRepository()
	buyers := repository.NewMemoryBuyerRepository()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })

	require.NoError(t, units.SeedUnits(context.Background(), []model.Unit{
		{ID: "9 South-12-1", Tower: "9 South", Floor: 12, Number: "Home 1", Type: "3BHK", Sqft: 1850, Price: "$450,000", Status: model.StatusAvailable},
	}))

	unitID := "9 South-12-1"
	require.NoError(t, buyers.CreateBuyer(context.Background(), &model.Buyer{
		ID: "b1", Name: "Asha Rao", Email: "asha@example.com", Phone: "555-0101", AssignedUnitID: &unitID,
	}))
	require.NoError(t, buyers.CreateBuyer(context.Background(), &model.Buyer{
		ID: "b2", Name: "Lee Park", Email: "lee@example.com", Phone: "555-0102",
	}))

	return NewAccessService(buyers, units, c, "RISE-", window), buyers, units, c
}

func TestAccessServiceIssue(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a prefixed code with the full window", func(t *testing.T) {
		svc, buyers, _, _ := newAccessFixture(t, time.Hour)

		result, err := svc.Issue(ctx, "b1", 0)
		require.NoError(t, err)

		code := result.AccessCode
		assert.True(t, strings.HasPrefix(code.Code, "RISE-"))
		assert.Len(t, code.Code, 9)
		assert.Equal(t, "b1", code.BuyerID)
		assert.Equal(t, "9 South-12-1", code.UnitID)
		assert.False(t, code.IsUsed)
		assert.Equal(t, code.GeneratedAt.Add(time.Hour), code.ExpiresAt)

		buyer, err := buyers.GetBuyer(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, code.Code, buyer.AccessCode)
		require.NotNil(t, buyer.CodeGeneratedAt)

		assert.Contains(t, result.InviteMessage, "Hello Asha Rao")
		assert.Contains(t, result.InviteMessage, "Welcome to Trilight - Rise with 9!")
		assert.Contains(t, result.InviteMessage, "Tower: 9 South")
		assert.Contains(t, result.InviteMessage, code.Code)
	})

	t.Run("exact window from the example", func(t *testing.T) {
		svc, _, _, _ := newAccessFixture(t, 3600000*time.Millisecond)

		result, err := svc.Issue(ctx, "b1", 0)
		require.NoError(t, err)
		got := result.AccessCode.ExpiresAt.Sub(result.AccessCode.GeneratedAt)
		assert.Equal(t, 3600000*time.Millisecond, got)
	})

	t.Run("code digits never carry a leading zero", func(t *testing.T) {
		svc, _, _, _ := newAccessFixture(t, time.Hour)

		for i := 0; i < 50; i++ {
			code, err := svc.generateCode(ctx)
			require.NoError(t, err)
			digits, err := strconv.Atoi(strings.TrimPrefix(code, "RISE-"))
			require.NoError(t, err)
			assert.GreaterOrEqual(t, digits, 1000)
			assert.LessOrEqual(t, digits, 9999)
		}
	})

	t.Run("rejects a buyer without an assigned unit", func(t *testing.T) {
		svc, _, _, _ := newAccessFixture(t, time.Hour)

		_, err := svc.Issue(ctx, "b2", 0)
		assert.ErrorIs(t, err, ErrNoAssignedUnit)
	})

	t.Run("rejects an unknown buyer", func(t *testing.T) {
		svc, _, _, _ := newAccessFixture(t, time.Hour)

		_, err := svc.Issue(ctx, "ghost", 0)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("rejects reissue while the code is active", func(t *testing.T) {
		svc, _, _, _ := newAccessFixture(t, time.Hour)

		_, err := svc.Issue(ctx, "b1", 0)
		require.NoError(t, err)

		_, err = svc.Issue(ctx, "b1", 0)
		assert.ErrorIs(t, err, ErrCodeStillActive)
	})

	t.Run("allows reissue after expiry and overwrites the code", func(t *testing.T) {
		svc, buyers, _, _ := newAccessFixture(t, 10*time.Millisecond)

		first, err := svc.Issue(ctx, "b1", 0)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		second, err := svc.Issue(ctx, "b1", 0)
		require.NoError(t, err)

		buyer, err := buyers.GetBuyer(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, second.AccessCode.Code, buyer.AccessCode)
		assert.True(t, second.AccessCode.GeneratedAt.After(first.AccessCode.GeneratedAt) ||
			second.AccessCode.GeneratedAt.Equal(first.AccessCode.GeneratedAt))
	})
}

func TestAccessServiceRemaining(t *testing.T) {
	ctx := context.Background()

	t.Run("none issued for a fresh buyer", func(t *testing.T) {
		svc, _, _, _ := newAccessFixture(t, time.Hour)

		state, err := svc.Remaining(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, PhaseNoneIssued, state.Phase)
	})

	t.Run("active right after issue", func(t *testing.T) {
		svc, _, _, _ := newAccessFixture(t, time.Hour)

		_, err := svc.Issue(ctx, "b1", 0)
		require.NoError(t, err)

		state, err := svc.Remaining(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, PhaseActive, state.Phase)
		assert.Greater(t, state.RemainingMillis(), int64(0))
	})

	t.Run("expired after the window elapses", func(t *testing.T) {
		svc, _, _, _ := newAccessFixture(t, 10*time.Millisecond)

		_, err := svc.Issue(ctx, "b1", 0)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		state, err := svc.Remaining(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, PhaseExpired, state.Phase)
	})

	t.Run("unknown buyer", func(t *testing.T) {
		svc, _, _, _ := newAccessFixture(t, time.Hour)

		_, err := svc.Remaining(ctx, "ghost")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestAccessServiceValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown code is invalid", func(t *testing.T) {
		svc, _, _, _ := newAccessFixture(t, time.Hour)

		_, _, err := svc.Validate(ctx, "RISE-0000")
		assert.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("empty code is invalid", func(t *testing.T) {
		svc, _, _, _ := newAccessFixture(t, time.Hour)

		_, _, err := svc.Validate(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("valid code returns the bound unit and marks first use", func(t *testing.T) {
		svc, _, _, _ := newAccessFixture(t, time.Hour)

		issued, err := svc.Issue(ctx, "b1", 0)
		require.NoError(t, err)

		unit, record, err := svc.Validate(ctx, issued.AccessCode.Code)
		require.NoError(t, err)
		assert.Equal(t, "9 South-12-1", unit.ID)
		assert.True(t, record.IsUsed)
		require.NotNil(t, record.FirstUsedAt)
		firstUse := *record.FirstUsedAt

		// A second validation keeps the original first-use stamp.
		_, record, err = svc.Validate(ctx, issued.AccessCode.Code)
		require.NoError(t, err)
		assert.True(t, record.IsUsed)
		require.NotNil(t, record.FirstUsedAt)
		assert.Equal(t, firstUse, *record.FirstUsedAt)
	})

	t.Run("code whose unit is gone reports the missing link", func(t *testing.T) {
		svc, _, _, c := newAccessFixture(t, time.Hour)

		record := model.AccessCode{
			Code:        "RISE-7777",
			BuyerID:     "b1",
			UnitID:      "demolished",
			GeneratedAt: time.Now().UTC(),
			ExpiresAt:   time.Now().UTC().Add(time.Hour),
		}
		jsonData, err := json.Marshal(record)
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, codeKeyPrefix+record.Code, jsonData, time.Hour))

		_, _, err = svc.Validate(ctx, record.Code)
		assert.ErrorIs(t, err, ErrLinkedUnitMissing)
	})

	t.Run("expired code is invalid", func(t *testing.T) {
		svc, _, _, _ := newAccessFixture(t, 10*time.Millisecond)

		issued, err := svc.Issue(ctx, "b1", 0)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		_, _, err = svc.Validate(ctx, issued.AccessCode.Code)
		assert.ErrorIs(t, err, ErrInvalidCode)
	})
}

func TestAccessServiceSweepExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("clears expired codes from buyer rows", func(t *testing.T) {
		svc, buyers, _, _ := newAccessFixture(t, 10*time.Millisecond)

		_, err := svc.Issue(ctx, "b1", 0)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		swept, err := svc.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), swept)

		buyer, err := buyers.GetBuyer(ctx, "b1")
		require.NoError(t, err)
		assert.Empty(t, buyer.AccessCode)
		assert.Nil(t, buyer.CodeGeneratedAt)

		state, err := svc.Remaining(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, PhaseNoneIssued, state.Phase)
	})

	t.Run("keeps a custom-duration code past the default window", func(t *testing.T) {
		svc, buyers, _, _ := newAccessFixture(t, 10*time.Millisecond)

		issued, err := svc.Issue(ctx, "b1", time.Hour)
		require.NoError(t, err)

		// Well past the default window, but the hour-long code is live.
		time.Sleep(20 * time.Millisecond)

		swept, err := svc.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), swept)

		buyer, err := buyers.GetBuyer(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, issued.AccessCode.Code, buyer.AccessCode)

		unit, _, err := svc.Validate(ctx, issued.AccessCode.Code)
		require.NoError(t, err)
		assert.Equal(t, "9 South-12-1", unit.ID)

		state, err := svc.Remaining(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, PhaseActive, state.Phase)
	})
}

func TestAccessServiceRevoke(t *testing.T) {
	ctx := context.Background()
	svc, buyers, _, _ := newAccessFixture(t, time.Hour)

	issued, err := svc.Issue(ctx, "b1", 0)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, "b1"))

	_, _, err = svc.Validate(ctx, issued.AccessCode.Code)
	assert.ErrorIs(t, err, ErrInvalidCode)

	buyer, err := buyers.GetBuyer(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, buyer.AccessCode)

	// Revoke freed the reissue guard.
	_, err = svc.Issue(ctx, "b1", 0)
	assert.NoError(t, err)
}
