package service

import (
	"context"
	"testing"
	"time"

	"risewith9-sales-api/internal/model"
	"risewith9-sales-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsServiceDirectWrites(t *testing.T) {
	ctx := context.Background()
	visits := repository.NewMemoryVisitRepository()
	svc := NewAnalyticsService(visits, nil, NewInsightService("", "gpt-4o-mini"))

	now := time.Now().UTC()
	events := []model.VisitEvent{
		{SessionID: "s1", BuyerID: "b1", UnitID: "u1", Room: "Living Room", Minutes: 6, VisitedAt: now},
		{SessionID: "s1", BuyerID: "b1", UnitID: "u1", Room: "Living Room", Minutes: 4, VisitedAt: now},
		{SessionID: "s2", BuyerID: "b2", UnitID: "u2", Room: "Kitchen", Minutes: 2, VisitedAt: now},
	}
	for _, e := range events {
		require.NoError(t, svc.RecordVisit(ctx, e))
	}

	stats, err := svc.RoomStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// Ordered by visit count, averages per room.
	assert.Equal(t, "Living Room", stats[0].Name)
	assert.Equal(t, int64(2), stats[0].Visits)
	assert.InDelta(t, 5.0, stats[0].AvgTime, 0.001)
	assert.Equal(t, "Kitchen", stats[1].Name)
	assert.Equal(t, int64(1), stats[1].Visits)
}

func TestAnalyticsServiceEmptyStats(t *testing.T) {
	ctx := context.Background()
	svc := NewAnalyticsService(repository.NewMemoryVisitRepository(), nil, NewInsightService("", "gpt-4o-mini"))

	stats, err := svc.RoomStats(ctx)
	require.NoError(t, err)
	assert.NotNil(t, stats)
	assert.Empty(t, stats)
}

func TestAnalyticsServiceInsight(t *testing.T) {
	ctx := context.Background()
	visits := repository.NewMemoryVisitRepository()
	svc := NewAnalyticsService(visits, nil, NewInsightService("", "gpt-4o-mini"))

	require.NoError(t, svc.RecordVisit(ctx, model.VisitEvent{
		SessionID: "s1", BuyerID: "b1", UnitID: "u1", Room: "Balcony", Minutes: 3, VisitedAt: time.Now().UTC(),
	}))

	insight, stats, err := svc.Insight(ctx)
	require.NoError(t, err)
	assert.Equal(t, "High engagement detected in main living areas.", insight)
	require.Len(t, stats, 1)
	assert.Equal(t, "Balcony", stats[0].Name)
}

func TestNewVisitFlushFunc(t *testing.T) {
	ctx := context.Background()
	visits := repository.NewMemoryVisitRepository()
	flush := NewVisitFlushFunc(visits)

	now := time.Now().UTC()
	err := flush(ctx, []*model.BufferedVisit{
		{SessionID: "s1", BuyerID: "b1", UnitID: "u1", Room: "Study", Minutes: 1.5, VisitedAt: now},
		{SessionID: "s1", BuyerID: "b1", UnitID: "u1", Room: "Study", Minutes: 2.5, VisitedAt: now},
	})
	require.NoError(t, err)

	stats, err := visits.GetRoomStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(2), stats[0].Visits)
	assert.InDelta(t, 2.0, stats[0].AvgTime, 0.001)
}
