package service

import (
	"context"
	"testing"

	"risewith9-sales-api/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestInsightServiceFallbacks(t *testing.T) {
	ctx := context.Background()
	svc := NewInsightService("", "gpt-4o-mini")

	t.Run("unit description falls back when disabled", func(t *testing.T) {
		unit := &model.Unit{ID: "9 South-3-2", Tower: "9 South", Floor: 3, Type: "4BHK", Sqft: 2400}
		got := svc.GenerateUnitDescription(ctx, unit)
		assert.Equal(t, "Experience luxury living at its finest in this premium unit.", got)
	})

	t.Run("analytics insight falls back when disabled", func(t *testing.T) {
		data := []model.VisitData{
			{Name: "Living Room", Visits: 42, AvgTime: 5.2},
			{Name: "Master Bed", Visits: 31, AvgTime: 3.8},
		}
		got := svc.GenerateAnalyticsInsight(ctx, data)
		assert.Equal(t, "High engagement detected in main living areas.", got)
	})
}
