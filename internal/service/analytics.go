package service

import (
	"context"
	"log"

	"risewith9-sales-api/internal/cache"
	"risewith9-sales-api/internal/model"
	"risewith9-sales-api/internal/repository"
)

// VisitSink accepts buffered visit events. Satisfied by the Redis
// write-behind buffer.
type VisitSink interface {
	Add(ctx context.Context, event *model.BufferedVisit) error
}

// AnalyticsService aggregates tour engagement and produces insights.
// When a buffer is configured, visit events go through it and reach the
// repository in batches; otherwise they are written directly.
type AnalyticsService struct {
	visits  repository.VisitRepository
	buffer  VisitSink
	insight *InsightService
}

// NewAnalyticsService creates a new analytics service. buffer may be nil.
func NewAnalyticsService(visits repository.VisitRepository, buffer VisitSink, insight *InsightService) *AnalyticsService {
	return &AnalyticsService{visits: visits, buffer: buffer, insight: insight}
}

// RecordVisit stores a single room visit event.
func (s *AnalyticsService) RecordVisit(ctx context.Context, event model.VisitEvent) error {
	if s.buffer != nil {
		buffered := model.BufferedVisit(event)
		return s.buffer.Add(ctx, &buffered)
	}
	return s.visits.BatchInsertVisits(ctx, []model.VisitEvent{event})
}

// RoomStats returns per-room visit counts and average dwell times, ordered
// by visit count.
func (s *AnalyticsService) RoomStats(ctx context.Context) ([]model.VisitData, error) {
	stats, err := s.visits.GetRoomStats(ctx)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []model.VisitData{}
	}
	return stats, nil
}

// Insight generates a one-sentence sales insight from current room stats.
func (s *AnalyticsService) Insight(ctx context.Context) (string, []model.VisitData, error) {
	stats, err := s.RoomStats(ctx)
	if err != nil {
		return "", nil, err
	}
	return s.insight.GenerateAnalyticsInsight(ctx, stats), stats, nil
}

// NewVisitFlushFunc adapts a VisitRepository into the buffer's flush
// callback.
func NewVisitFlushFunc(visits repository.VisitRepository) cache.FlushFunc {
	return func(ctx context.Context, items []*model.BufferedVisit) error {
		events := make([]model.VisitEvent, len(items))
		for i, item := range items {
			events[i] = model.VisitEvent(*item)
		}
		if err := visits.BatchInsertVisits(ctx, events); err != nil {
			return err
		}
		log.Printf("[Analytics] Persisted %d buffered visits", len(events))
		return nil
	}
}
