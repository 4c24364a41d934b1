package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"risewith9-sales-api/internal/cache"
	"risewith9-sales-api/internal/model"

	"risewith9-sales-api/pkg/uid"
)

// tourKeyPrefix is the cache key prefix for live tour sessions.
const tourKeyPrefix = "risewith9:tour:session:"

// ErrTourNotFound is returned for unknown or expired tour sessions.
var ErrTourNotFound = errors.New("tour session not found or expired")

// TourService runs virtual tour sessions started from validated access
// codes. A session lives exactly as long as its code's remaining window.
type TourService struct {
	access    *AccessService
	cache     cache.Cache
	analytics *AnalyticsService
}

// NewTourService creates a new tour service.
func NewTourService(access *AccessService, c cache.Cache, analytics *AnalyticsService) *TourService {
	return &TourService{access: access, cache: c, analytics: analytics}
}

// Start validates the access code and opens a tour session for its buyer
// and unit. Returns the session and the unit being toured.
func (s *TourService) Start(ctx context.Context, code string) (*model.TourSession, *model.Unit, error) {
	unit, record, err := s.access.Validate(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	session := &model.TourSession{
		ID:        uid.New(),
		BuyerID:   record.BuyerID,
		UnitID:    record.UnitID,
		StartedAt: now,
		ExpiresAt: record.ExpiresAt,
	}

	jsonData, err := json.Marshal(session)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize tour session: %w", err)
	}
	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return nil, nil, ErrInvalidCode
	}
	if err := s.cache.Set(ctx, tourKeyPrefix+session.ID, jsonData, ttl); err != nil {
		return nil, nil, fmt.Errorf("failed to store tour session: %w", err)
	}

	log.Printf("[TourService] Started session %s for buyer=%s unit=%s, expires=%v",
		session.ID, session.BuyerID, session.UnitID, session.ExpiresAt)
	return session, unit, nil
}

// Get returns a live tour session by ID.
func (s *TourService) Get(ctx context.Context, sessionID string) (*model.TourSession, error) {
	jsonData, err := s.cache.Get(ctx, tourKeyPrefix+sessionID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrTourNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tour session: %w", err)
	}

	var session model.TourSession
	if err := json.Unmarshal(jsonData, &session); err != nil {
		return nil, fmt.Errorf("failed to parse tour session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		s.cache.Delete(ctx, tourKeyPrefix+sessionID)
		return nil, ErrTourNotFound
	}
	return &session, nil
}

// RecordVisit records a room visit against a live session.
func (s *TourService) RecordVisit(ctx context.Context, sessionID, room string, minutes float64) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	return s.analytics.RecordVisit(ctx, model.VisitEvent{
		SessionID: session.ID,
		BuyerID:   session.BuyerID,
		UnitID:    session.UnitID,
		Room:      room,
		Minutes:   minutes,
		VisitedAt: time.Now().UTC(),
	})
}

// SetBuilderLive marks whether the builder has joined the session.
func (s *TourService) SetBuilderLive(ctx context.Context, sessionID string, live bool) (*model.TourSession, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.BuilderLive = live
	jsonData, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tour session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil, ErrTourNotFound
	}
	if err := s.cache.Set(ctx, tourKeyPrefix+sessionID, jsonData, ttl); err != nil {
		return nil, fmt.Errorf("failed to store tour session: %w", err)
	}
	return session, nil
}
