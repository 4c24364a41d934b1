package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"risewith9-sales-api/internal/cache"
	"risewith9-sales-api/internal/model"
	"risewith9-sales-api/internal/repository"
)

const (
	// codeKeyPrefix is the cache key prefix for live access-code records.
	codeKeyPrefix = "risewith9:code:"

	// buyerCodeKeyPrefix maps a buyer ID to their current live code.
	buyerCodeKeyPrefix = "risewith9:code:buyer:"

	// maxCodeAttempts bounds the collision-retry loop during generation.
	maxCodeAttempts = 25
)

var (
	// ErrNoAssignedUnit is returned when issuing a code for a buyer with
	// no assigned unit.
	ErrNoAssignedUnit = errors.New("buyer has no assigned unit")

	// ErrCodeStillActive is returned when the buyer's previous code has
	// not yet expired. Reissue only succeeds after expiry.
	ErrCodeStillActive = errors.New("an unexpired access code already exists for this buyer")

	// ErrCodeSpaceExhausted is returned when no unique code could be
	// allocated within the retry budget.
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique access code")

	// ErrInvalidCode is returned by Validate for unknown or expired codes.
	ErrInvalidCode = errors.New("invalid access code")

	// ErrLinkedUnitMissing is returned by Validate when the code's unit
	// no longer exists in the inventory.
	ErrLinkedUnitMissing = errors.New("linked unit not found")
)

// AccessService issues, inspects and validates time-limited tour access
// codes. Live code records are held in the cache with a TTL equal to the
// code window; the buyer row keeps the code string and issue timestamp so
// the countdown can report Expired after the cache entry is gone.
type AccessService struct {
	buyers repository.BuyerRepository
	units  repository.UnitRepository
	cache  cache.Cache
	prefix string
	window time.Duration
}

// NewAccessService creates an access-code service. prefix is prepended to
// generated codes ("RISE-"); window is the default validity duration.
func NewAccessService(buyers repository.BuyerRepository, units repository.UnitRepository, c cache.Cache, prefix string, window time.Duration) *AccessService {
	return &AccessService{
		buyers: buyers,
		units:  units,
		cache:  c,
		prefix: prefix,
		window: window,
	}
}

// IssueResult is returned by Issue: the stored code record plus the invite
// message the dashboard shares with the buyer.
type IssueResult struct {
	AccessCode    *model.AccessCode `json:"access_code"`
	InviteMessage string            `json:"invite_message"`
}

// Issue generates a fresh access code for the buyer. The buyer must exist,
// must have an assigned unit, and must not hold an unexpired code. A custom
// duration overrides the default window when positive.
func (s *AccessService) Issue(ctx context.Context, buyerID string, duration time.Duration) (*IssueResult, error) {
	buyer, err := s.buyers.GetBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if buyer.AssignedUnitID == nil || *buyer.AssignedUnitID == "" {
		return nil, ErrNoAssignedUnit
	}

	unit, err := s.units.GetUnit(ctx, *buyer.AssignedUnitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkedUnitMissing
		}
		return nil, err
	}

	// Server-side reissue guard: the buyer key lives exactly as long as
	// the code window, so its presence means the prior code is unexpired.
	active, err := s.cache.Exists(ctx, buyerCodeKeyPrefix+buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active code: %w", err)
	}
	if active {
		return nil, ErrCodeStillActive
	}

	if duration <= 0 {
		duration = s.window
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &model.AccessCode{
		Code:        code,
		BuyerID:     buyer.ID,
		UnitID:      unit.ID,
		GeneratedAt: now,
		ExpiresAt:   now.Add(duration),
	}

	jsonData, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize access code: %w", err)
	}
	if err := s.cache.Set(ctx, codeKeyPrefix+code, jsonData, duration); err != nil {
		return nil, fmt.Errorf("failed to store access code: %w", err)
	}
	if err := s.cache.Set(ctx, buyerCodeKeyPrefix+buyerID, []byte(code), duration); err != nil {
		return nil, fmt.Errorf("failed to store buyer code reference: %w", err)
	}

	// Overwrites any expired code still on the buyer row.
	if err := s.buyers.SetAccessCode(ctx, buyerID, code, now.UnixMilli()); err != nil {
		return nil, fmt.Errorf("failed to record code on buyer: %w", err)
	}

	log.Printf("[AccessService] Issued code %s for buyer=%s unit=%s, expires=%v",
		code, buyerID, unit.ID, record.ExpiresAt)

	return &IssueResult{
		AccessCode:    record,
		InviteMessage: InviteMessage(buyer, unit, code),
	}, nil
}

// generateCode draws prefix + a random number in [1000, 9999], retrying
// while the code collides with a currently active one.
func (s *AccessService) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(9000))
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		code := fmt.Sprintf("%s%d", s.prefix, 1000+n.Int64())

		exists, err := s.cache.Exists(ctx, codeKeyPrefix+code)
		if err != nil {
			return "", fmt.Errorf("failed to check code collision: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// Remaining reports the countdown state of the buyer's current code.
func (s *AccessService) Remaining(ctx context.Context, buyerID string) (RemainingState, error) {
	buyer, err := s.buyers.GetBuyer(ctx, buyerID)
	if err != nil {
		return RemainingState{}, err
	}
	if buyer.AccessCode == "" || buyer.CodeGeneratedAt == nil {
		return RemainingState{Phase: PhaseNoneIssued}, nil
	}

	// A live record carries the exact window used at issuance (it may have
	// been a custom duration). After cache expiry, fall back to the default
	// window against the buyer row timestamp.
	window := s.window
	if jsonData, err := s.cache.Get(ctx, codeKeyPrefix+buyer.AccessCode); err == nil {
		var record model.AccessCode
		if err := json.Unmarshal(jsonData, &record); err == nil {
			window = record.ExpiresAt.Sub(record.GeneratedAt)
		}
	}
	return Remaining(buyer.CodeGeneratedAt, time.Now().UTC(), window), nil
}

// Validate resolves a code to its unit and record. Unknown or expired codes
// fail with ErrInvalidCode; codes whose unit was removed fail with
// ErrLinkedUnitMissing. The first successful validation stamps IsUsed and
// FirstUsedAt on the stored record.
func (s *AccessService) Validate(ctx context.Context, code string) (*model.Unit, *model.AccessCode, error) {
	if code == "" {
		return nil, nil, ErrInvalidCode
	}

	jsonData, err := s.cache.Get(ctx, codeKeyPrefix+code)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil, ErrInvalidCode
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up access code: %w", err)
	}

	var record model.AccessCode
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, nil, fmt.Errorf("failed to parse access code: %w", err)
	}

	now := time.Now().UTC()
	if now.After(record.ExpiresAt) {
		s.cache.Delete(ctx, codeKeyPrefix+code)
		return nil, nil, ErrInvalidCode
	}

	unit, err := s.units.GetUnit(ctx, record.UnitID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrLinkedUnitMissing
	}
	if err != nil {
		return nil, nil, err
	}

	if !record.IsUsed {
		record.IsUsed = true
		record.FirstUsedAt = &now
		if updated, err := json.Marshal(&record); err == nil {
			ttl := time.Until(record.ExpiresAt)
			if ttl > 0 {
				s.cache.Set(ctx, codeKeyPrefix+code, updated, ttl)
			}
		}
	}

	return unit, &record, nil
}

// Revoke deletes the buyer's live code from the cache and clears the code
// reference on the buyer row.
func (s *AccessService) Revoke(ctx context.Context, buyerID string) error {
	buyer, err := s.buyers.GetBuyer(ctx, buyerID)
	if err != nil {
		return err
	}
	if buyer.AccessCode != "" {
		if err := s.cache.Delete(ctx, codeKeyPrefix+buyer.AccessCode); err != nil {
			return err
		}
	}
	if err := s.cache.Delete(ctx, buyerCodeKeyPrefix+buyerID); err != nil {
		return err
	}
	return s.buyers.ClearAccessCode(ctx, buyerID)
}

// SweepExpired clears expired code references from buyer rows so a later
// reissue starts clean. Returns the number of buyers swept.
func (s *AccessService) SweepExpired(ctx context.Context) (int64, error) {
	buyers, err := s.buyers.ListBuyersWithCodes(ctx)
	if err != nil {
		return 0, err
	}

	var swept int64
	for i := range buyers {
		b := &buyers[i]
		// The buyer key's TTL equals the window the code was issued with,
		// which may be a custom duration. While it exists the code is live.
		live, err := s.cache.Exists(ctx, buyerCodeKeyPrefix+b.ID)
		if err != nil {
			log.Printf("[AccessService] Failed to check live code for buyer=%s: %v", b.ID, err)
			continue
		}
		if live {
			continue
		}
		if b.AccessCode != "" {
			s.cache.Delete(ctx, codeKeyPrefix+b.AccessCode)
		}
		s.cache.Delete(ctx, buyerCodeKeyPrefix+b.ID)
		if err := s.buyers.ClearAccessCode(ctx, b.ID); err != nil {
			log.Printf("[AccessService] Failed to clear expired code for buyer=%s: %v", b.ID, err)
			continue
		}
		swept++
	}
	return swept, nil
}

// InviteMessage formats the tour invitation shared with a buyer after a
// code is issued.
func InviteMessage(buyer *model.Buyer, unit *model.Unit, code string) string {
	return fmt.Sprintf("Hello %s,\n\nWelcome to Trilight - Rise with 9! \n\nFlat Details:\n- Tower: %s\n- Floor: %d\n- Unit: %s\n\nJoin your tour here:\nhttps://risewith9.com/explore/%s",
		buyer.Name, unit.Tower, unit.Floor, unit.Number, code)
}
