package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"risewith9-sales-api/internal/cache"
	"risewith9-sales-api/internal/model"
	"risewith9-sales-api/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const (
	// SessionTokenPrefix is the prefix for all builder session tokens.
	SessionTokenPrefix = "r9s_"

	// SessionTTL is the default session lifetime (1 hour).
	SessionTTL = 1 * time.Hour

	// sessionKeyPrefix is the cache key prefix for sessions.
	sessionKeyPrefix = "risewith9:session:"

	// loginFailKeyPrefix tracks failed sign-in attempts per email.
	loginFailKeyPrefix = "risewith9:login:fail:"

	// maxLoginFailures locks an account out once reached inside the window.
	maxLoginFailures = 5

	// loginFailWindow is how long failed attempts are remembered.
	loginFailWindow = 10 * time.Minute
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountDisabled is returned for disabled builder accounts.
	ErrAccountDisabled = errors.New("this account has been disabled")

	// ErrTooManyAttempts is returned when sign-in is rate limited.
	ErrTooManyAttempts = errors.New("too many failed attempts, please try again later")

	// ErrSessionNotFound is returned for missing or expired session tokens.
	ErrSessionNotFound = errors.New("session not found or expired")
)

// SessionService authenticates builders and manages their session tokens.
// Tokens are opaque random strings stored in the cache with a TTL.
type SessionService struct {
	builders repository.BuilderRepository
	cache    cache.Cache
}

// NewSessionService creates a new session service.
func NewSessionService(builders repository.BuilderRepository, c cache.Cache) *SessionService {
	return &SessionService{builders: builders, cache: c}
}

// SignIn verifies the builder's credentials and returns a fresh session
// token. Five failures for the same email inside ten minutes trigger
// ErrTooManyAttempts.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (string, *model.SessionData, error) {
	failures, _ := s.failureCount(ctx, email)
	if failures >= maxLoginFailures {
		return "", nil, ErrTooManyAttempts
	}

	builder, err := s.builders.GetBuilderByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.recordFailure(ctx, email, failures)
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up builder: %w", err)
	}

	if builder.IsDisabled {
		return "", nil, ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(builder.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(ctx, email, failures)
		return "", nil, ErrInvalidCredentials
	}

	s.cache.Delete(ctx, loginFailKeyPrefix+email)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	token := SessionTokenPrefix + hex.EncodeToString(tokenBytes)

	now := time.Now().UTC()
	data := &model.SessionData{
		BuilderID: builder.ID,
		Email:     builder.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", nil, fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+token, jsonData, SessionTTL); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	log.Printf("[SessionService] Signed in builder_id=%d email=%s, expires=%v",
		builder.ID, builder.Email, data.ExpiresAt)

	return token, data, nil
}

// Validate checks a session token and returns its data.
func (s *SessionService) Validate(ctx context.Context, token string) (*model.SessionData, error) {
	if len(token) < len(SessionTokenPrefix) || token[:len(SessionTokenPrefix)] != SessionTokenPrefix {
		return nil, ErrSessionNotFound
	}

	jsonData, err := s.cache.Get(ctx, sessionKeyPrefix+token)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var data model.SessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}

	if time.Now().After(data.ExpiresAt) {
		s.cache.Delete(ctx, sessionKeyPrefix+token)
		return nil, ErrSessionNotFound
	}

	return &data, nil
}

// Revoke deletes a session token.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+token)
}

// Refresh extends the TTL of an existing session.
func (s *SessionService) Refresh(ctx context.Context, token string) (*model.SessionData, error) {
	data, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	data.ExpiresAt = time.Now().UTC().Add(SessionTTL)

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+token, jsonData, SessionTTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return data, nil
}

func (s *SessionService) failureCount(ctx context.Context, email string) (int, error) {
	data, err := s.cache.Get(ctx, loginFailKeyPrefix+email)
	if err != nil {
		return 0, nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *SessionService) recordFailure(ctx context.Context, email string, current int) {
	value := strconv.Itoa(current + 1)
	if err := s.cache.Set(ctx, loginFailKeyPrefix+email, []byte(value), loginFailWindow); err != nil {
		log.Printf("[SessionService] Failed to record login failure for %s: %v", email, err)
	}
}
