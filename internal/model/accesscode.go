package model

import "time"

// AccessCode grants a buyer time-limited entry to a virtual tour of a
// unit. ExpiresAt is always strictly after GeneratedAt.
type AccessCode struct {
	Code        string     `json:"code"`
	BuyerID     string     `json:"buyer_id"`
	UnitID      string     `json:"unit_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	IsUsed      bool       `json:"is_used"`
	FirstUsedAt *time.Time `json:"first_used_at,omitempty"`
}

// TourSession is a live virtual tour started from a validated access code.
type TourSession struct {
	ID          string    `json:"id"`
	BuyerID     string    `json:"buyer_id"`
	UnitID      string    `json:"unit_id"`
	StartedAt   time.Time `json:"started_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	BuilderLive bool      `json:"builder_live"`
}
