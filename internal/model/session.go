package model

import "time"

// SessionData contains the data stored with a builder session token.
type SessionData struct {
	BuilderID int64     `json:"builder_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
