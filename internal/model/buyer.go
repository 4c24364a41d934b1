package model

import "time"

// Buyer represents a registered prospective buyer. A buyer holds at most
// one live access code at a time; reissue overwrites the previous one.
type Buyer struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	AssignedUnitID  *string    `json:"assigned_unit_id"`
	AccessCode      string     `json:"access_code,omitempty"`
	CodeGeneratedAt *time.Time `json:"code_generated_at,omitempty"`
}

// Builder is an internal sales/management user of the dashboard.
type Builder struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsDisabled   bool      `json:"is_disabled"`
	CreatedAt    time.Time `json:"created_at"`
}
