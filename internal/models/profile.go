package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Profile is keyed by the OIDC subject so a row can be upserted on first
// authenticated request without a separate signup step.
type Profile struct {
	bun.BaseModel `bun:"table:profiles"`

	ProfileID string    `bun:"profile_id,pk" json:"profile_id"`
	FullName  string    `bun:"full_name" json:"full_name"`
	Role      string    `bun:"role" json:"role"`
	Phone     string    `bun:"phone" json:"phone"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type ProfileRequest struct {
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}
