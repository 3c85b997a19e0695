package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SetupDigging is the site-preparation record. At most one row per event.
type SetupDigging struct {
	bun.BaseModel `bun:"table:setup_digging"`

	SetupID   string    `bun:"setup_id,pk" json:"setup_id"`
	EventID   string    `bun:"event_id,notnull,unique" json:"event_id"`
	AreaSqm   float64   `bun:"area_sqm" json:"area_sqm"`
	DepthCm   float64   `bun:"depth_cm" json:"depth_cm"`
	SoilType  string    `bun:"soil_type" json:"soil_type"`
	Notes     string    `bun:"notes" json:"notes"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

type SetupRequest struct {
	AreaSqm  float64 `json:"area_sqm"`
	DepthCm  float64 `json:"depth_cm"`
	SoilType string  `json:"soil_type"`
	Notes    string  `json:"notes"`
}
