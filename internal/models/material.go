package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MaterialDelivered is a required-material line for an event. The delivered
// total is never stored on the row; it is rolled up from delivery entries.
type MaterialDelivered struct {
	bun.BaseModel `bun:"table:materials_delivered"`

	MaterialID    string    `bun:"material_id,pk" json:"material_id"`
	EventID       string    `bun:"event_id,notnull" json:"event_id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Unit          string    `bun:"unit,notnull" json:"unit"`
	TotalRequired float64   `bun:"total_required,notnull" json:"total_required"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type MaterialDelivery struct {
	bun.BaseModel `bun:"table:material_deliveries"`

	DeliveryID  string    `bun:"delivery_id,pk" json:"delivery_id"`
	MaterialID  string    `bun:"material_id,notnull" json:"material_id"`
	Amount      float64   `bun:"amount,notnull" json:"amount"`
	Note        string    `bun:"note" json:"note"`
	DeliveredBy string    `bun:"delivered_by" json:"delivered_by"`
	DeliveredAt time.Time `bun:"delivered_at,notnull" json:"delivered_at"`
}

// AdditionalMaterial is an ad hoc material added mid-project. Its delivered
// total is tracked directly on the row.
type AdditionalMaterial struct {
	bun.BaseModel `bun:"table:additional_materials"`

	MaterialID    string    `bun:"material_id,pk" json:"material_id"`
	EventID       string    `bun:"event_id,notnull" json:"event_id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Unit          string    `bun:"unit,notnull" json:"unit"`
	TotalRequired float64   `bun:"total_required,notnull" json:"total_required"`
	Delivered     float64   `bun:"delivered,notnull,default:0" json:"delivered"`
	Note          string    `bun:"note" json:"note"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type MaterialRequest struct {
	Name          string  `json:"name"`
	Unit          string  `json:"unit"`
	TotalRequired float64 `json:"total_required"`
}

type DeliveryRequest struct {
	Amount float64 `json:"amount"`
	Note   string  `json:"note"`
}

type AdditionalMaterialRequest struct {
	Name          string  `json:"name"`
	Unit          string  `json:"unit"`
	TotalRequired float64 `json:"total_required"`
	Delivered     float64 `json:"delivered"`
	Note          string  `json:"note"`
}

// MaterialWithDeliveries pairs a material with its cumulative delivered
// total for list and report views.
type MaterialWithDeliveries struct {
	Material   MaterialDelivered  `json:"material"`
	Delivered  float64            `json:"delivered"`
	Percent    float64            `json:"percent"`
	Deliveries []MaterialDelivery `json:"deliveries,omitempty"`
}
