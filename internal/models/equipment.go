package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	EquipmentStatusAvailable   = "available"
	EquipmentStatusInUse       = "in_use"
	EquipmentStatusMaintenance = "maintenance"
	EquipmentStatusRetired     = "retired"
)

type Equipment struct {
	bun.BaseModel `bun:"table:equipment"`

	EquipmentID string    `bun:"equipment_id,pk" json:"equipment_id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Category    string    `bun:"category" json:"category"`
	Status      string    `bun:"status,notnull" json:"status"`
	SerialNo    string    `bun:"serial_no" json:"serial_no"`
	Notes       string    `bun:"notes" json:"notes"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// EquipmentUsage is a time-bounded assignment of one equipment item to an
// event. An unreleased usage keeps the equipment in_use.
type EquipmentUsage struct {
	bun.BaseModel `bun:"table:equipment_usage"`

	UsageID     string    `bun:"usage_id,pk" json:"usage_id"`
	EquipmentID string    `bun:"equipment_id,notnull" json:"equipment_id"`
	EventID     string    `bun:"event_id,notnull" json:"event_id"`
	AssignedBy  string    `bun:"assigned_by" json:"assigned_by"`
	FromTime    time.Time `bun:"from_time,notnull" json:"from_time"`
	ToTime      time.Time `bun:"to_time,nullzero" json:"to_time,omitempty"`
	Released    bool      `bun:"released,notnull,default:false" json:"released"`
}

type EquipmentRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Status   string `json:"status"`
	SerialNo string `json:"serial_no"`
	Notes    string `json:"notes"`
}

type AssignEquipmentRequest struct {
	EquipmentID string    `json:"equipment_id"`
	FromTime    time.Time `json:"from_time"`
	ToTime      time.Time `json:"to_time"`
}
