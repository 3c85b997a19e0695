package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event lifecycle statuses. Transitions only move forward:
// planned -> in_progress -> completed. Cancelled is reachable from
// planned or in_progress and is terminal.
const (
	EventStatusPlanned    = "planned"
	EventStatusInProgress = "in_progress"
	EventStatusCompleted  = "completed"
	EventStatusCancelled  = "cancelled"
)

// StatusRank orders event statuses along the lifecycle. Unknown
// statuses rank below planned so they never mask a real state.
func StatusRank(status string) int {
	switch status {
	case EventStatusPlanned:
		return 0
	case EventStatusInProgress:
		return 1
	case EventStatusCompleted:
		return 2
	case EventStatusCancelled:
		return 3
	default:
		return -1
	}
}

type Event struct {
	bun.BaseModel `bun:"table:events"`

	EventID     string    `bun:"event_id,pk" json:"event_id"`
	Name        string    `bun:"name,notnull" json:"name"`
	ClientName  string    `bun:"client_name" json:"client_name"`
	Location    string    `bun:"location" json:"location"`
	Description string    `bun:"description" json:"description"`
	StartDate   time.Time `bun:"start_date,notnull" json:"start_date"`
	EndDate     time.Time `bun:"end_date,notnull" json:"end_date"`
	Status      string    `bun:"status,notnull" json:"status"`
	CreatedBy   string    `bun:"created_by" json:"created_by"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

type EventRequest struct {
	Name        string    `json:"name"`
	ClientName  string    `json:"client_name"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

type StatusChangeRequest struct {
	Status string `json:"status"`
}
