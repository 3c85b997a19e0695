package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TaskDone is an hour-budgeted unit of work against an event. Progress is
// recorded as timestamped entries; the task itself never stores a percent.
type TaskDone struct {
	bun.BaseModel `bun:"table:tasks_done"`

	TaskID      string    `bun:"task_id,pk" json:"task_id"`
	EventID     string    `bun:"event_id,notnull" json:"event_id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description" json:"description"`
	TotalHours  float64   `bun:"total_hours,notnull" json:"total_hours"`
	AssignedTo  string    `bun:"assigned_to" json:"assigned_to"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type TaskProgressEntry struct {
	bun.BaseModel `bun:"table:task_progress_entries"`

	EntryID    string    `bun:"entry_id,pk" json:"entry_id"`
	TaskID     string    `bun:"task_id,notnull" json:"task_id"`
	Hours      float64   `bun:"hours,notnull" json:"hours"`
	Note       string    `bun:"note" json:"note"`
	RecordedBy string    `bun:"recorded_by" json:"recorded_by"`
	RecordedAt time.Time `bun:"recorded_at,notnull" json:"recorded_at"`
}

// EventTask is a planned-work checklist item, separate from the
// hour-tracked tasks_done rows.
type EventTask struct {
	bun.BaseModel `bun:"table:event_tasks"`

	ItemID    string    `bun:"item_id,pk" json:"item_id"`
	EventID   string    `bun:"event_id,notnull" json:"event_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Completed bool      `bun:"completed,notnull,default:false" json:"completed"`
	Position  int       `bun:"position,notnull,default:0" json:"position"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// AdditionalTask is ad hoc work added mid-project. It tracks its own
// hours_done directly instead of per-entry rows.
type AdditionalTask struct {
	bun.BaseModel `bun:"table:additional_tasks"`

	TaskID     string    `bun:"task_id,pk" json:"task_id"`
	EventID    string    `bun:"event_id,notnull" json:"event_id"`
	Name       string    `bun:"name,notnull" json:"name"`
	TotalHours float64   `bun:"total_hours,notnull" json:"total_hours"`
	HoursDone  float64   `bun:"hours_done,notnull,default:0" json:"hours_done"`
	Note       string    `bun:"note" json:"note"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type TaskRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	TotalHours  float64 `json:"total_hours"`
	AssignedTo  string  `json:"assigned_to"`
}

type ProgressEntryRequest struct {
	Hours float64 `json:"hours"`
	Note  string  `json:"note"`
}

type ChecklistItemRequest struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
	Position  int    `json:"position"`
}

type AdditionalTaskRequest struct {
	Name       string  `json:"name"`
	TotalHours float64 `json:"total_hours"`
	HoursDone  float64 `json:"hours_done"`
	Note       string  `json:"note"`
}

// TaskWithProgress pairs a task with its rolled-up entry totals for
// list and report views.
type TaskWithProgress struct {
	Task      TaskDone            `json:"task"`
	HoursDone float64             `json:"hours_done"`
	Percent   float64             `json:"percent"`
	Entries   []TaskProgressEntry `json:"entries,omitempty"`
}
