// Package progress holds the completion arithmetic shared by the task,
// material and reporting services: per-task hour ratios, cumulative
// delivery rollups, the event-wide rollup, and lifecycle-status
// derivation from those totals.
package progress

import (
	"time"

	"ms-landscaping/internal/models"
)

// Completion is the rolled-up state of one hour-budgeted task.
type Completion struct {
	HoursBudgeted float64 `json:"hours_budgeted"`
	HoursDone     float64 `json:"hours_done"`
	Percent       float64 `json:"percent"`
}

// Fulfillment is the rolled-up state of one required-material line.
type Fulfillment struct {
	Required  float64 `json:"required"`
	Delivered float64 `json:"delivered"`
	Percent   float64 `json:"percent"`
}

// Rollup aggregates every tracked line of an event into one number.
type Rollup struct {
	TaskPercent     float64 `json:"task_percent"`
	MaterialPercent float64 `json:"material_percent"`
	OverallPercent  float64 `json:"overall_percent"`
	HoursBudgeted   float64 `json:"hours_budgeted"`
	HoursDone       float64 `json:"hours_done"`
	LineCount       int     `json:"line_count"`
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// TaskCompletion sums the hours of all progress entries against a task and
// derives the completion percent, clamped to [0,100]. A task with no hour
// budget counts as complete once any work is logged against it.
func TaskCompletion(totalHours float64, entries []models.TaskProgressEntry) Completion {
	var done float64
	for _, e := range entries {
		done += e.Hours
	}
	c := Completion{HoursBudgeted: totalHours, HoursDone: done}
	if totalHours <= 0 {
		if done > 0 {
			c.Percent = 100
		}
		return c
	}
	c.Percent = clampPercent(done / totalHours * 100)
	return c
}

// AdditionalTaskCompletion derives completion for an ad hoc task that
// tracks hours_done directly instead of per-entry rows.
func AdditionalTaskCompletion(t models.AdditionalTask) Completion {
	c := Completion{HoursBudgeted: t.TotalHours, HoursDone: t.HoursDone}
	if t.TotalHours <= 0 {
		if t.HoursDone > 0 {
			c.Percent = 100
		}
		return c
	}
	c.Percent = clampPercent(t.HoursDone / t.TotalHours * 100)
	return c
}

// MaterialFulfillment rolls per-entry deliveries into a cumulative total
// and derives the fulfillment percent, clamped to [0,100].
func MaterialFulfillment(required float64, deliveries []models.MaterialDelivery) Fulfillment {
	var delivered float64
	for _, d := range deliveries {
		delivered += d.Amount
	}
	return fulfillment(required, delivered)
}

// AdditionalMaterialFulfillment derives fulfillment for an ad hoc material
// whose delivered total lives on the row itself.
func AdditionalMaterialFulfillment(m models.AdditionalMaterial) Fulfillment {
	return fulfillment(m.TotalRequired, m.Delivered)
}

func fulfillment(required, delivered float64) Fulfillment {
	f := Fulfillment{Required: required, Delivered: delivered}
	if required <= 0 {
		if delivered > 0 {
			f.Percent = 100
		}
		return f
	}
	f.Percent = clampPercent(delivered / required * 100)
	return f
}

// EventRollup folds every tracked line of an event into one overall
// percent. Tasks, additional tasks, materials and additional materials
// all weigh equally, one line one vote. An event with no lines is 0.
func EventRollup(tasks []Completion, materials []Fulfillment) Rollup {
	var r Rollup
	var taskSum, materialSum float64

	for _, t := range tasks {
		taskSum += t.Percent
		r.HoursBudgeted += t.HoursBudgeted
		r.HoursDone += t.HoursDone
	}
	for _, m := range materials {
		materialSum += m.Percent
	}

	if len(tasks) > 0 {
		r.TaskPercent = taskSum / float64(len(tasks))
	}
	if len(materials) > 0 {
		r.MaterialPercent = materialSum / float64(len(materials))
	}

	r.LineCount = len(tasks) + len(materials)
	if r.LineCount > 0 {
		r.OverallPercent = (taskSum + materialSum) / float64(r.LineCount)
	}
	return r
}

// DeriveStatus maps a rollup onto the event lifecycle. The result never
// moves backward from the stored status, and cancelled is sticky: deleting
// a progress entry cannot resurrect or demote an event.
func DeriveStatus(stored string, overall float64, now, start time.Time) string {
	if stored == models.EventStatusCancelled {
		return stored
	}

	derived := models.EventStatusPlanned
	switch {
	case overall >= 100:
		derived = models.EventStatusCompleted
	case overall > 0 || !now.Before(start):
		derived = models.EventStatusInProgress
	}

	if models.StatusRank(derived) < models.StatusRank(stored) {
		return stored
	}
	return derived
}

// CanTransition reports whether a stored status may be replaced by next.
// Only forward moves are allowed; cancelled is reachable from planned and
// in_progress and is terminal.
func CanTransition(current, next string) bool {
	cr, nr := models.StatusRank(current), models.StatusRank(next)
	if cr < 0 || nr < 0 {
		return false
	}
	if current == models.EventStatusCancelled || current == models.EventStatusCompleted {
		return false
	}
	if next == models.EventStatusCancelled {
		return true
	}
	return nr > cr
}
