package progress_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-landscaping/internal/models"
	"ms-landscaping/internal/progress"
)

func entries(hours ...float64) []models.TaskProgressEntry {
	out := make([]models.TaskProgressEntry, len(hours))
	for i, h := range hours {
		out[i] = models.TaskProgressEntry{Hours: h, RecordedAt: time.Now()}
	}
	return out
}

func deliveries(amounts ...float64) []models.MaterialDelivery {
	out := make([]models.MaterialDelivery, len(amounts))
	for i, a := range amounts {
		out[i] = models.MaterialDelivery{Amount: a, DeliveredAt: time.Now()}
	}
	return out
}

func TestTaskCompletion(t *testing.T) {
	c := progress.TaskCompletion(10, entries(2.5, 3.5))
	assert.Equal(t, 6.0, c.HoursDone)
	assert.Equal(t, 60.0, c.Percent)

	// Over-entry clamps at 100 but keeps the real hours.
	c = progress.TaskCompletion(4, entries(3, 3))
	assert.Equal(t, 6.0, c.HoursDone)
	assert.Equal(t, 100.0, c.Percent)

	// No budget: done once any work is logged.
	c = progress.TaskCompletion(0, entries(1))
	assert.Equal(t, 100.0, c.Percent)

	c = progress.TaskCompletion(0, nil)
	assert.Equal(t, 0.0, c.Percent)
}

func TestMaterialFulfillment(t *testing.T) {
	f := progress.MaterialFulfillment(100, deliveries(40, 35))
	assert.Equal(t, 75.0, f.Delivered)
	assert.Equal(t, 75.0, f.Percent)

	// Historical over-delivery rows clamp rather than exceed 100.
	f = progress.MaterialFulfillment(50, deliveries(30, 30))
	assert.Equal(t, 60.0, f.Delivered)
	assert.Equal(t, 100.0, f.Percent)

	f = progress.MaterialFulfillment(0, nil)
	assert.Equal(t, 0.0, f.Percent)
}

func TestEventRollup(t *testing.T) {
	tasks := []progress.Completion{
		{HoursBudgeted: 10, HoursDone: 10, Percent: 100},
		{HoursBudgeted: 10, HoursDone: 5, Percent: 50},
	}
	materials := []progress.Fulfillment{
		{Required: 100, Delivered: 50, Percent: 50},
	}

	r := progress.EventRollup(tasks, materials)
	assert.Equal(t, 75.0, r.TaskPercent)
	assert.Equal(t, 50.0, r.MaterialPercent)
	assert.InDelta(t, 66.67, r.OverallPercent, 0.01)
	assert.Equal(t, 20.0, r.HoursBudgeted)
	assert.Equal(t, 15.0, r.HoursDone)
	assert.Equal(t, 3, r.LineCount)
}

func TestEventRollupEmpty(t *testing.T) {
	r := progress.EventRollup(nil, nil)
	assert.Equal(t, 0.0, r.OverallPercent)
	assert.Equal(t, 0, r.LineCount)
}

func TestDeriveStatus(t *testing.T) {
	now := time.Now()
	future := now.Add(48 * time.Hour)
	past := now.Add(-48 * time.Hour)

	// Nothing logged, start date not reached: still planned.
	assert.Equal(t, models.EventStatusPlanned,
		progress.DeriveStatus(models.EventStatusPlanned, 0, now, future))

	// Start date reached moves to in_progress even with no entries.
	assert.Equal(t, models.EventStatusInProgress,
		progress.DeriveStatus(models.EventStatusPlanned, 0, now, past))

	// Any progress moves to in_progress regardless of dates.
	assert.Equal(t, models.EventStatusInProgress,
		progress.DeriveStatus(models.EventStatusPlanned, 10, now, future))

	// Full rollup completes the event.
	assert.Equal(t, models.EventStatusCompleted,
		progress.DeriveStatus(models.EventStatusInProgress, 100, now, past))

	// Derivation never downgrades a stored status.
	assert.Equal(t, models.EventStatusCompleted,
		progress.DeriveStatus(models.EventStatusCompleted, 40, now, past))

	// Cancelled is sticky.
	assert.Equal(t, models.EventStatusCancelled,
		progress.DeriveStatus(models.EventStatusCancelled, 100, now, past))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, progress.CanTransition(models.EventStatusPlanned, models.EventStatusInProgress))
	assert.True(t, progress.CanTransition(models.EventStatusPlanned, models.EventStatusCompleted))
	assert.True(t, progress.CanTransition(models.EventStatusInProgress, models.EventStatusCompleted))
	assert.True(t, progress.CanTransition(models.EventStatusInProgress, models.EventStatusCancelled))

	// Backward moves are rejected.
	assert.False(t, progress.CanTransition(models.EventStatusInProgress, models.EventStatusPlanned))
	assert.False(t, progress.CanTransition(models.EventStatusCompleted, models.EventStatusInProgress))

	// Terminal states stay terminal.
	assert.False(t, progress.CanTransition(models.EventStatusCompleted, models.EventStatusCancelled))
	assert.False(t, progress.CanTransition(models.EventStatusCancelled, models.EventStatusInProgress))

	assert.False(t, progress.CanTransition("bogus", models.EventStatusCompleted))
	assert.False(t, progress.CanTransition(models.EventStatusPlanned, models.EventStatusPlanned))
}
