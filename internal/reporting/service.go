// Package reporting aggregates task and material rows into per-event and
// cross-event progress reports, and feeds the rollup back into lifecycle
// derivation.
package reporting

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-landscaping/internal/cache"
	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/models"
	"ms-landscaping/internal/progress"
)

type EntityCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, keys ...string) error
}

// StatusApplier promotes an event's stored status when a rollup moves it
// forward. The events service implements it.
type StatusApplier interface {
	ApplyDerivedStatus(ctx context.Context, event *models.Event, rollup progress.Rollup) (string, error)
}

type Service struct {
	db       *bun.DB
	Cache    EntityCache
	Statuses StatusApplier
	Logger   *logger.Logger
}

func NewService(db *bun.DB, c EntityCache, statuses StatusApplier, log *logger.Logger) *Service {
	return &Service{db: db, Cache: c, Statuses: statuses, Logger: log}
}

// EventReport is the full progress picture for one event.
type EventReport struct {
	Event          models.Event                    `json:"event"`
	DerivedStatus  string                          `json:"derived_status"`
	Rollup         progress.Rollup                 `json:"rollup"`
	Tasks          []models.TaskWithProgress       `json:"tasks"`
	ExtraTasks     []models.AdditionalTask         `json:"extra_tasks"`
	Materials      []models.MaterialWithDeliveries `json:"materials"`
	ExtraMaterials []models.AdditionalMaterial     `json:"extra_materials"`
	ChecklistDone  int                             `json:"checklist_done"`
	ChecklistTotal int                             `json:"checklist_total"`
}

// StatusCount is one row of the overview's per-status breakdown.
type StatusCount struct {
	Status string `bun:"status" json:"status"`
	Count  int    `bun:"cnt" json:"count"`
}

// Overview is the cross-event summary for the dashboard.
type Overview struct {
	TotalEvents     int           `json:"total_events"`
	EventsByStatus  []StatusCount `json:"events_by_status"`
	EquipmentByUse  []StatusCount `json:"equipment_by_status"`
	TotalHoursDone  float64       `json:"total_hours_done"`
	OpenDeliveries  int           `json:"open_deliveries"`
	ActiveEquipment int           `json:"active_equipment"`
}

// GetEventReport assembles the rollup for one event and applies the
// derived status. The report is cached until the next mutation drops it.
func (s *Service) GetEventReport(ctx context.Context, eventID string) (*EventReport, error) {
	var cached EventReport
	if hit, _ := s.Cache.Get(ctx, cache.ReportKey(eventID), &cached); hit {
		return &cached, nil
	}

	var event models.Event
	err := s.db.NewSelect().
		Model(&event).
		Where("event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("event %s not found: %w", eventID, err)
	}

	report := EventReport{Event: event}

	// Hour-budgeted tasks with their entries.
	var taskRows []models.TaskDone
	err = s.db.NewSelect().
		Model(&taskRows).
		Where("event_id = ?", eventID).
		Order("created_at").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	var completions []progress.Completion
	for _, task := range taskRows {
		var entries []models.TaskProgressEntry
		err = s.db.NewSelect().
			Model(&entries).
			Where("task_id = ?", task.TaskID).
			Order("recorded_at").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load entries for task %s: %w", task.TaskID, err)
		}
		c := progress.TaskCompletion(task.TotalHours, entries)
		completions = append(completions, c)
		report.Tasks = append(report.Tasks, models.TaskWithProgress{
			Task:      task,
			HoursDone: c.HoursDone,
			Percent:   c.Percent,
			Entries:   entries,
		})
	}

	// Ad hoc tasks weigh in alongside planned ones.
	err = s.db.NewSelect().
		Model(&report.ExtraTasks).
		Where("event_id = ?", eventID).
		Order("created_at").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load additional tasks: %w", err)
	}
	for _, extra := range report.ExtraTasks {
		completions = append(completions, progress.AdditionalTaskCompletion(extra))
	}

	// Material lines with cumulative deliveries.
	var materialRows []models.MaterialDelivered
	err = s.db.NewSelect().
		Model(&materialRows).
		Where("event_id = ?", eventID).
		Order("created_at").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load materials: %w", err)
	}

	var fulfillments []progress.Fulfillment
	for _, material := range materialRows {
		var deliveries []models.MaterialDelivery
		err = s.db.NewSelect().
			Model(&deliveries).
			Where("material_id = ?", material.MaterialID).
			Order("delivered_at").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load deliveries for material %s: %w", material.MaterialID, err)
		}
		f := progress.MaterialFulfillment(material.TotalRequired, deliveries)
		fulfillments = append(fulfillments, f)
		report.Materials = append(report.Materials, models.MaterialWithDeliveries{
			Material:   material,
			Delivered:  f.Delivered,
			Percent:    f.Percent,
			Deliveries: deliveries,
		})
	}

	err = s.db.NewSelect().
		Model(&report.ExtraMaterials).
		Where("event_id = ?", eventID).
		Order("created_at").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load additional materials: %w", err)
	}
	for _, extra := range report.ExtraMaterials {
		fulfillments = append(fulfillments, progress.AdditionalMaterialFulfillment(extra))
	}

	// Checklist progress is informational and does not weigh in the
	// rollup, matching how the detail screen presents it.
	report.ChecklistTotal, err = s.db.NewSelect().
		Model((*models.EventTask)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count checklist: %w", err)
	}
	report.ChecklistDone, err = s.db.NewSelect().
		Model((*models.EventTask)(nil)).
		Where("event_id = ?", eventID).
		Where("completed = ?", true).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed checklist: %w", err)
	}

	report.Rollup = progress.EventRollup(completions, fulfillments)

	report.DerivedStatus = report.Event.Status
	if s.Statuses != nil {
		derived, err := s.Statuses.ApplyDerivedStatus(ctx, &report.Event, report.Rollup)
		if err != nil {
			s.Logger.Warn("REPORT", fmt.Sprintf("Failed to apply derived status for %s: %v", eventID, err))
		} else {
			report.DerivedStatus = derived
			report.Event.Status = derived
		}
	}

	_ = s.Cache.Set(ctx, cache.ReportKey(eventID), report)
	return &report, nil
}

// GetOverview summarizes the whole operation for the dashboard.
func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	var overview Overview
	var err error

	overview.TotalEvents, err = s.db.NewSelect().
		Model((*models.Event)(nil)).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	err = s.db.NewRaw(
		"SELECT status, COUNT(*) AS cnt FROM events GROUP BY status ORDER BY status").
		Scan(ctx, &overview.EventsByStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to group events by status: %w", err)
	}

	err = s.db.NewRaw(
		"SELECT status, COUNT(*) AS cnt FROM equipment GROUP BY status ORDER BY status").
		Scan(ctx, &overview.EquipmentByUse)
	if err != nil {
		return nil, fmt.Errorf("failed to group equipment by status: %w", err)
	}

	err = s.db.NewRaw(
		"SELECT COALESCE(SUM(hours), 0) FROM task_progress_entries").
		Scan(ctx, &overview.TotalHoursDone)
	if err != nil {
		return nil, fmt.Errorf("failed to sum hours: %w", err)
	}

	err = s.db.NewRaw(`
		SELECT COUNT(*)
		FROM materials_delivered m
		WHERE m.total_required > (
			SELECT COALESCE(SUM(d.amount), 0)
			FROM material_deliveries d
			WHERE d.material_id = m.material_id
		)`).
		Scan(ctx, &overview.OpenDeliveries)
	if err != nil {
		return nil, fmt.Errorf("failed to count open deliveries: %w", err)
	}

	overview.ActiveEquipment, err = s.db.NewSelect().
		Model((*models.EquipmentUsage)(nil)).
		Where("released = ?", false).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active equipment: %w", err)
	}

	return &overview, nil
}
