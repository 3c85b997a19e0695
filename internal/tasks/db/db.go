package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-landscaping/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- TASKS ----------------

func (d *DB) CreateTask(ctx context.Context, task models.TaskDone) error {
	_, err := d.Bun.NewInsert().Model(&task).Exec(ctx)
	return err
}

func (d *DB) GetTaskByID(ctx context.Context, id string) (*models.TaskDone, error) {
	var task models.TaskDone
	err := d.Bun.NewSelect().
		Model(&task).
		Where("task_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (d *DB) ListTasksByEvent(ctx context.Context, eventID string) ([]models.TaskDone, error) {
	var tasks []models.TaskDone
	err := d.Bun.NewSelect().
		Model(&tasks).
		Where("event_id = ?", eventID).
		Order("created_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (d *DB) UpdateTask(ctx context.Context, task models.TaskDone) error {
	_, err := d.Bun.NewUpdate().
		Model(&task).
		Column("name", "description", "total_hours", "assigned_to").
		Where("task_id = ?", task.TaskID).
		Exec(ctx)
	return err
}

// DeleteTask removes the task and its progress entries in one transaction
// so no orphaned entries survive.
func (d *DB) DeleteTask(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.TaskProgressEntry)(nil)).
			Where("task_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*models.TaskDone)(nil)).
			Where("task_id = ?", id).
			Exec(ctx)
		return err
	})
}

// ---------------- PROGRESS ENTRIES ----------------

func (d *DB) CreateProgressEntry(ctx context.Context, entry models.TaskProgressEntry) error {
	_, err := d.Bun.NewInsert().Model(&entry).Exec(ctx)
	return err
}

func (d *DB) ListEntriesByTask(ctx context.Context, taskID string) ([]models.TaskProgressEntry, error) {
	var entries []models.TaskProgressEntry
	err := d.Bun.NewSelect().
		Model(&entries).
		Where("task_id = ?", taskID).
		Order("recorded_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListEntriesByEvent fetches every entry for an event's tasks in one
// query for the report rollup.
func (d *DB) ListEntriesByEvent(ctx context.Context, eventID string) ([]models.TaskProgressEntry, error) {
	var entries []models.TaskProgressEntry
	err := d.Bun.NewSelect().
		Model(&entries).
		Join("JOIN tasks_done AS t ON t.task_id = task_progress_entry.task_id").
		Where("t.event_id = ?", eventID).
		Order("recorded_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ---------------- CHECKLIST ----------------

func (d *DB) CreateChecklistItem(ctx context.Context, item models.EventTask) error {
	_, err := d.Bun.NewInsert().Model(&item).Exec(ctx)
	return err
}

func (d *DB) ListChecklistByEvent(ctx context.Context, eventID string) ([]models.EventTask, error) {
	var items []models.EventTask
	err := d.Bun.NewSelect().
		Model(&items).
		Where("event_id = ?", eventID).
		Order("position", "created_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DB) GetChecklistItem(ctx context.Context, id string) (*models.EventTask, error) {
	var item models.EventTask
	err := d.Bun.NewSelect().
		Model(&item).
		Where("item_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (d *DB) UpdateChecklistItem(ctx context.Context, item models.EventTask) error {
	_, err := d.Bun.NewUpdate().
		Model(&item).
		Column("name", "completed", "position").
		Where("item_id = ?", item.ItemID).
		Exec(ctx)
	return err
}

// ---------------- ADDITIONAL TASKS ----------------

func (d *DB) CreateAdditionalTask(ctx context.Context, task models.AdditionalTask) error {
	_, err := d.Bun.NewInsert().Model(&task).Exec(ctx)
	return err
}

func (d *DB) GetAdditionalTask(ctx context.Context, id string) (*models.AdditionalTask, error) {
	var task models.AdditionalTask
	err := d.Bun.NewSelect().
		Model(&task).
		Where("task_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (d *DB) ListAdditionalTasksByEvent(ctx context.Context, eventID string) ([]models.AdditionalTask, error) {
	var tasks []models.AdditionalTask
	err := d.Bun.NewSelect().
		Model(&tasks).
		Where("event_id = ?", eventID).
		Order("created_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (d *DB) UpdateAdditionalTask(ctx context.Context, task models.AdditionalTask) error {
	_, err := d.Bun.NewUpdate().
		Model(&task).
		Column("name", "total_hours", "hours_done", "note").
		Where("task_id = ?", task.TaskID).
		Exec(ctx)
	return err
}
