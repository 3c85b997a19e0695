package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-landscaping/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- EVENTS ----------------

func (d *DB) CreateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("event_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Order("start_date DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEvent writes the editable fields. Status is updated separately so
// lifecycle checks cannot be bypassed through a plain update.
func (d *DB) UpdateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(&event).
		Column("name", "client_name", "location", "description", "start_date", "end_date", "updated_at").
		Where("event_id = ?", event.EventID).
		Exec(ctx)
	return err
}

func (d *DB) UpdateEventStatus(ctx context.Context, id, status string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("status = ?", status).
		Where("event_id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("event_id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) CountEvents(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Count(ctx)
}

// ---------------- SETUP / DIGGING ----------------

func (d *DB) GetSetup(ctx context.Context, eventID string) (*models.SetupDigging, error) {
	var setup models.SetupDigging
	err := d.Bun.NewSelect().
		Model(&setup).
		Where("event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &setup, nil
}

// UpsertSetup keeps the one-row-per-event invariant on the site-prep
// record.
func (d *DB) UpsertSetup(ctx context.Context, setup models.SetupDigging) error {
	_, err := d.Bun.NewInsert().
		Model(&setup).
		On("CONFLICT (event_id) DO UPDATE").
		Set("area_sqm = EXCLUDED.area_sqm").
		Set("depth_cm = EXCLUDED.depth_cm").
		Set("soil_type = EXCLUDED.soil_type").
		Set("notes = EXCLUDED.notes").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
