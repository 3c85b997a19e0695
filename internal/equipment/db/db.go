package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-landscaping/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- EQUIPMENT ----------------

func (d *DB) CreateEquipment(ctx context.Context, item models.Equipment) error {
	_, err := d.Bun.NewInsert().Model(&item).Exec(ctx)
	return err
}

func (d *DB) GetEquipmentByID(ctx context.Context, id string) (*models.Equipment, error) {
	var item models.Equipment
	err := d.Bun.NewSelect().
		Model(&item).
		Where("equipment_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (d *DB) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	var items []models.Equipment
	err := d.Bun.NewSelect().
		Model(&items).
		Order("name").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DB) UpdateEquipment(ctx context.Context, item models.Equipment) error {
	_, err := d.Bun.NewUpdate().
		Model(&item).
		Column("name", "category", "status", "serial_no", "notes").
		Where("equipment_id = ?", item.EquipmentID).
		Exec(ctx)
	return err
}

func (d *DB) UpdateEquipmentStatus(ctx context.Context, id, status string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Equipment)(nil)).
		Set("status = ?", status).
		Where("equipment_id = ?", id).
		Exec(ctx)
	return err
}

// ---------------- USAGE ----------------

func (d *DB) CreateUsage(ctx context.Context, usage models.EquipmentUsage) error {
	_, err := d.Bun.NewInsert().Model(&usage).Exec(ctx)
	return err
}

func (d *DB) GetUsageByID(ctx context.Context, id string) (*models.EquipmentUsage, error) {
	var usage models.EquipmentUsage
	err := d.Bun.NewSelect().
		Model(&usage).
		Where("usage_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

func (d *DB) ListUsageByEvent(ctx context.Context, eventID string) ([]models.EquipmentUsage, error) {
	var usages []models.EquipmentUsage
	err := d.Bun.NewSelect().
		Model(&usages).
		Where("event_id = ?", eventID).
		Order("from_time").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return usages, nil
}

// GetActiveUsageByEquipment returns the unreleased usage for an item, if
// any. At most one exists at a time.
func (d *DB) GetActiveUsageByEquipment(ctx context.Context, equipmentID string) (*models.EquipmentUsage, error) {
	var usage models.EquipmentUsage
	err := d.Bun.NewSelect().
		Model(&usage).
		Where("equipment_id = ?", equipmentID).
		Where("released = ?", false).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

func (d *DB) ReleaseUsage(ctx context.Context, id string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.EquipmentUsage)(nil)).
		Set("released = ?", true).
		Where("usage_id = ?", id).
		Exec(ctx)
	return err
}
