package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-landscaping/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- MATERIALS ----------------

func (d *DB) CreateMaterial(ctx context.Context, material models.MaterialDelivered) error {
	_, err := d.Bun.NewInsert().Model(&material).Exec(ctx)
	return err
}

func (d *DB) GetMaterialByID(ctx context.Context, id string) (*models.MaterialDelivered, error) {
	var material models.MaterialDelivered
	err := d.Bun.NewSelect().
		Model(&material).
		Where("material_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &material, nil
}

func (d *DB) ListMaterialsByEvent(ctx context.Context, eventID string) ([]models.MaterialDelivered, error) {
	var materials []models.MaterialDelivered
	err := d.Bun.NewSelect().
		Model(&materials).
		Where("event_id = ?", eventID).
		Order("created_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return materials, nil
}

func (d *DB) UpdateMaterial(ctx context.Context, material models.MaterialDelivered) error {
	_, err := d.Bun.NewUpdate().
		Model(&material).
		Column("name", "unit", "total_required").
		Where("material_id = ?", material.MaterialID).
		Exec(ctx)
	return err
}

// DeleteMaterial removes the line and its delivery entries together.
func (d *DB) DeleteMaterial(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.MaterialDelivery)(nil)).
			Where("material_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*models.MaterialDelivered)(nil)).
			Where("material_id = ?", id).
			Exec(ctx)
		return err
	})
}

// ---------------- DELIVERIES ----------------

func (d *DB) CreateDelivery(ctx context.Context, delivery models.MaterialDelivery) error {
	_, err := d.Bun.NewInsert().Model(&delivery).Exec(ctx)
	return err
}

func (d *DB) ListDeliveriesByMaterial(ctx context.Context, materialID string) ([]models.MaterialDelivery, error) {
	var deliveries []models.MaterialDelivery
	err := d.Bun.NewSelect().
		Model(&deliveries).
		Where("material_id = ?", materialID).
		Order("delivered_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}

// SumDeliveredByMaterial returns the cumulative delivered amount for one
// material line.
func (d *DB) SumDeliveredByMaterial(ctx context.Context, materialID string) (float64, error) {
	var total float64
	err := d.Bun.NewRaw(
		"SELECT COALESCE(SUM(amount), 0) FROM material_deliveries WHERE material_id = ?",
		materialID).
		Scan(ctx, &total)
	return total, err
}

func (d *DB) CountDeliveries(ctx context.Context, materialID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.MaterialDelivery)(nil)).
		Where("material_id = ?", materialID).
		Count(ctx)
}

// ---------------- ADDITIONAL MATERIALS ----------------

func (d *DB) CreateAdditionalMaterial(ctx context.Context, material models.AdditionalMaterial) error {
	_, err := d.Bun.NewInsert().Model(&material).Exec(ctx)
	return err
}

func (d *DB) GetAdditionalMaterial(ctx context.Context, id string) (*models.AdditionalMaterial, error) {
	var material models.AdditionalMaterial
	err := d.Bun.NewSelect().
		Model(&material).
		Where("material_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &material, nil
}

func (d *DB) ListAdditionalMaterialsByEvent(ctx context.Context, eventID string) ([]models.AdditionalMaterial, error) {
	var materials []models.AdditionalMaterial
	err := d.Bun.NewSelect().
		Model(&materials).
		Where("event_id = ?", eventID).
		Order("created_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return materials, nil
}

func (d *DB) UpdateAdditionalMaterial(ctx context.Context, material models.AdditionalMaterial) error {
	_, err := d.Bun.NewUpdate().
		Model(&material).
		Column("name", "unit", "total_required", "delivered", "note").
		Where("material_id = ?", material.MaterialID).
		Exec(ctx)
	return err
}
