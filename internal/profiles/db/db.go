package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-landscaping/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	err := d.Bun.NewSelect().
		Model(&profile).
		Where("profile_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpsertProfile inserts a profile row or refreshes the editable columns
// when the subject already has one.
func (d *DB) UpsertProfile(ctx context.Context, profile models.Profile) error {
	_, err := d.Bun.NewInsert().
		Model(&profile).
		On("CONFLICT (profile_id) DO UPDATE").
		Set("full_name = EXCLUDED.full_name").
		Set("role = EXCLUDED.role").
		Set("phone = EXCLUDED.phone").
		Exec(ctx)
	return err
}
