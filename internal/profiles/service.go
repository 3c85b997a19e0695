// Package profiles stores per-user crew profiles keyed by the
// authenticated subject.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-landscaping/internal/cache"
	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/models"
)

var ErrValidation = errors.New("invalid profile data")

type DBLayer interface {
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile models.Profile) error
}

type EntityCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, keys ...string) error
}

type ProfileService struct {
	DB     DBLayer
	Cache  EntityCache
	Logger *logger.Logger
}

func NewProfileService(db DBLayer, c EntityCache, log *logger.Logger) *ProfileService {
	return &ProfileService{DB: db, Cache: c, Logger: log}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var cached models.Profile
	if hit, _ := s.Cache.Get(ctx, cache.ItemKey("profiles", userID), &cached); hit {
		return &cached, nil
	}

	profile, err := s.DB.GetProfileByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found: %w", userID, err)
	}

	_ = s.Cache.Set(ctx, cache.ItemKey("profiles", userID), profile)
	return profile, nil
}

// SaveProfile upserts the caller's profile. The row key is the subject
// from the token, never from the request body.
func (s *ProfileService) SaveProfile(ctx context.Context, userID string, req models.ProfileRequest) (*models.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrValidation)
	}
	if req.FullName == "" {
		return nil, fmt.Errorf("%w: full_name is required", ErrValidation)
	}

	profile := models.Profile{
		ProfileID: userID,
		FullName:  req.FullName,
		Role:      req.Role,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}
	if err := s.DB.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	_ = s.Cache.Invalidate(ctx, cache.ItemKey("profiles", userID))
	return &profile, nil
}
