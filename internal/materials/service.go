package materials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-landscaping/internal/cache"
	"ms-landscaping/internal/kafka"
	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/models"
	"ms-landscaping/internal/progress"
	"ms-landscaping/internal/utils"
)

var (
	ErrValidation   = errors.New("invalid material data")
	ErrOverDelivery = errors.New("delivery exceeds total required")
)

type DBLayer interface {
	CreateMaterial(ctx context.Context, material models.MaterialDelivered) error
	GetMaterialByID(ctx context.Context, id string) (*models.MaterialDelivered, error)
	ListMaterialsByEvent(ctx context.Context, eventID string) ([]models.MaterialDelivered, error)
	UpdateMaterial(ctx context.Context, material models.MaterialDelivered) error
	DeleteMaterial(ctx context.Context, id string) error
	CreateDelivery(ctx context.Context, delivery models.MaterialDelivery) error
	ListDeliveriesByMaterial(ctx context.Context, materialID string) ([]models.MaterialDelivery, error)
	SumDeliveredByMaterial(ctx context.Context, materialID string) (float64, error)
	CountDeliveries(ctx context.Context, materialID string) (int, error)
	CreateAdditionalMaterial(ctx context.Context, material models.AdditionalMaterial) error
	GetAdditionalMaterial(ctx context.Context, id string) (*models.AdditionalMaterial, error)
	ListAdditionalMaterialsByEvent(ctx context.Context, eventID string) ([]models.AdditionalMaterial, error)
	UpdateAdditionalMaterial(ctx context.Context, material models.AdditionalMaterial) error
}

type EntityCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, keys ...string) error
}

type ChangePublisher interface {
	PublishChange(topic string, event kafka.ChangeEvent) error
}

type MaterialService struct {
	DB        DBLayer
	Cache     EntityCache
	Publisher ChangePublisher
	Topic     string
	Origin    string
	Logger    *logger.Logger
}

func NewMaterialService(db DBLayer, c EntityCache, pub ChangePublisher, topic, origin string, log *logger.Logger) *MaterialService {
	return &MaterialService{DB: db, Cache: c, Publisher: pub, Topic: topic, Origin: origin, Logger: log}
}

// ---------------- MATERIALS ----------------

func (s *MaterialService) CreateMaterial(ctx context.Context, eventID string, req models.MaterialRequest) (*models.MaterialDelivered, error) {
	if req.Name == "" || req.Unit == "" {
		return nil, fmt.Errorf("%w: name and unit are required", ErrValidation)
	}
	if req.TotalRequired <= 0 {
		return nil, fmt.Errorf("%w: total_required must be positive", ErrValidation)
	}

	material := models.MaterialDelivered{
		MaterialID:    utils.NewID(),
		EventID:       eventID,
		Name:          req.Name,
		Unit:          req.Unit,
		TotalRequired: req.TotalRequired,
		CreatedAt:     time.Now(),
	}
	if err := s.DB.CreateMaterial(ctx, material); err != nil {
		return nil, fmt.Errorf("failed to create material: %w", err)
	}

	s.invalidate(ctx, eventID, material.MaterialID, "created")
	return &material, nil
}

// ListMaterials returns each material line with its cumulative delivered
// total. The list is cached per event.
func (s *MaterialService) ListMaterials(ctx context.Context, eventID string) ([]models.MaterialWithDeliveries, error) {
	key := cache.ListKey("materials_delivered", eventID)
	var cached []models.MaterialWithDeliveries
	if hit, _ := s.Cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	materials, err := s.DB.ListMaterialsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}

	out := make([]models.MaterialWithDeliveries, 0, len(materials))
	for _, material := range materials {
		deliveries, err := s.DB.ListDeliveriesByMaterial(ctx, material.MaterialID)
		if err != nil {
			return nil, fmt.Errorf("failed to load deliveries for material %s: %w", material.MaterialID, err)
		}
		f := progress.MaterialFulfillment(material.TotalRequired, deliveries)
		out = append(out, models.MaterialWithDeliveries{
			Material:   material,
			Delivered:  f.Delivered,
			Percent:    f.Percent,
			Deliveries: deliveries,
		})
	}

	_ = s.Cache.Set(ctx, key, out)
	return out, nil
}

func (s *MaterialService) UpdateMaterial(ctx context.Context, id string, req models.MaterialRequest) (*models.MaterialDelivered, error) {
	material, err := s.DB.GetMaterialByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("material %s not found: %w", id, err)
	}
	if req.TotalRequired <= 0 {
		return nil, fmt.Errorf("%w: total_required must be positive", ErrValidation)
	}

	// Shrinking the requirement below what is already on site would break
	// the delivered <= required invariant retroactively.
	delivered, err := s.DB.SumDeliveredByMaterial(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to sum deliveries: %w", err)
	}
	if req.TotalRequired < delivered {
		return nil, fmt.Errorf("%w: total_required %.2f below delivered %.2f", ErrValidation, req.TotalRequired, delivered)
	}

	if req.Name != "" {
		material.Name = req.Name
	}
	if req.Unit != "" {
		material.Unit = req.Unit
	}
	material.TotalRequired = req.TotalRequired

	if err := s.DB.UpdateMaterial(ctx, *material); err != nil {
		return nil, fmt.Errorf("failed to update material: %w", err)
	}

	s.invalidate(ctx, material.EventID, id, "updated")
	return material, nil
}

func (s *MaterialService) DeleteMaterial(ctx context.Context, id string) error {
	material, err := s.DB.GetMaterialByID(ctx, id)
	if err != nil {
		return fmt.Errorf("material %s not found: %w", id, err)
	}
	if err := s.DB.DeleteMaterial(ctx, id); err != nil {
		return fmt.Errorf("failed to delete material %s: %w", id, err)
	}

	s.invalidate(ctx, material.EventID, id, "deleted")
	return nil
}

// ---------------- DELIVERIES ----------------

// RecordDelivery appends a delivery entry after checking that the new
// cumulative total stays within the requirement, and returns the line's
// updated fulfillment.
func (s *MaterialService) RecordDelivery(ctx context.Context, materialID string, req models.DeliveryRequest, deliveredBy string) (*progress.Fulfillment, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	material, err := s.DB.GetMaterialByID(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("material %s not found: %w", materialID, err)
	}

	delivered, err := s.DB.SumDeliveredByMaterial(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum deliveries: %w", err)
	}
	if delivered+req.Amount > material.TotalRequired {
		return nil, fmt.Errorf("%w: %.2f + %.2f exceeds required %.2f %s",
			ErrOverDelivery, delivered, req.Amount, material.TotalRequired, material.Unit)
	}

	note := req.Note
	if note == "" {
		seq, err := s.DB.CountDeliveries(ctx, materialID)
		if err != nil {
			return nil, fmt.Errorf("failed to count deliveries: %w", err)
		}
		note = utils.NewDeliveryRef(int64(seq) + 1)
	}

	delivery := models.MaterialDelivery{
		DeliveryID:  utils.NewID(),
		MaterialID:  materialID,
		Amount:      req.Amount,
		Note:        note,
		DeliveredBy: deliveredBy,
		DeliveredAt: time.Now(),
	}
	if err := s.DB.CreateDelivery(ctx, delivery); err != nil {
		return nil, fmt.Errorf("failed to record delivery: %w", err)
	}

	deliveries, err := s.DB.ListDeliveriesByMaterial(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload deliveries: %w", err)
	}
	fulfillment := progress.MaterialFulfillment(material.TotalRequired, deliveries)

	s.invalidate(ctx, material.EventID, materialID, "delivery_recorded")
	return &fulfillment, nil
}

func (s *MaterialService) ListDeliveries(ctx context.Context, materialID string) ([]models.MaterialDelivery, error) {
	if _, err := s.DB.GetMaterialByID(ctx, materialID); err != nil {
		return nil, fmt.Errorf("material %s not found: %w", materialID, err)
	}
	return s.DB.ListDeliveriesByMaterial(ctx, materialID)
}

// ---------------- ADDITIONAL MATERIALS ----------------

func (s *MaterialService) AddAdditionalMaterial(ctx context.Context, eventID string, req models.AdditionalMaterialRequest) (*models.AdditionalMaterial, error) {
	if req.Name == "" || req.Unit == "" {
		return nil, fmt.Errorf("%w: name and unit are required", ErrValidation)
	}
	if req.TotalRequired < 0 || req.Delivered < 0 {
		return nil, fmt.Errorf("%w: amounts cannot be negative", ErrValidation)
	}
	if req.Delivered > req.TotalRequired {
		return nil, fmt.Errorf("%w: delivered %.2f exceeds required %.2f", ErrOverDelivery, req.Delivered, req.TotalRequired)
	}

	material := models.AdditionalMaterial{
		MaterialID:    utils.NewID(),
		EventID:       eventID,
		Name:          req.Name,
		Unit:          req.Unit,
		TotalRequired: req.TotalRequired,
		Delivered:     req.Delivered,
		Note:          req.Note,
		CreatedAt:     time.Now(),
	}
	if err := s.DB.CreateAdditionalMaterial(ctx, material); err != nil {
		return nil, fmt.Errorf("failed to add additional material: %w", err)
	}

	s.invalidate(ctx, eventID, material.MaterialID, "extra_added")
	return &material, nil
}

func (s *MaterialService) ListAdditionalMaterials(ctx context.Context, eventID string) ([]models.AdditionalMaterial, error) {
	return s.DB.ListAdditionalMaterialsByEvent(ctx, eventID)
}

func (s *MaterialService) UpdateAdditionalMaterial(ctx context.Context, id string, req models.AdditionalMaterialRequest) (*models.AdditionalMaterial, error) {
	material, err := s.DB.GetAdditionalMaterial(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("additional material %s not found: %w", id, err)
	}
	if req.TotalRequired < 0 || req.Delivered < 0 {
		return nil, fmt.Errorf("%w: amounts cannot be negative", ErrValidation)
	}
	if req.Delivered > req.TotalRequired {
		return nil, fmt.Errorf("%w: delivered %.2f exceeds required %.2f", ErrOverDelivery, req.Delivered, req.TotalRequired)
	}

	if req.Name != "" {
		material.Name = req.Name
	}
	if req.Unit != "" {
		material.Unit = req.Unit
	}
	material.TotalRequired = req.TotalRequired
	material.Delivered = req.Delivered
	material.Note = req.Note

	if err := s.DB.UpdateAdditionalMaterial(ctx, *material); err != nil {
		return nil, fmt.Errorf("failed to update additional material: %w", err)
	}

	s.invalidate(ctx, material.EventID, id, "extra_updated")
	return material, nil
}

func (s *MaterialService) invalidate(ctx context.Context, eventID, id, action string) {
	keys := []string{
		cache.ListKey("materials_delivered", eventID),
		cache.ListKey("additional_materials", eventID),
		cache.ReportKey(eventID),
	}
	_ = s.Cache.Invalidate(ctx, keys...)

	if s.Publisher == nil {
		return
	}
	err := s.Publisher.PublishChange(s.Topic, kafka.ChangeEvent{
		Entity:    "materials",
		ID:        id,
		Action:    action,
		CacheKeys: keys,
		Origin:    s.Origin,
	})
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish material change: %v", err))
	}
}
