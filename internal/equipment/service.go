package equipment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-landscaping/internal/cache"
	"ms-landscaping/internal/equipment/qr"
	"ms-landscaping/internal/kafka"
	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/models"
	"ms-landscaping/internal/utils"
)

var (
	ErrValidation  = errors.New("invalid equipment data")
	ErrUnavailable = errors.New("equipment is not available")
)

type DBLayer interface {
	CreateEquipment(ctx context.Context, item models.Equipment) error
	GetEquipmentByID(ctx context.Context, id string) (*models.Equipment, error)
	ListEquipment(ctx context.Context) ([]models.Equipment, error)
	UpdateEquipment(ctx context.Context, item models.Equipment) error
	UpdateEquipmentStatus(ctx context.Context, id, status string) error
	CreateUsage(ctx context.Context, usage models.EquipmentUsage) error
	GetUsageByID(ctx context.Context, id string) (*models.EquipmentUsage, error)
	ListUsageByEvent(ctx context.Context, eventID string) ([]models.EquipmentUsage, error)
	GetActiveUsageByEquipment(ctx context.Context, equipmentID string) (*models.EquipmentUsage, error)
	ReleaseUsage(ctx context.Context, id string) error
}

// HoldStore is the Redis reservation layer guarding assignments against
// double checkout.
type HoldStore interface {
	HoldFor(equipmentID, usageID string, d time.Duration) (bool, error)
	Release(equipmentID, usageID string) error
	CheckAvailability(equipmentID string) (bool, error)
}

type EntityCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, keys ...string) error
}

type ChangePublisher interface {
	PublishChange(topic string, event kafka.ChangeEvent) error
}

type EquipmentService struct {
	DB        DBLayer
	Holds     HoldStore
	Cache     EntityCache
	Publisher ChangePublisher
	Tags      *qr.TagGenerator
	Topic     string
	Origin    string
	Logger    *logger.Logger
}

func NewEquipmentService(db DBLayer, holds HoldStore, c EntityCache, pub ChangePublisher, tags *qr.TagGenerator, topic, origin string, log *logger.Logger) *EquipmentService {
	return &EquipmentService{DB: db, Holds: holds, Cache: c, Publisher: pub, Tags: tags, Topic: topic, Origin: origin, Logger: log}
}

// ---------------- INVENTORY ----------------

func (s *EquipmentService) CreateEquipment(ctx context.Context, req models.EquipmentRequest) (*models.Equipment, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	status := req.Status
	if status == "" {
		status = models.EquipmentStatusAvailable
	}
	if !validEquipmentStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	item := models.Equipment{
		EquipmentID: utils.NewID(),
		Name:        req.Name,
		Category:    req.Category,
		Status:      status,
		SerialNo:    req.SerialNo,
		Notes:       req.Notes,
		CreatedAt:   time.Now(),
	}
	if err := s.DB.CreateEquipment(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create equipment: %w", err)
	}

	s.invalidate(ctx, "", item.EquipmentID, "created")
	return &item, nil
}

func (s *EquipmentService) GetEquipment(ctx context.Context, id string) (*models.Equipment, error) {
	var cached models.Equipment
	if hit, _ := s.Cache.Get(ctx, cache.ItemKey("equipment", id), &cached); hit {
		return &cached, nil
	}

	item, err := s.DB.GetEquipmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("equipment %s not found: %w", id, err)
	}

	_ = s.Cache.Set(ctx, cache.ItemKey("equipment", id), item)
	return item, nil
}

func (s *EquipmentService) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	var cached []models.Equipment
	if hit, _ := s.Cache.Get(ctx, cache.ListKey("equipment", ""), &cached); hit {
		return cached, nil
	}

	items, err := s.DB.ListEquipment(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}

	_ = s.Cache.Set(ctx, cache.ListKey("equipment", ""), items)
	return items, nil
}

func (s *EquipmentService) UpdateEquipment(ctx context.Context, id string, req models.EquipmentRequest) (*models.Equipment, error) {
	item, err := s.DB.GetEquipmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("equipment %s not found: %w", id, err)
	}

	if req.Status != "" {
		if !validEquipmentStatus(req.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
		}
		// in_use is derived from assignments, not set by hand.
		if req.Status == models.EquipmentStatusInUse && item.Status != models.EquipmentStatusInUse {
			return nil, fmt.Errorf("%w: in_use is set by assignment", ErrValidation)
		}
		item.Status = req.Status
	}
	if req.Name != "" {
		item.Name = req.Name
	}
	item.Category = req.Category
	item.SerialNo = req.SerialNo
	item.Notes = req.Notes

	if err := s.DB.UpdateEquipment(ctx, *item); err != nil {
		return nil, fmt.Errorf("failed to update equipment: %w", err)
	}

	s.invalidate(ctx, "", id, "updated")
	return item, nil
}

// GenerateTag renders the printable QR asset tag for one item.
func (s *EquipmentService) GenerateTag(ctx context.Context, id string) ([]byte, error) {
	item, err := s.DB.GetEquipmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("equipment %s not found: %w", id, err)
	}
	return s.Tags.GenerateTag(*item)
}

// ---------------- ASSIGNMENT ----------------

// Assign checks out one equipment item to an event. The Redis hold guards
// the critical section and doubles as the auto-return timer: it lives
// until the booked to_time, and its expiry releases an assignment nobody
// returned by hand.
func (s *EquipmentService) Assign(ctx context.Context, eventID string, req models.AssignEquipmentRequest, assignedBy string) (*models.EquipmentUsage, error) {
	if req.EquipmentID == "" {
		return nil, fmt.Errorf("%w: equipment_id is required", ErrValidation)
	}

	item, err := s.DB.GetEquipmentByID(ctx, req.EquipmentID)
	if err != nil {
		return nil, fmt.Errorf("equipment %s not found: %w", req.EquipmentID, err)
	}
	if item.Status != models.EquipmentStatusAvailable {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnavailable, item.Name, item.Status)
	}

	usageID := utils.NewID()

	holdDuration := time.Duration(0) // store default
	if !req.ToTime.IsZero() {
		holdDuration = time.Until(req.ToTime)
		if holdDuration <= 0 {
			return nil, fmt.Errorf("%w: to_time is in the past", ErrValidation)
		}
	}

	ok, err := s.Holds.HoldFor(req.EquipmentID, usageID, holdDuration)
	if err != nil {
		return nil, fmt.Errorf("hold error: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is already on hold", ErrUnavailable, item.Name)
	}

	fromTime := req.FromTime
	if fromTime.IsZero() {
		fromTime = time.Now()
	}

	usage := models.EquipmentUsage{
		UsageID:     usageID,
		EquipmentID: req.EquipmentID,
		EventID:     eventID,
		AssignedBy:  assignedBy,
		FromTime:    fromTime,
		ToTime:      req.ToTime,
		Released:    false,
	}
	if err := s.DB.CreateUsage(ctx, usage); err != nil {
		// Roll the hold back so the item is not stuck until expiry.
		_ = s.Holds.Release(req.EquipmentID, usageID)
		return nil, fmt.Errorf("failed to create usage: %w", err)
	}

	if err := s.DB.UpdateEquipmentStatus(ctx, req.EquipmentID, models.EquipmentStatusInUse); err != nil {
		return nil, fmt.Errorf("failed to mark equipment in use: %w", err)
	}

	s.Logger.LogEquipment("ASSIGN", req.EquipmentID, fmt.Sprintf("assigned to event %s as usage %s", eventID, usageID))
	s.invalidate(ctx, eventID, req.EquipmentID, "assigned")
	return &usage, nil
}

// Release returns an assignment by hand before its hold expires.
func (s *EquipmentService) Release(ctx context.Context, usageID string) error {
	usage, err := s.DB.GetUsageByID(ctx, usageID)
	if err != nil {
		return fmt.Errorf("usage %s not found: %w", usageID, err)
	}
	if usage.Released {
		return fmt.Errorf("%w: usage %s already released", ErrValidation, usageID)
	}

	if err := s.DB.ReleaseUsage(ctx, usageID); err != nil {
		return fmt.Errorf("failed to release usage %s: %w", usageID, err)
	}
	if err := s.DB.UpdateEquipmentStatus(ctx, usage.EquipmentID, models.EquipmentStatusAvailable); err != nil {
		return fmt.Errorf("failed to mark equipment available: %w", err)
	}
	if err := s.Holds.Release(usage.EquipmentID, usageID); err != nil {
		s.Logger.Warn("EQUIPMENT", fmt.Sprintf("Failed to drop hold for %s: %v", usage.EquipmentID, err))
	}

	s.Logger.LogEquipment("RELEASE", usage.EquipmentID, fmt.Sprintf("usage %s released", usageID))
	s.invalidate(ctx, usage.EventID, usage.EquipmentID, "released")
	return nil
}

// ReleaseExpired handles a hold-expiry notification: an assignment nobody
// returned is auto-released, mirroring a checkout window running out.
func (s *EquipmentService) ReleaseExpired(ctx context.Context, equipmentID string) error {
	usage, err := s.DB.GetActiveUsageByEquipment(ctx, equipmentID)
	if err != nil {
		// No active usage: the hold expired before the assignment was
		// committed, nothing to repair.
		return nil
	}

	if err := s.DB.ReleaseUsage(ctx, usage.UsageID); err != nil {
		return fmt.Errorf("failed to release expired usage %s: %w", usage.UsageID, err)
	}
	if err := s.DB.UpdateEquipmentStatus(ctx, equipmentID, models.EquipmentStatusAvailable); err != nil {
		return fmt.Errorf("failed to mark equipment available: %w", err)
	}

	s.Logger.LogEquipment("AUTO_RELEASE", equipmentID, fmt.Sprintf("hold expired, usage %s released", usage.UsageID))
	s.invalidate(ctx, usage.EventID, equipmentID, "auto_released")
	return nil
}

func (s *EquipmentService) ListUsageByEvent(ctx context.Context, eventID string) ([]models.EquipmentUsage, error) {
	return s.DB.ListUsageByEvent(ctx, eventID)
}

func validEquipmentStatus(status string) bool {
	switch status {
	case models.EquipmentStatusAvailable, models.EquipmentStatusInUse,
		models.EquipmentStatusMaintenance, models.EquipmentStatusRetired:
		return true
	}
	return false
}

func (s *EquipmentService) invalidate(ctx context.Context, eventID, equipmentID, action string) {
	keys := []string{
		cache.ListKey("equipment", ""),
		cache.ItemKey("equipment", equipmentID),
	}
	if eventID != "" {
		keys = append(keys, cache.ListKey("equipment_usage", eventID), cache.ReportKey(eventID))
	}
	_ = s.Cache.Invalidate(ctx, keys...)

	if s.Publisher == nil {
		return
	}
	err := s.Publisher.PublishChange(s.Topic, kafka.ChangeEvent{
		Entity:    "equipment",
		ID:        equipmentID,
		Action:    action,
		CacheKeys: keys,
		Origin:    s.Origin,
	})
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish equipment change: %v", err))
	}
}
