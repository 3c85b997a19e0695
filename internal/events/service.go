package events

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
	ErrInvalidTransition = errors.New("status transition is not allowed")
	ErrValidation        = errors.New("invalid event data")
)

type DBLayer interface {
	CreateEvent(ctx context.Context, event models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	UpdateEvent(ctx context.Context, event models.Event) error
	UpdateEventStatus(ctx context.Context, id, status string) error
	DeleteEvent(ctx context.Context, id string) error
	CountEvents(ctx context.Context) (int, error)
	GetSetup(ctx context.Context, eventID string) (*models.SetupDigging, error)
	UpsertSetup(ctx context.Context, setup models.SetupDigging) error
}

type EntityCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, keys ...string) error
}

type ChangePublisher interface {
	PublishChange(topic string, event kafka.ChangeEvent) error
}

type EventService struct {
	DB        DBLayer
	Cache     EntityCache
	Publisher ChangePublisher
	Topic     string
	Origin    string
	Logger    *logger.Logger
}

func NewEventService(db DBLayer, c EntityCache, pub ChangePublisher, topic, origin string, log *logger.Logger) *EventService {
	return &EventService{DB: db, Cache: c, Publisher: pub, Topic: topic, Origin: origin, Logger: log}
}

func (s *EventService) CreateEvent(ctx context.Context, req models.EventRequest, createdBy string) (*models.Event, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end_date precedes start_date", ErrValidation)
	}

	event := models.Event{
		EventID:     utils.NewID(),
		Name:        req.Name,
		ClientName:  req.ClientName,
		Location:    req.Location,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      models.EventStatusPlanned,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}

	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.invalidate(ctx, event.EventID, "created")
	return &event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var cached models.Event
	if hit, _ := s.Cache.Get(ctx, cache.ItemKey("events", id), &cached); hit {
		return &cached, nil
	}

	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("event %s not found: %w", id, err)
	}

	_ = s.Cache.Set(ctx, cache.ItemKey("events", id), event)
	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	var cached []models.Event
	if hit, _ := s.Cache.Get(ctx, cache.ListKey("events", ""), &cached); hit {
		return cached, nil
	}

	events, err := s.DB.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	_ = s.Cache.Set(ctx, cache.ListKey("events", ""), events)
	return events, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, id string, req models.EventRequest) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("event %s not found: %w", id, err)
	}

	if req.Name != "" {
		event.Name = req.Name
	}
	if !req.StartDate.IsZero() && !req.EndDate.IsZero() && req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end_date precedes start_date", ErrValidation)
	}
	event.ClientName = req.ClientName
	event.Location = req.Location
	event.Description = req.Description
	if !req.StartDate.IsZero() {
		event.StartDate = req.StartDate
	}
	if !req.EndDate.IsZero() {
		event.EndDate = req.EndDate
	}
	event.UpdatedAt = time.Now()

	if err := s.DB.UpdateEvent(ctx, *event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.invalidate(ctx, id, "updated")
	return event, nil
}

// ChangeStatus applies a forward-only lifecycle transition.
func (s *EventService) ChangeStatus(ctx context.Context, id, next string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("event %s not found: %w", id, err)
	}

	if !progress.CanTransition(event.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, event.Status, next)
	}

	if err := s.DB.UpdateEventStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("failed to change status: %w", err)
	}
	event.Status = next

	s.Logger.LogEvent("STATUS", id, fmt.Sprintf("status changed to %s", next))
	s.invalidate(ctx, id, "status_changed")
	return event, nil
}

// ApplyDerivedStatus promotes the stored status when the rollup has moved
// the event forward. No-op when the derived status equals the stored one.
func (s *EventService) ApplyDerivedStatus(ctx context.Context, event *models.Event, rollup progress.Rollup) (string, error) {
	derived := progress.DeriveStatus(event.Status, rollup.OverallPercent, time.Now(), event.StartDate)
	if derived == event.Status {
		return derived, nil
	}
	if err := s.DB.UpdateEventStatus(ctx, event.EventID, derived); err != nil {
		return event.Status, fmt.Errorf("failed to persist derived status: %w", err)
	}
	s.Logger.LogEvent("STATUS", event.EventID, fmt.Sprintf("derived status %s from rollup %.1f%%", derived, rollup.OverallPercent))
	s.invalidate(ctx, event.EventID, "status_derived")
	return derived, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return fmt.Errorf("event %s not found: %w", id, err)
	}
	if event.Status == models.EventStatusInProgress {
		return fmt.Errorf("%w: cannot delete an in-progress event", ErrValidation)
	}

	if err := s.DB.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}

	s.invalidate(ctx, id, "deleted")
	return nil
}

func (s *EventService) CountEvents(ctx context.Context) (int, error) {
	return s.DB.CountEvents(ctx)
}

// ---------------- SETUP / DIGGING ----------------

func (s *EventService) GetSetup(ctx context.Context, eventID string) (*models.SetupDigging, error) {
	setup, err := s.DB.GetSetup(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("setup record for event %s not found: %w", eventID, err)
	}
	return setup, nil
}

func (s *EventService) PutSetup(ctx context.Context, eventID string, req models.SetupRequest) (*models.SetupDigging, error) {
	if _, err := s.DB.GetEventByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("event %s not found: %w", eventID, err)
	}
	if req.AreaSqm < 0 || req.DepthCm < 0 {
		return nil, fmt.Errorf("%w: negative area or depth", ErrValidation)
	}

	setup := models.SetupDigging{
		SetupID:   utils.NewID(),
		EventID:   eventID,
		AreaSqm:   req.AreaSqm,
		DepthCm:   req.DepthCm,
		SoilType:  req.SoilType,
		Notes:     req.Notes,
		UpdatedAt: time.Now(),
	}
	if err := s.DB.UpsertSetup(ctx, setup); err != nil {
		return nil, fmt.Errorf("failed to save setup record: %w", err)
	}

	s.invalidate(ctx, eventID, "setup_updated")
	return &setup, nil
}

// invalidate drops the affected cache keys and tells peer instances to do
// the same. Publish failures are logged, never fatal.
func (s *EventService) invalidate(ctx context.Context, id, action string) {
	keys := []string{
		cache.ListKey("events", ""),
		cache.ItemKey("events", id),
		cache.ReportKey(id),
	}
	_ = s.Cache.Invalidate(ctx, keys...)

	if s.Publisher == nil {
		return
	}
	err := s.Publisher.PublishChange(s.Topic, kafka.ChangeEvent{
		Entity:    "events",
		ID:        id,
		Action:    action,
		CacheKeys: keys,
		Origin:    s.Origin,
	})
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish event change: %v", err))
	}
}
