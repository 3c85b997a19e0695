package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-landscaping/internal/kafka"
	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/models"
	"ms-landscaping/internal/progress"
)

type mockEventDB struct {
	events       map[string]*models.Event
	setups       map[string]*models.SetupDigging
	shouldFailOn string
	statusWrites int
}

func newMockEventDB() *mockEventDB {
	return &mockEventDB{
		events: make(map[string]*models.Event),
		setups: make(map[string]*models.SetupDigging),
	}
}

func (m *mockEventDB) CreateEvent(_ context.Context, event models.Event) error {
	if m.shouldFailOn == "CreateEvent" {
		return errors.New("insert failed")
	}
	m.events[event.EventID] = &event
	return nil
}

func (m *mockEventDB) GetEventByID(_ context.Context, id string) (*models.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, errors.New("event not found")
	}
	copied := *event
	return &copied, nil
}

func (m *mockEventDB) ListEvents(_ context.Context) ([]models.Event, error) {
	out := make([]models.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockEventDB) UpdateEvent(_ context.Context, event models.Event) error {
	if _, ok := m.events[event.EventID]; !ok {
		return errors.New("event not found")
	}
	m.events[event.EventID] = &event
	return nil
}

func (m *mockEventDB) UpdateEventStatus(_ context.Context, id, status string) error {
	if m.shouldFailOn == "UpdateEventStatus" {
		return errors.New("update failed")
	}
	event, ok := m.events[id]
	if !ok {
		return errors.New("event not found")
	}
	event.Status = status
	m.statusWrites++
	return nil
}

func (m *mockEventDB) DeleteEvent(_ context.Context, id string) error {
	delete(m.events, id)
	return nil
}

func (m *mockEventDB) CountEvents(_ context.Context) (int, error) {
	return len(m.events), nil
}

func (m *mockEventDB) GetSetup(_ context.Context, eventID string) (*models.SetupDigging, error) {
	setup, ok := m.setups[eventID]
	if !ok {
		return nil, errors.New("setup not found")
	}
	return setup, nil
}

func (m *mockEventDB) UpsertSetup(_ context.Context, setup models.SetupDigging) error {
	m.setups[setup.EventID] = &setup
	return nil
}

// noopCache always misses and records which keys were invalidated.
type noopCache struct {
	invalidated []string
}

func (c *noopCache) Get(_ context.Context, _ string, _ interface{}) (bool, error) { return false, nil }
func (c *noopCache) Set(_ context.Context, _ string, _ interface{}) error         { return nil }
func (c *noopCache) Invalidate(_ context.Context, keys ...string) error {
	c.invalidated = append(c.invalidated, keys...)
	return nil
}

type recordingPublisher struct {
	published []kafka.ChangeEvent
}

func (p *recordingPublisher) PublishChange(_ string, event kafka.ChangeEvent) error {
	p.published = append(p.published, event)
	return nil
}

func newTestService(db *mockEventDB) (*EventService, *noopCache, *recordingPublisher) {
	c := &noopCache{}
	p := &recordingPublisher{}
	svc := NewEventService(db, c, p, "landscaping.events.changed", "test-instance", &logger.Logger{})
	return svc, c, p
}

func TestCreateEventValidation(t *testing.T) {
	svc, _, _ := newTestService(newMockEventDB())
	ctx := context.Background()

	_, err := svc.CreateEvent(ctx, models.EventRequest{Name: ""}, "user-1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateEvent(ctx, models.EventRequest{
		Name:      "Backyard rebuild",
		StartDate: time.Now().Add(48 * time.Hour),
		EndDate:   time.Now(),
	}, "user-1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateEventStartsPlanned(t *testing.T) {
	db := newMockEventDB()
	svc, c, p := newTestService(db)

	event, err := svc.CreateEvent(context.Background(), models.EventRequest{
		Name:      "Backyard rebuild",
		StartDate: time.Now(),
		EndDate:   time.Now().Add(72 * time.Hour),
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.EventStatusPlanned, event.Status)
	assert.Equal(t, "user-1", event.CreatedBy)
	assert.NotEmpty(t, event.EventID)

	// The mutation must drop the cache and notify peers.
	assert.NotEmpty(t, c.invalidated)
	require.Len(t, p.published, 1)
	assert.Equal(t, "events", p.published[0].Entity)
	assert.Equal(t, "created", p.published[0].Action)
	assert.Equal(t, "test-instance", p.published[0].Origin)
}

func TestChangeStatusForwardOnly(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{"planned to in_progress", models.EventStatusPlanned, models.EventStatusInProgress, false},
		{"in_progress to completed", models.EventStatusInProgress, models.EventStatusCompleted, false},
		{"planned to cancelled", models.EventStatusPlanned, models.EventStatusCancelled, false},
		{"in_progress back to planned", models.EventStatusInProgress, models.EventStatusPlanned, true},
		{"completed back to in_progress", models.EventStatusCompleted, models.EventStatusInProgress, true},
		{"completed to cancelled", models.EventStatusCompleted, models.EventStatusCancelled, true},
		{"cancelled to in_progress", models.EventStatusCancelled, models.EventStatusInProgress, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newMockEventDB()
			db.events["evt-1"] = &models.Event{EventID: "evt-1", Name: "Test", Status: tt.from}
			svc, _, _ := newTestService(db)

			event, err := svc.ChangeStatus(context.Background(), "evt-1", tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, db.events["evt-1"].Status)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.to, event.Status)
				assert.Equal(t, tt.to, db.events["evt-1"].Status)
			}
		})
	}
}

func TestApplyDerivedStatusPromotes(t *testing.T) {
	db := newMockEventDB()
	db.events["evt-1"] = &models.Event{
		EventID:   "evt-1",
		Status:    models.EventStatusPlanned,
		StartDate: time.Now().Add(24 * time.Hour),
	}
	svc, _, _ := newTestService(db)
	event, _ := db.GetEventByID(context.Background(), "evt-1")

	derived, err := svc.ApplyDerivedStatus(context.Background(), event, progress.Rollup{OverallPercent: 100})
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusCompleted, derived)
	assert.Equal(t, models.EventStatusCompleted, db.events["evt-1"].Status)
}

func TestApplyDerivedStatusNeverDowngrades(t *testing.T) {
	db := newMockEventDB()
	db.events["evt-1"] = &models.Event{
		EventID:   "evt-1",
		Status:    models.EventStatusCompleted,
		StartDate: time.Now().Add(24 * time.Hour),
	}
	svc, _, _ := newTestService(db)
	event, _ := db.GetEventByID(context.Background(), "evt-1")

	derived, err := svc.ApplyDerivedStatus(context.Background(), event, progress.Rollup{OverallPercent: 0})
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusCompleted, derived)
	assert.Zero(t, db.statusWrites, "no write expected when status is unchanged")
}

func TestDeleteEventRejectsInProgress(t *testing.T) {
	db := newMockEventDB()
	db.events["evt-1"] = &models.Event{EventID: "evt-1", Status: models.EventStatusInProgress}
	svc, _, _ := newTestService(db)

	err := svc.DeleteEvent(context.Background(), "evt-1")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, db.events, "evt-1")
}

func TestDeleteEventRemovesPlanned(t *testing.T) {
	db := newMockEventDB()
	db.events["evt-1"] = &models.Event{EventID: "evt-1", Status: models.EventStatusPlanned}
	svc, _, _ := newTestService(db)

	require.NoError(t, svc.DeleteEvent(context.Background(), "evt-1"))
	assert.NotContains(t, db.events, "evt-1")
}

func TestPutSetupValidation(t *testing.T) {
	db := newMockEventDB()
	db.events["evt-1"] = &models.Event{EventID: "evt-1", Status: models.EventStatusPlanned}
	svc, _, _ := newTestService(db)
	ctx := context.Background()

	_, err := svc.PutSetup(ctx, "evt-1", models.SetupRequest{AreaSqm: -1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.PutSetup(ctx, "missing", models.SetupRequest{AreaSqm: 10})
	assert.Error(t, err)

	setup, err := svc.PutSetup(ctx, "evt-1", models.SetupRequest{AreaSqm: 42.5, DepthCm: 20, SoilType: "clay loam"})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", setup.EventID)
	assert.Equal(t, 42.5, db.setups["evt-1"].AreaSqm)
}
