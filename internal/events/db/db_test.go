package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-landscaping/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Event)(nil)))
	require.NoError(t, bunDB.ResetModel(ctx, (*models.SetupDigging)(nil)))

	return &DB{Bun: bunDB}
}

func sampleEvent(id string, start time.Time) models.Event {
	return models.Event{
		EventID:    id,
		Name:       "Riverside Garden Build",
		ClientName: "Harper Estate",
		Location:   "14 Riverside Dr",
		StartDate:  start,
		EndDate:    start.Add(72 * time.Hour),
		Status:     models.EventStatusPlanned,
		CreatedBy:  "crew-lead-1",
		CreatedAt:  time.Now().Round(time.Second),
	}
}

func TestCreateAndGetEvent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	event := sampleEvent("evt-1", time.Now().Round(time.Second))
	require.NoError(t, db.CreateEvent(ctx, event))

	got, err := db.GetEventByID(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, event.Name, got.Name)
	assert.Equal(t, event.ClientName, got.ClientName)
	assert.Equal(t, models.EventStatusPlanned, got.Status)

	_, err = db.GetEventByID(ctx, "missing")
	assert.Error(t, err)
}

func TestListEventsOrdersByStartDateDesc(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	older := sampleEvent("evt-old", time.Now().Add(-48*time.Hour).Round(time.Second))
	newer := sampleEvent("evt-new", time.Now().Round(time.Second))
	require.NoError(t, db.CreateEvent(ctx, older))
	require.NoError(t, db.CreateEvent(ctx, newer))

	events, err := db.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-new", events[0].EventID)
	assert.Equal(t, "evt-old", events[1].EventID)
}

func TestUpdateEventDoesNotTouchStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	event := sampleEvent("evt-1", time.Now().Round(time.Second))
	require.NoError(t, db.CreateEvent(ctx, event))
	require.NoError(t, db.UpdateEventStatus(ctx, "evt-1", models.EventStatusInProgress))

	event.Name = "Renamed build"
	event.Status = models.EventStatusPlanned // must be ignored by UpdateEvent
	event.UpdatedAt = time.Now().Round(time.Second)
	require.NoError(t, db.UpdateEvent(ctx, event))

	got, err := db.GetEventByID(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed build", got.Name)
	assert.Equal(t, models.EventStatusInProgress, got.Status)
}

func TestCountAndDeleteEvents(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateEvent(ctx, sampleEvent("evt-1", time.Now())))
	require.NoError(t, db.CreateEvent(ctx, sampleEvent("evt-2", time.Now())))

	count, err := db.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, db.DeleteEvent(ctx, "evt-1"))

	count, err = db.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertSetupKeepsOneRowPerEvent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := models.SetupDigging{
		SetupID:   "setup-1",
		EventID:   "evt-1",
		AreaSqm:   30,
		DepthCm:   15,
		SoilType:  "sandy",
		UpdatedAt: time.Now().Round(time.Second),
	}
	require.NoError(t, db.UpsertSetup(ctx, first))

	second := first
	second.SetupID = "setup-2"
	second.AreaSqm = 42.5
	second.SoilType = "clay loam"
	require.NoError(t, db.UpsertSetup(ctx, second))

	got, err := db.GetSetup(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 42.5, got.AreaSqm)
	assert.Equal(t, "clay loam", got.SoilType)
	// The original row was updated in place, not replaced.
	assert.Equal(t, "setup-1", got.SetupID)
}
