package equipment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/models"
)

type mockEquipmentDB struct {
	items        map[string]*models.Equipment
	usages       map[string]*models.EquipmentUsage
	shouldFailOn string
}

func newMockEquipmentDB() *mockEquipmentDB {
	return &mockEquipmentDB{
		items:  make(map[string]*models.Equipment),
		usages: make(map[string]*models.EquipmentUsage),
	}
}

func (m *mockEquipmentDB) CreateEquipment(_ context.Context, item models.Equipment) error {
	m.items[item.EquipmentID] = &item
	return nil
}

func (m *mockEquipmentDB) GetEquipmentByID(_ context.Context, id string) (*models.Equipment, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, errors.New("equipment not found")
	}
	copied := *item
	return &copied, nil
}

func (m *mockEquipmentDB) ListEquipment(_ context.Context) ([]models.Equipment, error) {
	var out []models.Equipment
	for _, item := range m.items {
		out = append(out, *item)
	}
	return out, nil
}

func (m *mockEquipmentDB) UpdateEquipment(_ context.Context, item models.Equipment) error {
	m.items[item.EquipmentID] = &item
	return nil
}

func (m *mockEquipmentDB) UpdateEquipmentStatus(_ context.Context, id, status string) error {
	item, ok := m.items[id]
	if !ok {
		return errors.New("equipment not found")
	}
	item.Status = status
	return nil
}

func (m *mockEquipmentDB) CreateUsage(_ context.Context, usage models.EquipmentUsage) error {
	if m.shouldFailOn == "CreateUsage" {
		return errors.New("insert failed")
	}
	m.usages[usage.UsageID] = &usage
	return nil
}

func (m *mockEquipmentDB) GetUsageByID(_ context.Context, id string) (*models.EquipmentUsage, error) {
	usage, ok := m.usages[id]
	if !ok {
		return nil, errors.New("usage not found")
	}
	copied := *usage
	return &copied, nil
}

func (m *mockEquipmentDB) ListUsageByEvent(_ context.Context, eventID string) ([]models.EquipmentUsage, error) {
	var out []models.EquipmentUsage
	for _, usage := range m.usages {
		if usage.EventID == eventID {
			out = append(out, *usage)
		}
	}
	return out, nil
}

func (m *mockEquipmentDB) GetActiveUsageByEquipment(_ context.Context, equipmentID string) (*models.EquipmentUsage, error) {
	for _, usage := range m.usages {
		if usage.EquipmentID == equipmentID && !usage.Released {
			copied := *usage
			return &copied, nil
		}
	}
	return nil, errors.New("no active usage")
}

func (m *mockEquipmentDB) ReleaseUsage(_ context.Context, id string) error {
	usage, ok := m.usages[id]
	if !ok {
		return errors.New("usage not found")
	}
	usage.Released = true
	return nil
}

// fakeHolds mimics the Redis SetNX hold semantics in memory.
type fakeHolds struct {
	holds map[string]string
}

func newFakeHolds() *fakeHolds {
	return &fakeHolds{holds: make(map[string]string)}
}

func (f *fakeHolds) HoldFor(equipmentID, usageID string, _ time.Duration) (bool, error) {
	if _, held := f.holds[equipmentID]; held {
		return false, nil
	}
	f.holds[equipmentID] = usageID
	return true, nil
}

func (f *fakeHolds) Release(equipmentID, usageID string) error {
	if f.holds[equipmentID] == usageID {
		delete(f.holds, equipmentID)
	}
	return nil
}

func (f *fakeHolds) CheckAvailability(equipmentID string) (bool, error) {
	_, held := f.holds[equipmentID]
	return !held, nil
}

type missCache struct{}

func (missCache) Get(_ context.Context, _ string, _ interface{}) (bool, error) { return false, nil }
func (missCache) Set(_ context.Context, _ string, _ interface{}) error         { return nil }
func (missCache) Invalidate(_ context.Context, _ ...string) error              { return nil }

func newEquipmentTestService(db *mockEquipmentDB, holds *fakeHolds) *EquipmentService {
	return NewEquipmentService(db, holds, missCache{}, nil, nil, "landscaping.equipment.changed", "test-instance", &logger.Logger{})
}

func availableExcavator(db *mockEquipmentDB) {
	db.items["eq-1"] = &models.Equipment{
		EquipmentID: "eq-1",
		Name:        "Mini excavator",
		Status:      models.EquipmentStatusAvailable,
	}
}

func TestAssignMarksInUse(t *testing.T) {
	db := newMockEquipmentDB()
	availableExcavator(db)
	holds := newFakeHolds()
	svc := newEquipmentTestService(db, holds)

	usage, err := svc.Assign(context.Background(), "evt-1", models.AssignEquipmentRequest{
		EquipmentID: "eq-1",
		ToTime:      time.Now().Add(2 * time.Hour),
	}, "crew-lead-1")
	require.NoError(t, err)

	assert.Equal(t, "evt-1", usage.EventID)
	assert.Equal(t, "crew-lead-1", usage.AssignedBy)
	assert.False(t, usage.Released)
	assert.Equal(t, models.EquipmentStatusInUse, db.items["eq-1"].Status)
	assert.Equal(t, usage.UsageID, holds.holds["eq-1"])
}

func TestAssignRejectsUnavailableStatus(t *testing.T) {
	db := newMockEquipmentDB()
	db.items["eq-1"] = &models.Equipment{
		EquipmentID: "eq-1",
		Name:        "Mini excavator",
		Status:      models.EquipmentStatusMaintenance,
	}
	svc := newEquipmentTestService(db, newFakeHolds())

	_, err := svc.Assign(context.Background(), "evt-1", models.AssignEquipmentRequest{EquipmentID: "eq-1"}, "crew-lead-1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAssignRejectsExistingHold(t *testing.T) {
	db := newMockEquipmentDB()
	availableExcavator(db)
	holds := newFakeHolds()
	holds.holds["eq-1"] = "someone-else"
	svc := newEquipmentTestService(db, holds)

	_, err := svc.Assign(context.Background(), "evt-1", models.AssignEquipmentRequest{EquipmentID: "eq-1"}, "crew-lead-1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, models.EquipmentStatusAvailable, db.items["eq-1"].Status)
}

func TestAssignRejectsPastToTime(t *testing.T) {
	db := newMockEquipmentDB()
	availableExcavator(db)
	svc := newEquipmentTestService(db, newFakeHolds())

	_, err := svc.Assign(context.Background(), "evt-1", models.AssignEquipmentRequest{
		EquipmentID: "eq-1",
		ToTime:      time.Now().Add(-time.Hour),
	}, "crew-lead-1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAssignRollsBackHoldOnUsageFailure(t *testing.T) {
	db := newMockEquipmentDB()
	availableExcavator(db)
	db.shouldFailOn = "CreateUsage"
	holds := newFakeHolds()
	svc := newEquipmentTestService(db, holds)

	_, err := svc.Assign(context.Background(), "evt-1", models.AssignEquipmentRequest{EquipmentID: "eq-1"}, "crew-lead-1")
	require.Error(t, err)
	assert.Empty(t, holds.holds, "hold must be released when the usage insert fails")
	assert.Equal(t, models.EquipmentStatusAvailable, db.items["eq-1"].Status)
}

func TestManualRelease(t *testing.T) {
	db := newMockEquipmentDB()
	availableExcavator(db)
	holds := newFakeHolds()
	svc := newEquipmentTestService(db, holds)

	usage, err := svc.Assign(context.Background(), "evt-1", models.AssignEquipmentRequest{EquipmentID: "eq-1"}, "crew-lead-1")
	require.NoError(t, err)

	require.NoError(t, svc.Release(context.Background(), usage.UsageID))
	assert.True(t, db.usages[usage.UsageID].Released)
	assert.Equal(t, models.EquipmentStatusAvailable, db.items["eq-1"].Status)
	assert.Empty(t, holds.holds)

	// A second release of the same usage is a validation error.
	assert.ErrorIs(t, svc.Release(context.Background(), usage.UsageID), ErrValidation)
}

func TestReleaseExpiredAutoReturns(t *testing.T) {
	db := newMockEquipmentDB()
	availableExcavator(db)
	db.items["eq-1"].Status = models.EquipmentStatusInUse
	db.usages["usage-1"] = &models.EquipmentUsage{
		UsageID:     "usage-1",
		EquipmentID: "eq-1",
		EventID:     "evt-1",
		FromTime:    time.Now().Add(-3 * time.Hour),
		Released:    false,
	}
	svc := newEquipmentTestService(db, newFakeHolds())

	require.NoError(t, svc.ReleaseExpired(context.Background(), "eq-1"))
	assert.True(t, db.usages["usage-1"].Released)
	assert.Equal(t, models.EquipmentStatusAvailable, db.items["eq-1"].Status)
}

func TestReleaseExpiredWithoutActiveUsageIsNoop(t *testing.T) {
	db := newMockEquipmentDB()
	availableExcavator(db)
	svc := newEquipmentTestService(db, newFakeHolds())

	assert.NoError(t, svc.ReleaseExpired(context.Background(), "eq-1"))
	assert.Equal(t, models.EquipmentStatusAvailable, db.items["eq-1"].Status)
}

func TestUpdateEquipmentGuardsInUse(t *testing.T) {
	db := newMockEquipmentDB()
	availableExcavator(db)
	svc := newEquipmentTestService(db, newFakeHolds())

	_, err := svc.UpdateEquipment(context.Background(), "eq-1", models.EquipmentRequest{Status: models.EquipmentStatusInUse})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.UpdateEquipment(context.Background(), "eq-1", models.EquipmentRequest{Status: models.EquipmentStatusMaintenance})
	require.NoError(t, err)
	assert.Equal(t, models.EquipmentStatusMaintenance, updated.Status)
}
