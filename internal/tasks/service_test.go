package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-landscaping/internal/kafka"
	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/models"
)

type mockTaskDB struct {
	tasks        map[string]*models.TaskDone
	entries      map[string][]models.TaskProgressEntry
	checklist    map[string]*models.EventTask
	extras       map[string]*models.AdditionalTask
	shouldFailOn string
}

func newMockTaskDB() *mockTaskDB {
	return &mockTaskDB{
		tasks:     make(map[string]*models.TaskDone),
		entries:   make(map[string][]models.TaskProgressEntry),
		checklist: make(map[string]*models.EventTask),
		extras:    make(map[string]*models.AdditionalTask),
	}
}

func (m *mockTaskDB) CreateTask(_ context.Context, task models.TaskDone) error {
	if m.shouldFailOn == "CreateTask" {
		return errors.New("insert failed")
	}
	m.tasks[task.TaskID] = &task
	return nil
}

func (m *mockTaskDB) GetTaskByID(_ context.Context, id string) (*models.TaskDone, error) {
	task, ok := m.tasks[id]
	if !ok {
		return nil, errors.New("task not found")
	}
	copied := *task
	return &copied, nil
}

func (m *mockTaskDB) ListTasksByEvent(_ context.Context, eventID string) ([]models.TaskDone, error) {
	var out []models.TaskDone
	for _, task := range m.tasks {
		if task.EventID == eventID {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (m *mockTaskDB) UpdateTask(_ context.Context, task models.TaskDone) error {
	m.tasks[task.TaskID] = &task
	return nil
}

func (m *mockTaskDB) DeleteTask(_ context.Context, id string) error {
	delete(m.tasks, id)
	delete(m.entries, id)
	return nil
}

func (m *mockTaskDB) CreateProgressEntry(_ context.Context, entry models.TaskProgressEntry) error {
	if m.shouldFailOn == "CreateProgressEntry" {
		return errors.New("insert failed")
	}
	m.entries[entry.TaskID] = append(m.entries[entry.TaskID], entry)
	return nil
}

func (m *mockTaskDB) ListEntriesByTask(_ context.Context, taskID string) ([]models.TaskProgressEntry, error) {
	return m.entries[taskID], nil
}

func (m *mockTaskDB) CreateChecklistItem(_ context.Context, item models.EventTask) error {
	m.checklist[item.ItemID] = &item
	return nil
}

func (m *mockTaskDB) ListChecklistByEvent(_ context.Context, eventID string) ([]models.EventTask, error) {
	var out []models.EventTask
	for _, item := range m.checklist {
		if item.EventID == eventID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *mockTaskDB) GetChecklistItem(_ context.Context, id string) (*models.EventTask, error) {
	item, ok := m.checklist[id]
	if !ok {
		return nil, errors.New("checklist item not found")
	}
	copied := *item
	return &copied, nil
}

func (m *mockTaskDB) UpdateChecklistItem(_ context.Context, item models.EventTask) error {
	m.checklist[item.ItemID] = &item
	return nil
}

func (m *mockTaskDB) CreateAdditionalTask(_ context.Context, task models.AdditionalTask) error {
	m.extras[task.TaskID] = &task
	return nil
}

func (m *mockTaskDB) GetAdditionalTask(_ context.Context, id string) (*models.AdditionalTask, error) {
	task, ok := m.extras[id]
	if !ok {
		return nil, errors.New("additional task not found")
	}
	copied := *task
	return &copied, nil
}

func (m *mockTaskDB) ListAdditionalTasksByEvent(_ context.Context, eventID string) ([]models.AdditionalTask, error) {
	var out []models.AdditionalTask
	for _, task := range m.extras {
		if task.EventID == eventID {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (m *mockTaskDB) UpdateAdditionalTask(_ context.Context, task models.AdditionalTask) error {
	m.extras[task.TaskID] = &task
	return nil
}

type missCache struct{}

func (missCache) Get(_ context.Context, _ string, _ interface{}) (bool, error) { return false, nil }
func (missCache) Set(_ context.Context, _ string, _ interface{}) error         { return nil }
func (missCache) Invalidate(_ context.Context, _ ...string) error              { return nil }

type capturePublisher struct {
	published []kafka.ChangeEvent
}

func (p *capturePublisher) PublishChange(_ string, event kafka.ChangeEvent) error {
	p.published = append(p.published, event)
	return nil
}

func newTaskTestService(db *mockTaskDB) (*TaskService, *capturePublisher) {
	p := &capturePublisher{}
	return NewTaskService(db, missCache{}, p, "landscaping.tasks.changed", "test-instance", &logger.Logger{}), p
}

func TestRecordProgressRollsUp(t *testing.T) {
	db := newMockTaskDB()
	db.tasks["task-1"] = &models.TaskDone{TaskID: "task-1", EventID: "evt-1", Name: "Excavate", TotalHours: 10}
	svc, p := newTaskTestService(db)
	ctx := context.Background()

	first, err := svc.RecordProgress(ctx, "task-1", models.ProgressEntryRequest{Hours: 4}, "crew-1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, first.HoursDone)
	assert.Equal(t, 40.0, first.Percent)

	second, err := svc.RecordProgress(ctx, "task-1", models.ProgressEntryRequest{Hours: 3, Note: "south half"}, "crew-1")
	require.NoError(t, err)
	assert.Equal(t, 7.0, second.HoursDone)
	assert.Equal(t, 70.0, second.Percent)

	require.Len(t, p.published, 2)
	assert.Equal(t, "progress_recorded", p.published[0].Action)
}

func TestRecordProgressRejectsNonPositiveHours(t *testing.T) {
	db := newMockTaskDB()
	db.tasks["task-1"] = &models.TaskDone{TaskID: "task-1", EventID: "evt-1", TotalHours: 10}
	svc, _ := newTaskTestService(db)
	ctx := context.Background()

	_, err := svc.RecordProgress(ctx, "task-1", models.ProgressEntryRequest{Hours: 0}, "crew-1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.RecordProgress(ctx, "task-1", models.ProgressEntryRequest{Hours: -2}, "crew-1")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, db.entries["task-1"])
}

func TestRecordProgressPercentClampsAtHundred(t *testing.T) {
	db := newMockTaskDB()
	db.tasks["task-1"] = &models.TaskDone{TaskID: "task-1", EventID: "evt-1", TotalHours: 5}
	svc, _ := newTaskTestService(db)

	completion, err := svc.RecordProgress(context.Background(), "task-1", models.ProgressEntryRequest{Hours: 8}, "crew-1")
	require.NoError(t, err)
	assert.Equal(t, 8.0, completion.HoursDone)
	assert.Equal(t, 100.0, completion.Percent)
}

func TestListTasksComputesPerTaskCompletion(t *testing.T) {
	db := newMockTaskDB()
	db.tasks["task-1"] = &models.TaskDone{TaskID: "task-1", EventID: "evt-1", Name: "Excavate", TotalHours: 10}
	db.entries["task-1"] = []models.TaskProgressEntry{
		{EntryID: "e1", TaskID: "task-1", Hours: 2.5},
		{EntryID: "e2", TaskID: "task-1", Hours: 2.5},
	}
	svc, _ := newTaskTestService(db)

	out, err := svc.ListTasks(context.Background(), "evt-1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 5.0, out[0].HoursDone)
	assert.Equal(t, 50.0, out[0].Percent)
}

func TestCreateTaskValidation(t *testing.T) {
	svc, _ := newTaskTestService(newMockTaskDB())
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, "evt-1", models.TaskRequest{Name: ""})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateTask(ctx, "evt-1", models.TaskRequest{Name: "Excavate", TotalHours: -1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdditionalTaskRejectsNegativeHours(t *testing.T) {
	svc, _ := newTaskTestService(newMockTaskDB())

	_, err := svc.AddAdditionalTask(context.Background(), "evt-1", models.AdditionalTaskRequest{
		Name:       "Haul debris",
		TotalHours: 4,
		HoursDone:  -1,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestChecklistToggle(t *testing.T) {
	db := newMockTaskDB()
	svc, _ := newTaskTestService(db)
	ctx := context.Background()

	item, err := svc.AddChecklistItem(ctx, "evt-1", models.ChecklistItemRequest{Name: "Order pavers", Position: 1})
	require.NoError(t, err)
	assert.False(t, item.Completed)

	updated, err := svc.UpdateChecklistItem(ctx, item.ItemID, models.ChecklistItemRequest{Completed: true, Position: 1})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.True(t, db.checklist[item.ItemID].Completed)
}
