package tasks

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

var ErrValidation = errors.New("invalid task data")

type DBLayer interface {
	CreateTask(ctx context.Context, task models.TaskDone) error
	GetTaskByID(ctx context.Context, id string) (*models.TaskDone, error)
	ListTasksByEvent(ctx context.Context, eventID string) ([]models.TaskDone, error)
	UpdateTask(ctx context.Context, task models.TaskDone) error
	DeleteTask(ctx context.Context, id string) error
	CreateProgressEntry(ctx context.Context, entry models.TaskProgressEntry) error
	ListEntriesByTask(ctx context.Context, taskID string) ([]models.TaskProgressEntry, error)
	CreateChecklistItem(ctx context.Context, item models.EventTask) error
	ListChecklistByEvent(ctx context.Context, eventID string) ([]models.EventTask, error)
	GetChecklistItem(ctx context.Context, id string) (*models.EventTask, error)
	UpdateChecklistItem(ctx context.Context, item models.EventTask) error
	CreateAdditionalTask(ctx context.Context, task models.AdditionalTask) error
	GetAdditionalTask(ctx context.Context, id string) (*models.AdditionalTask, error)
	ListAdditionalTasksByEvent(ctx context.Context, eventID string) ([]models.AdditionalTask, error)
	UpdateAdditionalTask(ctx context.Context, task models.AdditionalTask) error
}

type EntityCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, keys ...string) error
}

type ChangePublisher interface {
	PublishChange(topic string, event kafka.ChangeEvent) error
}

type TaskService struct {
	DB        DBLayer
	Cache     EntityCache
	Publisher ChangePublisher
	Topic     string
	Origin    string
	Logger    *logger.Logger
}

func NewTaskService(db DBLayer, c EntityCache, pub ChangePublisher, topic, origin string, log *logger.Logger) *TaskService {
	return &TaskService{DB: db, Cache: c, Publisher: pub, Topic: topic, Origin: origin, Logger: log}
}

// ---------------- TASKS ----------------

func (s *TaskService) CreateTask(ctx context.Context, eventID string, req models.TaskRequest) (*models.TaskDone, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.TotalHours < 0 {
		return nil, fmt.Errorf("%w: total_hours cannot be negative", ErrValidation)
	}

	task := models.TaskDone{
		TaskID:      utils.NewID(),
		EventID:     eventID,
		Name:        req.Name,
		Description: req.Description,
		TotalHours:  req.TotalHours,
		AssignedTo:  req.AssignedTo,
		CreatedAt:   time.Now(),
	}
	if err := s.DB.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.invalidate(ctx, eventID, task.TaskID, "created")
	return &task, nil
}

// ListTasks returns each task with its rolled-up completion. The list is
// cached per event.
func (s *TaskService) ListTasks(ctx context.Context, eventID string) ([]models.TaskWithProgress, error) {
	key := cache.ListKey("tasks_done", eventID)
	var cached []models.TaskWithProgress
	if hit, _ := s.Cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	tasks, err := s.DB.ListTasksByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	out := make([]models.TaskWithProgress, 0, len(tasks))
	for _, task := range tasks {
		entries, err := s.DB.ListEntriesByTask(ctx, task.TaskID)
		if err != nil {
			return nil, fmt.Errorf("failed to load entries for task %s: %w", task.TaskID, err)
		}
		c := progress.TaskCompletion(task.TotalHours, entries)
		out = append(out, models.TaskWithProgress{
			Task:      task,
			HoursDone: c.HoursDone,
			Percent:   c.Percent,
			Entries:   entries,
		})
	}

	_ = s.Cache.Set(ctx, key, out)
	return out, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id string, req models.TaskRequest) (*models.TaskDone, error) {
	task, err := s.DB.GetTaskByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("task %s not found: %w", id, err)
	}
	if req.TotalHours < 0 {
		return nil, fmt.Errorf("%w: total_hours cannot be negative", ErrValidation)
	}

	if req.Name != "" {
		task.Name = req.Name
	}
	task.Description = req.Description
	task.TotalHours = req.TotalHours
	task.AssignedTo = req.AssignedTo

	if err := s.DB.UpdateTask(ctx, *task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.invalidate(ctx, task.EventID, id, "updated")
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	task, err := s.DB.GetTaskByID(ctx, id)
	if err != nil {
		return fmt.Errorf("task %s not found: %w", id, err)
	}
	if err := s.DB.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}

	s.invalidate(ctx, task.EventID, id, "deleted")
	return nil
}

// ---------------- PROGRESS ENTRIES ----------------

// RecordProgress appends a timestamped entry and returns the task's new
// rolled-up completion.
func (s *TaskService) RecordProgress(ctx context.Context, taskID string, req models.ProgressEntryRequest, recordedBy string) (*progress.Completion, error) {
	if req.Hours <= 0 {
		return nil, fmt.Errorf("%w: hours must be positive", ErrValidation)
	}

	task, err := s.DB.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task %s not found: %w", taskID, err)
	}

	entry := models.TaskProgressEntry{
		EntryID:    utils.NewID(),
		TaskID:     taskID,
		Hours:      req.Hours,
		Note:       req.Note,
		RecordedBy: recordedBy,
		RecordedAt: time.Now(),
	}
	if err := s.DB.CreateProgressEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record progress: %w", err)
	}

	entries, err := s.DB.ListEntriesByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload entries: %w", err)
	}
	completion := progress.TaskCompletion(task.TotalHours, entries)

	s.invalidate(ctx, task.EventID, taskID, "progress_recorded")
	return &completion, nil
}

func (s *TaskService) ListProgress(ctx context.Context, taskID string) ([]models.TaskProgressEntry, error) {
	if _, err := s.DB.GetTaskByID(ctx, taskID); err != nil {
		return nil, fmt.Errorf("task %s not found: %w", taskID, err)
	}
	return s.DB.ListEntriesByTask(ctx, taskID)
}

// ---------------- CHECKLIST ----------------

func (s *TaskService) AddChecklistItem(ctx context.Context, eventID string, req models.ChecklistItemRequest) (*models.EventTask, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	item := models.EventTask{
		ItemID:    utils.NewID(),
		EventID:   eventID,
		Name:      req.Name,
		Completed: req.Completed,
		Position:  req.Position,
		CreatedAt: time.Now(),
	}
	if err := s.DB.CreateChecklistItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add checklist item: %w", err)
	}

	s.invalidate(ctx, eventID, item.ItemID, "checklist_added")
	return &item, nil
}

func (s *TaskService) ListChecklist(ctx context.Context, eventID string) ([]models.EventTask, error) {
	return s.DB.ListChecklistByEvent(ctx, eventID)
}

func (s *TaskService) UpdateChecklistItem(ctx context.Context, id string, req models.ChecklistItemRequest) (*models.EventTask, error) {
	item, err := s.DB.GetChecklistItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("checklist item %s not found: %w", id, err)
	}

	if req.Name != "" {
		item.Name = req.Name
	}
	item.Completed = req.Completed
	item.Position = req.Position

	if err := s.DB.UpdateChecklistItem(ctx, *item); err != nil {
		return nil, fmt.Errorf("failed to update checklist item: %w", err)
	}

	s.invalidate(ctx, item.EventID, id, "checklist_updated")
	return item, nil
}

// ---------------- ADDITIONAL TASKS ----------------

func (s *TaskService) AddAdditionalTask(ctx context.Context, eventID string, req models.AdditionalTaskRequest) (*models.AdditionalTask, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.TotalHours < 0 || req.HoursDone < 0 {
		return nil, fmt.Errorf("%w: hours cannot be negative", ErrValidation)
	}

	task := models.AdditionalTask{
		TaskID:     utils.NewID(),
		EventID:    eventID,
		Name:       req.Name,
		TotalHours: req.TotalHours,
		HoursDone:  req.HoursDone,
		Note:       req.Note,
		CreatedAt:  time.Now(),
	}
	if err := s.DB.CreateAdditionalTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to add additional task: %w", err)
	}

	s.invalidate(ctx, eventID, task.TaskID, "extra_added")
	return &task, nil
}

func (s *TaskService) ListAdditionalTasks(ctx context.Context, eventID string) ([]models.AdditionalTask, error) {
	return s.DB.ListAdditionalTasksByEvent(ctx, eventID)
}

func (s *TaskService) UpdateAdditionalTask(ctx context.Context, id string, req models.AdditionalTaskRequest) (*models.AdditionalTask, error) {
	task, err := s.DB.GetAdditionalTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("additional task %s not found: %w", id, err)
	}
	if req.TotalHours < 0 || req.HoursDone < 0 {
		return nil, fmt.Errorf("%w: hours cannot be negative", ErrValidation)
	}

	if req.Name != "" {
		task.Name = req.Name
	}
	task.TotalHours = req.TotalHours
	task.HoursDone = req.HoursDone
	task.Note = req.Note

	if err := s.DB.UpdateAdditionalTask(ctx, *task); err != nil {
		return nil, fmt.Errorf("failed to update additional task: %w", err)
	}

	s.invalidate(ctx, task.EventID, id, "extra_updated")
	return task, nil
}

func (s *TaskService) invalidate(ctx context.Context, eventID, id, action string) {
	keys := []string{
		cache.ListKey("tasks_done", eventID),
		cache.ListKey("event_tasks", eventID),
		cache.ListKey("additional_tasks", eventID),
		cache.ReportKey(eventID),
	}
	_ = s.Cache.Invalidate(ctx, keys...)

	if s.Publisher == nil {
		return
	}
	err := s.Publisher.PublishChange(s.Topic, kafka.ChangeEvent{
		Entity:    "tasks",
		ID:        id,
		Action:    action,
		CacheKeys: keys,
		Origin:    s.Origin,
	})
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish task change: %v", err))
	}
}
