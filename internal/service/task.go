package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hiddent3erminal/telegram-reminder-bot/internal/model"
	"github.com/hiddent3erminal/telegram-reminder-bot/internal/repository"
)

// TaskService owns all task mutations. Each call loads the user's record,
// mutates it, and persists the whole record back through the store.
type TaskService struct {
	store repository.Store
}

func NewTaskService(store repository.Store) *TaskService {
	return &TaskService{store: store}
}

// Add creates a task with the next id from the user's monotonic counter.
// Due times are truncated to the minute.
func (s *TaskService) Add(ctx context.Context, userID, chatID int64, description string, dueAt time.Time, priority model.Priority) (model.Task, error) {
	if strings.TrimSpace(description) == "" {
		return model.Task{}, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if !priority.IsValid() {
		priority = model.PriorityMedium
	}

	rec, err := s.store.Load(ctx, userID)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	task := model.Task{
		ID:          rec.NextID,
		ChatID:      chatID,
		Description: description,
		DueAt:       dueAt.Truncate(time.Minute),
		Priority:    priority,
		Completed:   false,
		CreatedAt:   time.Now(),
	}
	rec.NextID++
	rec.Tasks = append(rec.Tasks, task)

	if err := s.store.Save(ctx, userID, rec); err != nil {
		return model.Task{}, fmt.Errorf("failed to save tasks: %w", err)
	}
	return task, nil
}

func (s *TaskService) List(ctx context.Context, userID int64) ([]model.Task, error) {
	rec, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return rec.Tasks, nil
}

// Get returns the task with the given id, or ErrNotFound. The scheduler's
// fire-time lookup goes through here.
func (s *TaskService) Get(ctx context.Context, userID int64, taskID int) (model.Task, error) {
	rec, err := s.store.Load(ctx, userID)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to load tasks: %w", err)
	}
	task, ok := rec.Find(taskID)
	if !ok {
		return model.Task{}, ErrNotFound
	}
	return task, nil
}

// Complete marks a task done. A missing or already-completed task is a
// no-op; the bool reports whether anything changed.
func (s *TaskService) Complete(ctx context.Context, userID int64, taskID int) (model.Task, bool, error) {
	rec, err := s.store.Load(ctx, userID)
	if err != nil {
		return model.Task{}, false, fmt.Errorf("failed to load tasks: %w", err)
	}

	for i, t := range rec.Tasks {
		if t.ID != taskID {
			continue
		}
		if t.Completed {
			return t, false, nil
		}
		rec.Tasks[i].Completed = true
		if err := s.store.Save(ctx, userID, rec); err != nil {
			return model.Task{}, false, fmt.Errorf("failed to save tasks: %w", err)
		}
		return rec.Tasks[i], true, nil
	}
	return model.Task{}, false, nil
}

// Delete removes a task. Missing ids are a no-op; the bool reports whether
// a task was removed.
func (s *TaskService) Delete(ctx context.Context, userID int64, taskID int) (bool, error) {
	rec, err := s.store.Load(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load tasks: %w", err)
	}

	for i, t := range rec.Tasks {
		if t.ID != taskID {
			continue
		}
		rec.Tasks = append(rec.Tasks[:i], rec.Tasks[i+1:]...)
		if err := s.store.Save(ctx, userID, rec); err != nil {
			return false, fmt.Errorf("failed to save tasks: %w", err)
		}
		return true, nil
	}
	return false, nil
}

// Format renders the task list for chat display, one task per entry.
func (s *TaskService) Format(tasks []model.Task) string {
	if len(tasks) == 0 {
		return "No tasks found."
	}

	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		status := "❌"
		if t.Completed {
			status = "✅"
		}
		lines = append(lines, fmt.Sprintf("%s %d. %s \nDue: %s | Priority: %s",
			status, t.ID, t.Description, t.DueAt.Format("2006-01-02 15:04"), t.Priority))
	}
	return strings.Join(lines, "\n")
}
